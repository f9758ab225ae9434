package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formulab-api/dto"
	"github.com/formulab-api/lib/events"
	"github.com/formulab-api/lib/metrics"
	"github.com/formulab-api/models"
	"github.com/formulab-api/recipe"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FormulationService edits recipe phases through per-user drafts and
// writes a saved draft back onto the project
type FormulationService struct {
	projects  ProjectStore
	drafts    *recipe.DraftStore
	publisher events.Publisher
	log       *zap.Logger
}

// NewFormulationService creates a new formulation service instance
func NewFormulationService(projects ProjectStore, drafts *recipe.DraftStore, publisher events.Publisher, log *zap.Logger) *FormulationService {
	return &FormulationService{
		projects:  projects,
		drafts:    drafts,
		publisher: publisher,
		log:       log,
	}
}

func draftResponse(d *recipe.Draft) dto.DraftResponse {
	phases := d.Phases()
	return dto.DraftResponse{
		ProjectID: d.ProjectID,
		Phases:    phases,
		StepCount: recipe.CountSteps(phases),
	}
}

func (s *FormulationService) loadProject(ctx context.Context, projectID string) (models.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	return project, nil
}

// OpenDraft returns the user's draft of a project, creating it from the
// project's normalized phases when none is open
func (s *FormulationService) OpenDraft(ctx context.Context, userID, projectID string) (dto.DraftResponse, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	var resp dto.DraftResponse
	s.drafts.Open(userID, projectID, func() *recipe.Draft {
		return recipe.NewDraft(&project)
	})
	err = s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		resp = draftResponse(d)
		return nil
	})
	return resp, err
}

// GetDraft returns the user's open draft
func (s *FormulationService) GetDraft(userID, projectID string) (dto.DraftResponse, error) {
	var resp dto.DraftResponse
	err := s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		resp = draftResponse(d)
		return nil
	})
	return resp, err
}

// DiscardDraft drops the user's draft without saving
func (s *FormulationService) DiscardDraft(userID, projectID string) error {
	if !s.drafts.Discard(userID, projectID) {
		return recipe.ErrDraftNotFound
	}
	return nil
}

// AddPhase appends a default phase to the draft
func (s *FormulationService) AddPhase(userID, projectID string) (models.RecipePhase, error) {
	var phase models.RecipePhase
	err := s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		phase = d.AddPhase()
		return nil
	})
	return phase, err
}

// PatchPhase renames and/or recolors a phase. Nothing changes when the
// color is invalid.
func (s *FormulationService) PatchPhase(userID, projectID, phaseID string, req dto.PhasePatchRequest) (dto.DraftResponse, error) {
	if req.Color != nil && !req.Color.IsValid() {
		return dto.DraftResponse{}, fmt.Errorf("%w: %q", recipe.ErrInvalidColor, *req.Color)
	}

	var resp dto.DraftResponse
	err := s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		if req.Name != nil {
			if err := d.RenamePhase(phaseID, *req.Name); err != nil {
				return err
			}
		}
		if req.Color != nil {
			if err := d.RecolorPhase(phaseID, *req.Color); err != nil {
				return err
			}
		}
		resp = draftResponse(d)
		return nil
	})
	return resp, err
}

// DeletePhase removes a phase from the draft
func (s *FormulationService) DeletePhase(userID, projectID, phaseID string) error {
	return s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		return d.DeletePhase(phaseID)
	})
}

// AddStep appends a step with type defaults
func (s *FormulationService) AddStep(userID, projectID, phaseID string, stepType models.StepType) (models.RecipeStep, error) {
	var step models.RecipeStep
	err := s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		var err error
		step, err = d.AddStep(phaseID, stepType)
		return err
	})
	return step, err
}

// UpdateStep merges a partial update into a step
func (s *FormulationService) UpdateStep(userID, projectID, phaseID, stepID string, patch recipe.StepPatch) (models.RecipeStep, error) {
	var step models.RecipeStep
	err := s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		var err error
		step, err = d.UpdateStep(phaseID, stepID, patch)
		return err
	})
	return step, err
}

// DeleteStep removes a step from a phase
func (s *FormulationService) DeleteStep(userID, projectID, phaseID, stepID string) error {
	return s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		return d.DeleteStep(phaseID, stepID)
	})
}

// ReorderSteps adopts a new step order for a phase
func (s *FormulationService) ReorderSteps(userID, projectID, phaseID string, stepIDs []string) (dto.DraftResponse, error) {
	var resp dto.DraftResponse
	err := s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		if err := d.ReorderSteps(phaseID, stepIDs); err != nil {
			return err
		}
		resp = draftResponse(d)
		return nil
	})
	return resp, err
}

// SaveDraft replaces the project's phases with the draft in one write and
// closes the draft
func (s *FormulationService) SaveDraft(ctx context.Context, userID, projectID string, isAdmin bool) (dto.DraftResponse, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if !canModify(project, userID, isAdmin) {
		return dto.DraftResponse{}, ErrForbidden
	}

	var resp dto.DraftResponse
	err = s.drafts.Update(userID, projectID, func(d *recipe.Draft) error {
		resp = draftResponse(d)
		return nil
	})
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if err := recipe.CheckStepIDs(resp.Phases); err != nil {
		return dto.DraftResponse{}, err
	}

	if err := s.projects.UpdatePhases(ctx, projectID, resp.Phases); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DraftResponse{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return dto.DraftResponse{}, fmt.Errorf("saving phases of project %s: %w", projectID, err)
	}
	s.drafts.Discard(userID, projectID)
	metrics.DraftsSaved.Inc()

	event := events.PhasesSaved{
		ProjectID:  projectID,
		PhaseCount: len(resp.Phases),
		StepCount:  resp.StepCount,
		SavedBy:    userID,
		SavedAt:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, events.RoutingPhasesSaved, event); err != nil {
		s.log.Warn("failed to publish phases saved event", zap.String("project_id", projectID), zap.Error(err))
	}

	s.log.Info("formulation saved",
		zap.String("project_id", projectID),
		zap.Int("phases", len(resp.Phases)),
		zap.Int("steps", resp.StepCount),
	)
	return resp, nil
}
