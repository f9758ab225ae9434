package recipe

import (
	"fmt"

	"github.com/formulab-api/models"
	"github.com/google/uuid"
)

const (
	defaultNewPhaseName  = "New Phase"
	defaultNewPhaseColor = models.PhaseColorSlate
	defaultTimerSeconds  = 60
)

// StepPatch carries a partial update of a step. Nil fields are left untouched.
type StepPatch struct {
	Type            *models.StepType `json:"type"`
	Label           *string          `json:"label"`
	Notes           *string          `json:"notes"`
	IsCompleted     *bool            `json:"isCompleted"`
	IngredientID    *string          `json:"ingredientId"`
	ExpectedWeight  *float64         `json:"expectedWeight"`
	ActualWeight    *float64         `json:"actualWeight"`
	Tolerance       *float64         `json:"tolerance"`
	DurationSeconds *int             `json:"durationSeconds"`
	ProcessTemp     *float64         `json:"processTemp"`
	ProcessSpeed    *string          `json:"processSpeed"`
}

// Validate rejects values the run engine could not execute
func (p StepPatch) Validate() error {
	if p.Type != nil && !p.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStepType, *p.Type)
	}
	if p.ExpectedWeight != nil && *p.ExpectedWeight < 0 {
		return fmt.Errorf("%w: expectedWeight must be >= 0", ErrInvalidStepValue)
	}
	if p.ActualWeight != nil && *p.ActualWeight < 0 {
		return fmt.Errorf("%w: actualWeight must be >= 0", ErrInvalidStepValue)
	}
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return fmt.Errorf("%w: durationSeconds must be >= 0", ErrInvalidStepValue)
	}
	if p.Tolerance != nil && (*p.Tolerance <= 0 || *p.Tolerance > 100) {
		return fmt.Errorf("%w: tolerance must be in (0, 100]", ErrInvalidStepValue)
	}
	return nil
}

func (p StepPatch) apply(s *models.RecipeStep) {
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Label != nil {
		s.Label = *p.Label
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.IsCompleted != nil {
		s.IsCompleted = *p.IsCompleted
	}
	if p.IngredientID != nil {
		s.IngredientID = *p.IngredientID
	}
	if p.ExpectedWeight != nil {
		v := *p.ExpectedWeight
		s.ExpectedWeight = &v
	}
	if p.ActualWeight != nil {
		v := *p.ActualWeight
		s.ActualWeight = &v
	}
	if p.Tolerance != nil {
		v := *p.Tolerance
		s.Tolerance = &v
	}
	if p.DurationSeconds != nil {
		v := *p.DurationSeconds
		s.DurationSeconds = &v
	}
	if p.ProcessTemp != nil {
		v := *p.ProcessTemp
		s.ProcessTemp = &v
	}
	if p.ProcessSpeed != nil {
		s.ProcessSpeed = *p.ProcessSpeed
	}
}

// Draft is an in-memory working copy of a project's phases. Nothing is
// persisted until the caller saves Phases() back onto the project.
// A Draft is not safe for concurrent use; DraftStore serialises access.
type Draft struct {
	ProjectID string
	phases    []models.RecipePhase
	newID     func() string
}

// NewDraft starts a draft from the project's normalized phases
func NewDraft(project *models.Project) *Draft {
	return &Draft{
		ProjectID: project.ID,
		phases:    models.ClonePhases(NormalizePhases(project)),
		newID:     uuid.NewString,
	}
}

// Phases returns a deep copy of the draft's phases
func (d *Draft) Phases() []models.RecipePhase {
	out := models.ClonePhases(d.phases)
	if out == nil {
		out = []models.RecipePhase{}
	}
	return out
}

// AddPhase appends an empty phase with default name and color
func (d *Draft) AddPhase() models.RecipePhase {
	phase := models.RecipePhase{
		ID:    "phase-" + d.newID(),
		Name:  defaultNewPhaseName,
		Color: defaultNewPhaseColor,
		Steps: []models.RecipeStep{},
	}
	d.phases = append(d.phases, phase)
	return phase.Clone()
}

// RenamePhase sets a phase's name
func (d *Draft) RenamePhase(phaseID, name string) error {
	p, err := d.phase(phaseID)
	if err != nil {
		return err
	}
	p.Name = name
	return nil
}

// RecolorPhase sets a phase's color tag
func (d *Draft) RecolorPhase(phaseID string, color models.PhaseColor) error {
	if !color.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	p, err := d.phase(phaseID)
	if err != nil {
		return err
	}
	p.Color = color
	return nil
}

// DeletePhase removes a phase and its steps
func (d *Draft) DeletePhase(phaseID string) error {
	for i := range d.phases {
		if d.phases[i].ID == phaseID {
			d.phases = append(d.phases[:i], d.phases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPhaseNotFound, phaseID)
}

// AddStep appends a step of the given type with its type defaults
func (d *Draft) AddStep(phaseID string, stepType models.StepType) (models.RecipeStep, error) {
	if !stepType.IsValid() {
		return models.RecipeStep{}, fmt.Errorf("%w: %q", ErrInvalidStepType, stepType)
	}
	p, err := d.phase(phaseID)
	if err != nil {
		return models.RecipeStep{}, err
	}

	step := models.RecipeStep{
		ID:          "step-" + d.newID(),
		Type:        stepType,
		IsCompleted: false,
	}
	switch stepType {
	case models.StepTypeWeighing:
		expected, actual := 0.0, 0.0
		step.Label = "New Ingredient"
		step.ExpectedWeight = &expected
		step.ActualWeight = &actual
	case models.StepTypeTimer:
		duration := defaultTimerSeconds
		step.Label = "Rest Period"
		step.DurationSeconds = &duration
	case models.StepTypeProcess:
		step.Label = "Process Step"
	}

	p.Steps = append(p.Steps, step)
	return step.Clone(), nil
}

// UpdateStep merges the non-nil fields of patch into the step
func (d *Draft) UpdateStep(phaseID, stepID string, patch StepPatch) (models.RecipeStep, error) {
	if err := patch.Validate(); err != nil {
		return models.RecipeStep{}, err
	}
	s, err := d.step(phaseID, stepID)
	if err != nil {
		return models.RecipeStep{}, err
	}
	patch.apply(s)
	return s.Clone(), nil
}

// DeleteStep removes a step from a phase
func (d *Draft) DeleteStep(phaseID, stepID string) error {
	p, err := d.phase(phaseID)
	if err != nil {
		return err
	}
	for i := range p.Steps {
		if p.Steps[i].ID == stepID {
			p.Steps = append(p.Steps[:i], p.Steps[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
}

// ReorderSteps adopts the given step order. The ids must be exactly a
// permutation of the phase's current step ids.
func (d *Draft) ReorderSteps(phaseID string, stepIDs []string) error {
	p, err := d.phase(phaseID)
	if err != nil {
		return err
	}
	if len(stepIDs) != len(p.Steps) {
		return fmt.Errorf("%w: got %d ids for %d steps", ErrInvalidReorder, len(stepIDs), len(p.Steps))
	}

	byID := make(map[string]models.RecipeStep, len(p.Steps))
	for _, s := range p.Steps {
		byID[s.ID] = s
	}

	reordered := make([]models.RecipeStep, 0, len(stepIDs))
	for _, id := range stepIDs {
		s, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: unknown or duplicate step %q", ErrInvalidReorder, id)
		}
		delete(byID, id)
		reordered = append(reordered, s)
	}

	p.Steps = reordered
	return nil
}

func (d *Draft) phase(phaseID string) (*models.RecipePhase, error) {
	for i := range d.phases {
		if d.phases[i].ID == phaseID {
			return &d.phases[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPhaseNotFound, phaseID)
}

func (d *Draft) step(phaseID, stepID string) (*models.RecipeStep, error) {
	p, err := d.phase(phaseID)
	if err != nil {
		return nil, err
	}
	for i := range p.Steps {
		if p.Steps[i].ID == stepID {
			return &p.Steps[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
}
