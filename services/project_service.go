package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/formulab-api/dto"
	"github.com/formulab-api/models"
	"github.com/formulab-api/recipe"
	"github.com/formulab-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectStore is the persistence the project and formulation services need.
// *repositories.ProjectRepository implements it.
type ProjectStore interface {
	FindByID(ctx context.Context, id string) (models.Project, error)
	Create(ctx context.Context, project models.Project) (models.Project, error)
	Update(ctx context.Context, project models.Project) error
	UpdatePhases(ctx context.Context, id string, phases []models.RecipePhase) error
	Delete(ctx context.Context, id string) error
	FindWithPagination(ctx context.Context, page, pageSize int, sortBy, sortOrder, status, search string) ([]models.Project, int64, error)
}

// ProjectService handles business logic for projects
type ProjectService struct {
	projectRepo ProjectStore
	drafts      *recipe.DraftStore
	log         *zap.Logger
}

// NewProjectService creates a new project service instance
func NewProjectService(projectRepo ProjectStore, drafts *recipe.DraftStore, log *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		drafts:      drafts,
		log:         log,
	}
}

// ListProjects retrieves projects with pagination, filtering and sorting
func (s *ProjectService) ListProjects(ctx context.Context, filter dto.ProjectFilter) (dto.ProjectListResponse, error) {
	var response dto.ProjectListResponse

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.SortOrder != "asc" && filter.SortOrder != "desc" {
		filter.SortOrder = "desc"
	}

	// Valid sort columns (whitelist)
	validSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"status":     true,
		"progress":   true,
	}
	if !validSortColumns[filter.SortBy] {
		filter.SortBy = "updated_at"
	}

	if filter.Status != "" && !models.ProjectStatus(filter.Status).IsValid() {
		return response, fmt.Errorf("%w: unknown status %q", ErrInvalidProject, filter.Status)
	}

	projects, totalCount, err := s.projectRepo.FindWithPagination(
		ctx,
		filter.Page,
		filter.PageSize,
		filter.SortBy,
		filter.SortOrder,
		filter.Status,
		filter.Search,
	)
	if err != nil {
		return response, fmt.Errorf("listing projects: %w", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}

	response = dto.ProjectListResponse{
		Projects:   projects,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: utils.TotalPages(totalCount, filter.PageSize),
	}
	return response, nil
}

// GetProject retrieves a project by ID. Every operator may read every project.
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	return project, nil
}

// NormalizedPhases returns the executable phase list of a project
func (s *ProjectService) NormalizedPhases(ctx context.Context, projectID string) ([]models.RecipePhase, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return recipe.NormalizePhases(&project), nil
}

// CreateProject creates a new project owned by userID
func (s *ProjectService) CreateProject(ctx context.Context, req dto.ProjectRequest, userID string) (models.Project, error) {
	var project models.Project
	req.ApplyTo(&project)
	project.UserID = userID

	if err := validateProject(project); err != nil {
		return models.Project{}, err
	}

	created, err := s.projectRepo.Create(ctx, project)
	if err != nil {
		return models.Project{}, fmt.Errorf("creating project: %w", err)
	}

	s.log.Info("project created", zap.String("project_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// UpdateProject updates the metadata and ingredients of a project.
// Only the owner or an admin may update.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID string, req dto.ProjectRequest, userID string, isAdmin bool) (models.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !canModify(project, userID, isAdmin) {
		return models.Project{}, ErrForbidden
	}

	req.ApplyTo(&project)
	if err := validateProject(project); err != nil {
		return models.Project{}, err
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return models.Project{}, fmt.Errorf("updating project %s: %w", projectID, err)
	}
	return project, nil
}

// DeleteProject soft deletes a project and drops every open draft of it.
// Runs in progress keep their snapshot and complete normally.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID string, userID string, isAdmin bool) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !canModify(project, userID, isAdmin) {
		return ErrForbidden
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return fmt.Errorf("deleting project %s: %w", projectID, err)
	}
	s.drafts.DiscardProject(projectID)

	s.log.Info("project deleted", zap.String("project_id", projectID))
	return nil
}

func canModify(project models.Project, userID string, isAdmin bool) bool {
	return isAdmin || project.UserID == "" || project.UserID == userID
}

func validateProject(p models.Project) error {
	if !p.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProject, p.Status)
	}
	seen := make(map[string]bool, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		if ing.ID == "" {
			return fmt.Errorf("%w: ingredient %q has no id", ErrInvalidProject, ing.Name)
		}
		if seen[ing.ID] {
			return fmt.Errorf("%w: duplicate ingredient id %q", ErrInvalidProject, ing.ID)
		}
		seen[ing.ID] = true
		if ing.Weight < 0 {
			return fmt.Errorf("%w: ingredient %q has negative weight", ErrInvalidProject, ing.Name)
		}
	}
	return nil
}
