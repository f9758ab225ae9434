package repositories

import (
	"context"

	"github.com/formulab-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository instance
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID retrieves a project by its ID
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (models.Project, error) {
	var project models.Project
	result := r.db.WithContext(ctx).First(&project, "id = ?", id)
	return project, result.Error
}

// Create inserts a new project into the database
func (r *ProjectRepository) Create(ctx context.Context, project models.Project) (models.Project, error) {
	result := r.db.WithContext(ctx).Create(&project)
	return project, result.Error
}

// Update writes the project metadata and ingredients. Phases are owned by
// the formulation editor and only change through UpdatePhases.
func (r *ProjectRepository) Update(ctx context.Context, project models.Project) error {
	result := r.db.WithContext(ctx).
		Model(&project).
		Select("*").
		Omit("Phases", "CreatedAt").
		Updates(&project)
	return result.Error
}

// UpdatePhases replaces the authored phases of a project in one statement
func (r *ProjectRepository) UpdatePhases(ctx context.Context, id string, phases []models.RecipePhase) error {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Update("phases", datatypes.JSONSlice[models.RecipePhase](phases))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a project from the database (soft delete)
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindWithPagination retrieves projects with pagination, filtering and sorting
func (r *ProjectRepository) FindWithPagination(
	ctx context.Context,
	page, pageSize int,
	sortBy, sortOrder string,
	status string,
	search string) ([]models.Project, int64, error) {

	var projects []models.Project
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&models.Project{})

	if status != "" {
		db = db.Where("status = ?", status)
	}

	if search != "" {
		searchPattern := "%" + search + "%"
		db = db.Where("(name ILIKE ? OR description ILIKE ? OR lead ILIKE ?)", searchPattern, searchPattern, searchPattern)
	}

	// Count with the same filters
	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize

	orderString := sortBy + " " + sortOrder
	if err := db.Order(orderString).Limit(pageSize).Offset(offset).Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, totalCount, nil
}
