package dto

import (
	"github.com/formulab-api/models"
	"github.com/formulab-api/recipe"
)

// ProjectFilter represents filter criteria for projects
type ProjectFilter struct {
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// ProjectListResponse represents paginated project list response
type ProjectListResponse struct {
	Projects   []models.Project `json:"projects"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// ProjectRequest represents the payload for creating or updating a project
type ProjectRequest struct {
	Name        string               `json:"name" binding:"required"`
	Version     string               `json:"version"`
	Status      models.ProjectStatus `json:"status"`
	Lead        string               `json:"lead"`
	Progress    int                  `json:"progress" binding:"min=0,max=100"`
	Description string               `json:"description"`

	Category            string   `json:"category"`
	ProcessingMethod    string   `json:"processingMethod"`
	TargetOutcome       string   `json:"targetOutcome"`
	NutritionalGoal     string   `json:"nutritionalGoal"`
	TestingRequirements []string `json:"testingRequirements"`
	ProcessingTemp      *float64 `json:"processingTemp"`
	ProcessingTime      string   `json:"processingTime"`
	TargetTexture       string   `json:"targetTexture"`

	RecentLabResults           []models.LabTestResult `json:"recentLabResults"`
	Ingredients                []models.Ingredient    `json:"ingredients"`
	PreviousVersionIngredients []models.Ingredient    `json:"previousVersionIngredients"`
}

// ApplyTo copies the request onto a project model. Phases and ownership are
// not part of the request: phases change only through a formulation draft.
func (r ProjectRequest) ApplyTo(p *models.Project) {
	p.Name = r.Name
	p.Version = r.Version
	if p.Version == "" {
		p.Version = "1.0"
	}
	p.Status = r.Status
	if p.Status == "" {
		p.Status = models.ProjectStatusTesting
	}
	p.Lead = r.Lead
	p.Progress = r.Progress
	p.Description = r.Description
	p.Category = r.Category
	p.ProcessingMethod = r.ProcessingMethod
	p.TargetOutcome = r.TargetOutcome
	p.NutritionalGoal = r.NutritionalGoal
	p.TestingRequirements = r.TestingRequirements
	p.ProcessingTemp = r.ProcessingTemp
	p.ProcessingTime = r.ProcessingTime
	p.TargetTexture = r.TargetTexture
	p.RecentLabResults = r.RecentLabResults
	p.Ingredients = r.Ingredients
	p.PreviousVersionIngredients = r.PreviousVersionIngredients
}

// CompositionResponse is a project's composition with display strings in
// the configured units
type CompositionResponse struct {
	recipe.Composition
	TotalWeightDisplay string `json:"totalWeightDisplay"`
	ProcessingTemp     string `json:"processingTemp,omitempty"`
}
