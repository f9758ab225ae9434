package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectStatus represents the lifecycle status of a formulation project
type ProjectStatus string

const (
	ProjectStatusTesting   ProjectStatus = "Testing"
	ProjectStatusPrototype ProjectStatus = "Prototype"
	ProjectStatusApproved  ProjectStatus = "Approved"
	ProjectStatusReview    ProjectStatus = "Review"
	ProjectStatusOnHold    ProjectStatus = "On Hold"
)

// IsValid reports whether the status is a known project status
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusTesting, ProjectStatusPrototype, ProjectStatusApproved,
		ProjectStatusReview, ProjectStatusOnHold:
		return true
	}
	return false
}

// LabTestResult is a summary lab result shown on the project detail view
type LabTestResult struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Status    string `json:"status"` // pass, fail, pending
}

// Project is the aggregate root of a formulation: identity, metadata,
// ingredients and the authored recipe phases
type Project struct {
	ID          string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string        `json:"name" gorm:"not null"`
	Version     string        `json:"version" gorm:"not null;default:'1.0'"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(20);not null;default:'Testing';index"`
	Lead        string        `json:"lead"`
	Progress    int           `json:"progress"`
	Description string        `json:"description" gorm:"default:null"`
	UserID      string        `json:"userId" gorm:"index"`

	Category            string                      `json:"category,omitempty"`
	ProcessingMethod    string                      `json:"processingMethod,omitempty"`
	TargetOutcome       string                      `json:"targetOutcome,omitempty"`
	NutritionalGoal     string                      `json:"nutritionalGoal,omitempty"`
	TestingRequirements datatypes.JSONSlice[string] `json:"testingRequirements,omitempty"`
	ProcessingTemp      *float64                    `json:"processingTemp,omitempty"` // Celsius
	ProcessingTime      string                      `json:"processingTime,omitempty"`
	TargetTexture       string                      `json:"targetTexture,omitempty"`

	RecentLabResults           datatypes.JSONSlice[LabTestResult] `json:"recentLabResults,omitempty"`
	Ingredients                datatypes.JSONSlice[Ingredient]    `json:"ingredients"`
	PreviousVersionIngredients datatypes.JSONSlice[Ingredient]    `json:"previousVersionIngredients,omitempty"`
	Phases                     datatypes.JSONSlice[RecipePhase]   `json:"phases,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
