package dto

import "github.com/formulab-api/models"

// DraftResponse is the current state of a formulation draft
type DraftResponse struct {
	ProjectID string               `json:"projectId"`
	Phases    []models.RecipePhase `json:"phases"`
	StepCount int                  `json:"stepCount"`
}

// PhasePatchRequest renames and/or recolors a phase
type PhasePatchRequest struct {
	Name  *string            `json:"name"`
	Color *models.PhaseColor `json:"color"`
}

// AddStepRequest appends a step of the given type
type AddStepRequest struct {
	Type models.StepType `json:"type" binding:"required"`
}

// ReorderStepsRequest carries the complete new step order of a phase
type ReorderStepsRequest struct {
	StepIDs []string `json:"stepIds" binding:"required"`
}
