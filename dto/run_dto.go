package dto

import "github.com/formulab-api/models"

// StartRunRequest starts a guided run of a project
type StartRunRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
}

// WeightRequest carries the operator's raw weight input
type WeightRequest struct {
	Value string `json:"value"`
}

// ConfirmRequest toggles the confirm flag of the active step
type ConfirmRequest struct {
	Confirmed *bool `json:"confirmed" binding:"required"`
}

// RunListResponse lists run records, newest first
type RunListResponse struct {
	Runs  []models.RunRecord `json:"runs"`
	Total int64              `json:"total"`
}
