package events

import "time"

// RunCompleted is published once per finalized run
type RunCompleted struct {
	RunID       string             `json:"runId"`
	ProjectID   string             `json:"projectId"`
	ProjectName string             `json:"projectName"`
	BatchCode   string             `json:"batchCode"`
	OperatorID  string             `json:"operatorId,omitempty"`
	StartTime   time.Time          `json:"startTime"`
	EndTime     time.Time          `json:"endTime"`
	Duration    string             `json:"duration"`
	Data        map[string]float64 `json:"data"`
}

// TimerCompleted is published when a timer step's countdown reaches zero
type TimerCompleted struct {
	SessionID  string    `json:"sessionId"`
	StepID     string    `json:"stepId"`
	Label      string    `json:"label"`
	OperatorID string    `json:"operatorId,omitempty"`
	FiredAt    time.Time `json:"firedAt"`
}

// PhasesSaved is published when a formulation draft replaces a project's phases
type PhasesSaved struct {
	ProjectID  string    `json:"projectId"`
	PhaseCount int       `json:"phaseCount"`
	StepCount  int       `json:"stepCount"`
	SavedBy    string    `json:"savedBy,omitempty"`
	SavedAt    time.Time `json:"savedAt"`
}
