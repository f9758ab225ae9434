package runengine

import (
	"time"

	"github.com/formulab-api/models"
)

// State is the run engine state of an operator
type State string

const (
	StateSelection State = "selection"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Session is one guided run. The project fields and phases are a snapshot
// taken at start and are not affected by later edits to the project.
type Session struct {
	ID         string `json:"id"`
	OperatorID string `json:"operatorId"`
	State      State  `json:"state"`

	ProjectID      string               `json:"projectId"`
	ProjectName    string               `json:"projectName"`
	ProjectVersion string               `json:"projectVersion,omitempty"`
	Phases         []models.RecipePhase `json:"phases"`

	BatchCode string             `json:"batchCode"`
	StartTime time.Time          `json:"startTime"`
	EndTime   *time.Time         `json:"endTime,omitempty"`
	Values    map[string]float64 `json:"values"`

	PhaseIndex int       `json:"phaseIndex"`
	StepIndex  int       `json:"stepIndex"`
	Input      StepInput `json:"input"`

	RecordID  string    `json:"recordId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CurrentStep returns the active step. ok is false when the position is past
// the last step, which only happens for a recipe without steps.
func (s *Session) CurrentStep() (step models.RecipeStep, ok bool) {
	if s.PhaseIndex < 0 || s.PhaseIndex >= len(s.Phases) {
		return models.RecipeStep{}, false
	}
	steps := s.Phases[s.PhaseIndex].Steps
	if s.StepIndex < 0 || s.StepIndex >= len(steps) {
		return models.RecipeStep{}, false
	}
	return steps[s.StepIndex], true
}

// Progress is the operator's position across all steps of the run
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Progress reports the 1-based global step number of the active step
func (s *Session) Progress() Progress {
	total := 0
	current := 0
	for pi, p := range s.Phases {
		if pi < s.PhaseIndex {
			current += len(p.Steps)
		}
		total += len(p.Steps)
	}
	if _, ok := s.CurrentStep(); ok {
		current += s.StepIndex + 1
	}
	if s.State == StateCompleted {
		current = total
	}

	p := Progress{Current: current, Total: total}
	if total > 0 {
		p.Percent = current * 100 / total
	} else if s.State == StateCompleted {
		p.Percent = 100
	}
	return p
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	out := *s
	out.Phases = models.ClonePhases(s.Phases)
	out.Values = make(map[string]float64, len(s.Values))
	for k, v := range s.Values {
		out.Values[k] = v
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.Input.Timer != nil {
		c := *s.Input.Timer
		if c.StartedAt != nil {
			started := *c.StartedAt
			c.StartedAt = &started
		}
		out.Input.Timer = &c
	}
	return &out
}

// resetInput clears interaction state for the step now under the cursor
func (s *Session) resetInput() {
	s.Input = StepInput{}
	if step, ok := s.CurrentStep(); ok && step.Type == models.StepTypeTimer {
		s.Input.Timer = NewCountdown(step.Duration())
	}
}

// firstPosition returns the first step of the first non-empty phase
func firstPosition(phases []models.RecipePhase) (phase, step int, ok bool) {
	for pi, p := range phases {
		if len(p.Steps) > 0 {
			return pi, 0, true
		}
	}
	return 0, 0, false
}

// nextPosition returns the step after (phase, step), skipping empty phases
func nextPosition(phases []models.RecipePhase, phase, step int) (int, int, bool) {
	if phase < len(phases) && step+1 < len(phases[phase].Steps) {
		return phase, step + 1, true
	}
	for pi := phase + 1; pi < len(phases); pi++ {
		if len(phases[pi].Steps) > 0 {
			return pi, 0, true
		}
	}
	return phase, step, false
}

// prevPosition returns the step before (phase, step), skipping empty phases
func prevPosition(phases []models.RecipePhase, phase, step int) (int, int, bool) {
	if step > 0 {
		return phase, step - 1, true
	}
	for pi := phase - 1; pi >= 0; pi-- {
		if n := len(phases[pi].Steps); n > 0 {
			return pi, n - 1, true
		}
	}
	return phase, step, false
}
