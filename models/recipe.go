package models

// StepType identifies how a recipe step is executed during a run
type StepType string

const (
	StepTypeWeighing StepType = "weighing"
	StepTypeTimer    StepType = "timer"
	StepTypeProcess  StepType = "process"
)

// IsValid reports whether the step type is one of the known types
func (t StepType) IsValid() bool {
	switch t {
	case StepTypeWeighing, StepTypeTimer, StepTypeProcess:
		return true
	}
	return false
}

// PhaseColor is the cosmetic color tag of a phase
type PhaseColor string

const (
	PhaseColorBlue   PhaseColor = "blue"
	PhaseColorGreen  PhaseColor = "green"
	PhaseColorOrange PhaseColor = "orange"
	PhaseColorPurple PhaseColor = "purple"
	PhaseColorRose   PhaseColor = "rose"
	PhaseColorSlate  PhaseColor = "slate"
)

// IsValid reports whether the color is part of the fixed palette
func (c PhaseColor) IsValid() bool {
	switch c {
	case PhaseColorBlue, PhaseColorGreen, PhaseColorOrange,
		PhaseColorPurple, PhaseColorRose, PhaseColorSlate:
		return true
	}
	return false
}

// Ingredient is reference data owned by a project
type Ingredient struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Weight     float64  `json:"weight"` // grams
	Percentage *float64 `json:"percentage,omitempty"`
	CostPerKg  *float64 `json:"costPerKg,omitempty"`
}

// RecipeStep is a single weighing, timer or process step of a phase
type RecipeStep struct {
	ID          string   `json:"id"`
	Type        StepType `json:"type"`
	Label       string   `json:"label"`
	Notes       string   `json:"notes,omitempty"`
	IsCompleted bool     `json:"isCompleted"`

	// Weighing
	IngredientID   string   `json:"ingredientId,omitempty"`
	ExpectedWeight *float64 `json:"expectedWeight,omitempty"`
	ActualWeight   *float64 `json:"actualWeight,omitempty"`
	Tolerance      *float64 `json:"tolerance,omitempty"` // +/- percent

	// Timer
	DurationSeconds *int `json:"durationSeconds,omitempty"`

	// Process
	ProcessTemp  *float64 `json:"processTemp,omitempty"`
	ProcessSpeed string   `json:"processSpeed,omitempty"`
}

// TargetWeight returns the expected weight in grams, 0 when unset
func (s RecipeStep) TargetWeight() float64 {
	if s.ExpectedWeight == nil {
		return 0
	}
	return *s.ExpectedWeight
}

// Duration returns the timer duration in seconds, 0 when unset
func (s RecipeStep) Duration() int {
	if s.DurationSeconds == nil {
		return 0
	}
	return *s.DurationSeconds
}

// RecipePhase is an ordered group of steps. Step order is execution order.
type RecipePhase struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Color PhaseColor   `json:"color"`
	Steps []RecipeStep `json:"steps"`
}

// Clone returns a deep copy of the step
func (s RecipeStep) Clone() RecipeStep {
	out := s
	out.ExpectedWeight = cloneFloat(s.ExpectedWeight)
	out.ActualWeight = cloneFloat(s.ActualWeight)
	out.Tolerance = cloneFloat(s.Tolerance)
	out.ProcessTemp = cloneFloat(s.ProcessTemp)
	if s.DurationSeconds != nil {
		d := *s.DurationSeconds
		out.DurationSeconds = &d
	}
	return out
}

// Clone returns a deep copy of the phase and its steps
func (p RecipePhase) Clone() RecipePhase {
	out := p
	out.Steps = make([]RecipeStep, len(p.Steps))
	for i, s := range p.Steps {
		out.Steps[i] = s.Clone()
	}
	return out
}

// ClonePhases deep copies a phase list
func ClonePhases(phases []RecipePhase) []RecipePhase {
	if phases == nil {
		return nil
	}
	out := make([]RecipePhase, len(phases))
	for i, p := range phases {
		out[i] = p.Clone()
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
