package runengine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/formulab-api/models"
)

// weightEpsilon absorbs floating point error at the tolerance boundary
const weightEpsilon = 1e-3

// ValidationStatus is the display state of the active step
type ValidationStatus string

const (
	StatusPending ValidationStatus = "pending"
	StatusPass    ValidationStatus = "pass"
	StatusFail    ValidationStatus = "fail"
)

// Validation is the result of checking the active step
type Validation struct {
	Valid   bool             `json:"valid"`
	Status  ValidationStatus `json:"status"`
	Message string           `json:"message"`
	Range   string           `json:"range,omitempty"`
}

// MassFormatter renders a mass given in grams for display
type MassFormatter func(grams float64) string

// DefaultMassFormatter formats grams with two decimals, e.g. "95.00g"
func DefaultMassFormatter(grams float64) string {
	return fmt.Sprintf("%.2fg", grams)
}

// StepInput is the operator interaction state of the active step. It is
// reset every time the run moves to another step.
type StepInput struct {
	RawWeight      string     `json:"rawWeight,omitempty"`
	Confirmed      bool       `json:"confirmed"`
	TimerCompleted bool       `json:"timerCompleted"`
	Timer          *Countdown `json:"timer,omitempty"`
}

// ParseWeight parses operator weight input
func ParseWeight(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMalformedNumericInput
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumericInput, raw)
	}
	return v, nil
}

// ToleranceBounds returns the accepted weight range for a target and a
// tolerance in percent
func ToleranceBounds(target, tolerancePct float64) (min, max float64) {
	tol := target * tolerancePct / 100
	return target - tol, target + tol
}

// WithinTolerance reports whether value is within tolerancePct of target
func WithinTolerance(value, target, tolerancePct float64) bool {
	tol := target * tolerancePct / 100
	return math.Abs(value-target) <= tol+weightEpsilon
}

// EffectiveTolerance returns the step's own tolerance or the fallback
func EffectiveTolerance(step models.RecipeStep, fallback float64) float64 {
	if step.Tolerance != nil && *step.Tolerance > 0 {
		return *step.Tolerance
	}
	return fallback
}

// Validate checks whether the active step allows the run to advance
func Validate(step models.RecipeStep, in StepInput, defaultTolerance float64, mass MassFormatter) Validation {
	if mass == nil {
		mass = DefaultMassFormatter
	}

	switch step.Type {
	case models.StepTypeWeighing:
		target := step.TargetWeight()
		tolPct := EffectiveTolerance(step, defaultTolerance)
		lo, hi := ToleranceBounds(target, tolPct)
		rng := mass(lo) + " - " + mass(hi)

		v, err := ParseWeight(in.RawWeight)
		if err != nil {
			return Validation{Status: StatusPending, Message: "Awaiting input...", Range: rng}
		}
		if WithinTolerance(v, target, tolPct) {
			return Validation{Valid: true, Status: StatusPass, Message: "Weight Accepted", Range: rng}
		}
		msg := fmt.Sprintf("Outside %s%% tolerance", strconv.FormatFloat(tolPct, 'f', -1, 64))
		return Validation{Status: StatusFail, Message: msg, Range: rng}

	case models.StepTypeTimer:
		if in.TimerCompleted || in.Confirmed || (in.Timer != nil && in.Timer.Done()) {
			return Validation{Valid: true, Status: StatusPass, Message: "Timer Complete"}
		}
		return Validation{Status: StatusPending, Message: "Timer Running..."}

	case models.StepTypeProcess:
		if in.Confirmed {
			return Validation{Valid: true, Status: StatusPass, Message: "Step Confirmed"}
		}
		return Validation{Status: StatusPending, Message: "Pending Confirmation"}
	}

	return Validation{Valid: true, Status: StatusPass}
}
