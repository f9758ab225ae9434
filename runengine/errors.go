package runengine

import "errors"

// Sentinel errors returned by the run engine.
var (
	ErrInvalidStepState      = errors.New("current step is not valid yet")
	ErrMalformedNumericInput = errors.New("weight is not a number")
	ErrNoActiveRun           = errors.New("no active run")
	ErrRunNotFound           = errors.New("run not found")
	ErrNotRunning            = errors.New("run is not running")
	ErrRunInProgress         = errors.New("a run is already in progress")
	ErrNotTimerStep          = errors.New("current step is not a timer step")
	ErrNotWeighingStep       = errors.New("current step is not a weighing step")
	ErrInvalidTimerAction    = errors.New("invalid timer action")
)
