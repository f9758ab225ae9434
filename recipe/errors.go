package recipe

import "errors"

var (
	ErrPhaseNotFound    = errors.New("phase not found")
	ErrStepNotFound     = errors.New("step not found")
	ErrInvalidReorder   = errors.New("reorder must be a permutation of the phase's step ids")
	ErrInvalidColor     = errors.New("invalid phase color")
	ErrInvalidStepType  = errors.New("invalid step type")
	ErrInvalidStepValue = errors.New("invalid step value")
	ErrDraftNotFound    = errors.New("no open draft for this project")
	ErrDuplicateStepID  = errors.New("step id is used more than once")
)
