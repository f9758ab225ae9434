// Package runengine implements the guided production run: a state machine
// that walks the phases of a recipe snapshot, validates operator input on
// each step and finalizes the run into an immutable RunRecord.
package runengine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/formulab-api/lib/metrics"
	"github.com/formulab-api/models"
	"github.com/formulab-api/recipe"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const defaultTolerancePct = 5

// TimerAction is an operator control of the active timer step
type TimerAction string

const (
	TimerStart TimerAction = "start"
	TimerPause TimerAction = "pause"
	TimerReset TimerAction = "reset"
)

// Listener is notified of completed runs and fired timers. Calls happen
// after the session lock was released.
type Listener interface {
	RunCompleted(ctx context.Context, record models.RunRecord)
	TimerCompleted(ctx context.Context, session *Session, step models.RecipeStep)
}

// Option configures the engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRand sets the random source used for batch codes.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithDefaultTolerance sets the weighing tolerance, in percent, used by steps
// that do not carry their own.
func WithDefaultTolerance(pct float64) Option {
	return func(e *Engine) {
		if pct > 0 {
			e.defaultTolerance = pct
		}
	}
}

// WithMassFormatter sets how tolerance ranges are rendered.
func WithMassFormatter(f MassFormatter) Option {
	return func(e *Engine) {
		if f != nil {
			e.mass = f
		}
	}
}

// WithListener registers the completion listener.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// Engine manages the run sessions of all operators. Every transition holds
// the store lock of its session, and Start the lock of its operator, so
// several engines may share one store.
type Engine struct {
	store            SessionStore
	history          *History
	log              *zap.Logger
	now              func() time.Time
	rngMu            sync.Mutex
	rng              *rand.Rand
	newID            func() string
	defaultTolerance float64
	mass             MassFormatter
	listener         Listener
}

// New creates a run engine backed by store.
func New(store SessionStore, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:            store,
		history:          NewHistory(),
		log:              log,
		now:              time.Now,
		rng:              rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		newID:            uuid.NewString,
		defaultTolerance: defaultTolerancePct,
		mass:             DefaultMassFormatter,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View is the client facing state of a session
type View struct {
	State      State              `json:"state"`
	Session    *Session           `json:"session,omitempty"`
	Step       *models.RecipeStep `json:"step,omitempty"`
	Validation *Validation        `json:"validation,omitempty"`
	Progress   Progress           `json:"progress"`
	Record     *models.RunRecord  `json:"record,omitempty"`
}

func (e *Engine) view(sess *Session) View {
	v := View{State: sess.State, Session: sess, Progress: sess.Progress()}
	switch sess.State {
	case StateRunning:
		if step, ok := sess.CurrentStep(); ok {
			val := Validate(step, sess.Input, e.defaultTolerance, e.mass)
			v.Step = &step
			v.Validation = &val
		}
	case StateCompleted:
		record := recordFromSession(sess)
		v.Record = &record
	}
	return v
}

// Start begins a run of project for the operator. The project's normalized
// phases are snapshotted. A finished run of the operator is cleared; a
// running one makes Start fail with ErrRunInProgress.
func (e *Engine) Start(ctx context.Context, operatorID string, project *models.Project) (View, error) {
	phases := recipe.NormalizePhases(project)
	if err := recipe.CheckStepIDs(phases); err != nil {
		return View{}, err
	}

	unlock, err := e.store.Lock(ctx, operatorLockKey(operatorID))
	if err != nil {
		return View{}, fmt.Errorf("locking operator %s: %w", operatorID, err)
	}
	defer unlock()

	existing, err := e.store.ListByOperator(ctx, operatorID)
	if err != nil {
		return View{}, fmt.Errorf("listing operator sessions: %w", err)
	}
	for _, s := range existing {
		if s.State == StateRunning {
			return View{}, fmt.Errorf("%w: batch %s", ErrRunInProgress, s.BatchCode)
		}
	}
	for _, s := range existing {
		if err := e.store.Delete(ctx, s.ID); err != nil {
			e.log.Warn("clearing finished run session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}

	now := e.now()
	sess := &Session{
		ID:             e.newID(),
		OperatorID:     operatorID,
		State:          StateRunning,
		ProjectID:      project.ID,
		ProjectName:    project.Name,
		ProjectVersion: project.Version,
		Phases:         models.ClonePhases(phases),
		BatchCode:      e.batchCode(project.Name),
		StartTime:      now,
		Values:         make(map[string]float64),
		UpdatedAt:      now,
	}
	sess.PhaseIndex, sess.StepIndex, _ = firstPosition(sess.Phases)
	sess.resetInput()

	if err := e.store.Save(ctx, sess); err != nil {
		return View{}, fmt.Errorf("saving session: %w", err)
	}

	metrics.RecordRunTransition("started")
	e.log.Info("run started",
		zap.String("session_id", sess.ID),
		zap.String("project_id", sess.ProjectID),
		zap.String("batch_code", sess.BatchCode),
		zap.String("operator_id", operatorID),
	)
	return e.view(sess), nil
}

// Get returns a session of the operator.
func (e *Engine) Get(ctx context.Context, operatorID, sessionID string) (View, error) {
	sess, err := e.loadOwned(ctx, operatorID, sessionID)
	if err != nil {
		return View{}, err
	}
	return e.view(sess), nil
}

// Active returns the operator's running session.
func (e *Engine) Active(ctx context.Context, operatorID string) (View, error) {
	sessions, err := e.store.ListByOperator(ctx, operatorID)
	if err != nil {
		return View{}, fmt.Errorf("listing operator sessions: %w", err)
	}
	for _, s := range sessions {
		if s.State == StateRunning {
			return e.view(s), nil
		}
	}
	return View{}, ErrNoActiveRun
}

// EnterWeight records the raw weight input of the active weighing step.
// Malformed input is stored too; it simply keeps the step pending.
func (e *Engine) EnterWeight(ctx context.Context, operatorID, sessionID, raw string) (View, error) {
	return e.mutate(ctx, operatorID, sessionID, func(sess *Session) error {
		step, ok := sess.CurrentStep()
		if !ok || step.Type != models.StepTypeWeighing {
			return ErrNotWeighingStep
		}
		sess.Input.RawWeight = raw
		return nil
	})
}

// Confirm sets the confirm flag of the active step. It acknowledges a timer
// step or confirms a process step.
func (e *Engine) Confirm(ctx context.Context, operatorID, sessionID string, confirmed bool) (View, error) {
	return e.mutate(ctx, operatorID, sessionID, func(sess *Session) error {
		sess.Input.Confirmed = confirmed
		return nil
	})
}

// Timer starts, pauses or resets the countdown of the active timer step.
func (e *Engine) Timer(ctx context.Context, operatorID, sessionID string, action TimerAction) (View, error) {
	return e.mutate(ctx, operatorID, sessionID, func(sess *Session) error {
		t := sess.Input.Timer
		if t == nil {
			return ErrNotTimerStep
		}
		switch action {
		case TimerStart:
			t.Start(e.now())
		case TimerPause:
			t.Pause(e.now())
		case TimerReset:
			t.Reset()
		default:
			return fmt.Errorf("%w: %q", ErrInvalidTimerAction, action)
		}
		return nil
	})
}

// Next advances past the active step. The step must be valid. A valid
// weighing value is stored in the session. Advancing past the last step
// finalizes the run.
func (e *Engine) Next(ctx context.Context, operatorID, sessionID string) (View, error) {
	unlock, err := e.lockSession(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	v, record, err := e.next(ctx, operatorID, sessionID)
	unlock()

	if record != nil && e.listener != nil {
		e.listener.RunCompleted(ctx, *record)
	}
	return v, err
}

func (e *Engine) next(ctx context.Context, operatorID, sessionID string) (View, *models.RunRecord, error) {
	sess, err := e.loadRunning(ctx, operatorID, sessionID)
	if err != nil {
		return View{}, nil, err
	}

	if step, ok := sess.CurrentStep(); ok {
		val := Validate(step, sess.Input, e.defaultTolerance, e.mass)
		if !val.Valid {
			metrics.RecordStepRejection(string(step.Type))
			return View{}, nil, fmt.Errorf("%w: %s", ErrInvalidStepState, val.Message)
		}
		if step.Type == models.StepTypeWeighing {
			if w, err := ParseWeight(sess.Input.RawWeight); err == nil {
				sess.Values[step.ID] = w
			}
		}

		if pi, si, more := nextPosition(sess.Phases, sess.PhaseIndex, sess.StepIndex); more {
			sess.PhaseIndex, sess.StepIndex = pi, si
			sess.resetInput()
			sess.UpdatedAt = e.now()
			if err := e.store.Save(ctx, sess); err != nil {
				return View{}, nil, fmt.Errorf("saving session: %w", err)
			}
			return e.view(sess), nil, nil
		}
	}

	record, err := e.finalize(ctx, sess)
	if err != nil {
		return View{}, nil, err
	}
	return e.view(sess), &record, nil
}

func (e *Engine) finalize(ctx context.Context, sess *Session) (models.RunRecord, error) {
	end := e.now()
	sess.EndTime = &end
	sess.State = StateCompleted
	sess.RecordID = e.newID()
	sess.Input = StepInput{}
	sess.UpdatedAt = end

	if err := e.store.Save(ctx, sess); err != nil {
		return models.RunRecord{}, fmt.Errorf("saving session: %w", err)
	}

	record := recordFromSession(sess)
	e.history.Append(record)

	metrics.RecordRunTransition("completed")
	metrics.RecordRunDuration(end.Sub(sess.StartTime))
	e.log.Info("run completed",
		zap.String("session_id", sess.ID),
		zap.String("batch_code", record.BatchCode),
		zap.String("duration", record.Duration),
		zap.Int("values", len(sess.Values)),
	)
	return record, nil
}

// Prev moves back one step. From the very first step the session is
// discarded and the operator returns to selection.
func (e *Engine) Prev(ctx context.Context, operatorID, sessionID string) (View, error) {
	unlock, err := e.lockSession(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	sess, err := e.loadRunning(ctx, operatorID, sessionID)
	if err != nil {
		return View{}, err
	}

	pi, si, ok := prevPosition(sess.Phases, sess.PhaseIndex, sess.StepIndex)
	if !ok {
		if err := e.discard(ctx, sess); err != nil {
			return View{}, err
		}
		return View{State: StateSelection}, nil
	}

	sess.PhaseIndex, sess.StepIndex = pi, si
	sess.resetInput()
	sess.UpdatedAt = e.now()
	if err := e.store.Save(ctx, sess); err != nil {
		return View{}, fmt.Errorf("saving session: %w", err)
	}
	return e.view(sess), nil
}

// Cancel discards a running session without recording it.
func (e *Engine) Cancel(ctx context.Context, operatorID, sessionID string) error {
	unlock, err := e.lockSession(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := e.loadRunning(ctx, operatorID, sessionID)
	if err != nil {
		return err
	}
	return e.discard(ctx, sess)
}

func (e *Engine) discard(ctx context.Context, sess *Session) error {
	if err := e.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	metrics.RecordRunTransition("cancelled")
	e.log.Info("run discarded", zap.String("session_id", sess.ID), zap.String("batch_code", sess.BatchCode))
	return nil
}

type firedTimer struct {
	session *Session
	step    models.RecipeStep
}

// Tick brings every running countdown up to date with the clock and fires
// the ones that reached zero. Engines sharing a store may all tick; a
// countdown fires once.
func (e *Engine) Tick(ctx context.Context) {
	fired := e.tick(ctx)

	if e.listener == nil {
		return
	}
	for _, f := range fired {
		e.listener.TimerCompleted(ctx, f.session, f.step)
	}
}

func (e *Engine) tick(ctx context.Context) []firedTimer {
	sessions, err := e.store.ListActive(ctx)
	if err != nil {
		e.log.Error("listing active run sessions", zap.Error(err))
		return nil
	}

	var fired []firedTimer
	for _, candidate := range sessions {
		if t := candidate.Input.Timer; t == nil || !t.Running {
			continue
		}
		f, err := e.tickSession(ctx, candidate.ID)
		if err != nil {
			e.log.Error("ticking run session", zap.String("session_id", candidate.ID), zap.Error(err))
			continue
		}
		if f != nil {
			fired = append(fired, *f)
		}
	}
	return fired
}

// tickSession reloads the session under its lock, so a transition made
// since ListActive is never overwritten.
func (e *Engine) tickSession(ctx context.Context, sessionID string) (*firedTimer, error) {
	unlock, err := e.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := e.store.Load(ctx, sessionID)
	if errors.Is(err, ErrRunNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := sess.Input.Timer
	if sess.State != StateRunning || t == nil || !t.Running {
		return nil, nil
	}

	before := t.Remaining
	done := t.Tick(e.now())
	if !done && t.Remaining == before {
		return nil, nil
	}

	var f *firedTimer
	if done {
		sess.Input.TimerCompleted = true
		metrics.TimersCompleted.Inc()
		if step, ok := sess.CurrentStep(); ok {
			f = &firedTimer{session: sess.Clone(), step: step}
		}
	}
	sess.UpdatedAt = e.now()
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return f, nil
}

// Running returns every session in progress, oldest first
func (e *Engine) Running(ctx context.Context) ([]*Session, error) {
	sessions, err := e.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active run sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	if sessions == nil {
		sessions = []*Session{}
	}
	return sessions, nil
}

// History returns the completed runs of this process, newest first.
func (e *Engine) History() []models.RunRecord {
	return e.history.List()
}

// mutate applies fn to a running session and saves it.
func (e *Engine) mutate(ctx context.Context, operatorID, sessionID string, fn func(*Session) error) (View, error) {
	unlock, err := e.lockSession(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	sess, err := e.loadRunning(ctx, operatorID, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := fn(sess); err != nil {
		return View{}, err
	}
	sess.UpdatedAt = e.now()
	if err := e.store.Save(ctx, sess); err != nil {
		return View{}, fmt.Errorf("saving session: %w", err)
	}
	return e.view(sess), nil
}

func (e *Engine) batchCode(projectName string) string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return GenerateBatchCode(projectName, e.rng)
}

func (e *Engine) lockSession(ctx context.Context, sessionID string) (func(), error) {
	unlock, err := e.store.Lock(ctx, sessionLockKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("locking session %s: %w", sessionID, err)
	}
	return unlock, nil
}

func sessionLockKey(id string) string {
	return "session:" + id
}

func operatorLockKey(operatorID string) string {
	return "operator:" + operatorID
}

func (e *Engine) loadOwned(ctx context.Context, operatorID, sessionID string) (*Session, error) {
	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OperatorID != operatorID {
		return nil, ErrRunNotFound
	}
	return sess, nil
}

func (e *Engine) loadRunning(ctx context.Context, operatorID, sessionID string) (*Session, error) {
	sess, err := e.loadOwned(ctx, operatorID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != StateRunning {
		return nil, ErrNotRunning
	}
	return sess, nil
}

func recordFromSession(sess *Session) models.RunRecord {
	end := sess.StartTime
	if sess.EndTime != nil {
		end = *sess.EndTime
	}
	values := make(map[string]float64, len(sess.Values))
	for k, v := range sess.Values {
		values[k] = v
	}
	return models.RunRecord{
		ID:          sess.RecordID,
		ProjectID:   sess.ProjectID,
		ProjectName: sess.ProjectName,
		BatchCode:   sess.BatchCode,
		OperatorID:  sess.OperatorID,
		StartTime:   sess.StartTime,
		EndTime:     end,
		Duration:    FormatDuration(end.Sub(sess.StartTime)),
		Data:        datatypes.NewJSONType(values),
	}
}
