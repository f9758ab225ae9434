package runengine

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/formulab-api/models"
	"github.com/formulab-api/recipe"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingListener struct {
	mu     sync.Mutex
	runs   []models.RunRecord
	timers []string
}

func (l *recordingListener) RunCompleted(_ context.Context, r models.RunRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, r)
}

func (l *recordingListener) TimerCompleted(_ context.Context, _ *Session, step models.RecipeStep) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timers = append(l.timers, step.ID)
}

func (l *recordingListener) timerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

func setupEngine(t *testing.T) (*Engine, *fakeClock, *recordingListener, context.Context) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	listener := &recordingListener{}
	eng := New(NewMemoryStore(zap.NewNop()), zap.NewNop(),
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithListener(listener),
	)
	return eng, clock, listener, context.Background()
}

func ptr[T any](v T) *T { return &v }

func processStep(id string) models.RecipeStep {
	return models.RecipeStep{ID: id, Type: models.StepTypeProcess, Label: id}
}

// twoPhaseProject has phases P1{3 steps} and P2{2 steps}, all process steps.
func twoPhaseProject() *models.Project {
	return &models.Project{
		ID:   "proj-1",
		Name: "Oat Milk Barista Blend",
		Phases: []models.RecipePhase{
			{ID: "p1", Name: "Hydration", Color: models.PhaseColorBlue,
				Steps: []models.RecipeStep{processStep("a"), processStep("b"), processStep("c")}},
			{ID: "p2", Name: "Homogenise", Color: models.PhaseColorGreen,
				Steps: []models.RecipeStep{processStep("d"), processStep("e")}},
		},
	}
}

func timerProject(seconds int) *models.Project {
	return &models.Project{ID: "proj-t", Name: "Rest",
		Phases: []models.RecipePhase{{ID: "p", Steps: []models.RecipeStep{
			{ID: "rest", Type: models.StepTypeTimer, Label: "Rest", DurationSeconds: ptr(seconds)},
		}}}}
}

func weighingProject(target float64) *models.Project {
	return &models.Project{
		ID:   "proj-w",
		Name: "Sugar Syrup",
		Ingredients: []models.Ingredient{
			{ID: "sugar", Name: "Sugar", Weight: target},
		},
	}
}

func confirmAndNext(t *testing.T, eng *Engine, ctx context.Context, op, id string) View {
	t.Helper()
	if _, err := eng.Confirm(ctx, op, id, true); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	v, err := eng.Next(ctx, op, id)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return v
}

func TestStartRun(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)

	v, err := eng.Start(ctx, "op1", twoPhaseProject())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.State != StateRunning {
		t.Fatalf("expected running, got %s", v.State)
	}
	if v.Session.PhaseIndex != 0 || v.Session.StepIndex != 0 {
		t.Fatalf("expected position (0,0), got (%d,%d)", v.Session.PhaseIndex, v.Session.StepIndex)
	}
	if len(v.Session.Values) != 0 {
		t.Fatal("value map should start empty")
	}
	if v.Step == nil || v.Step.ID != "a" {
		t.Fatalf("expected first step a, got %+v", v.Step)
	}
	if !batchCodePattern.MatchString(v.Session.BatchCode) || !strings.HasPrefix(v.Session.BatchCode, "OAT-") {
		t.Fatalf("unexpected batch code %q", v.Session.BatchCode)
	}
	if v.Progress.Current != 1 || v.Progress.Total != 5 {
		t.Fatalf("unexpected progress %+v", v.Progress)
	}
}

func TestStartWhileRunning(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)

	if _, err := eng.Start(ctx, "op1", twoPhaseProject()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := eng.Start(ctx, "op1", twoPhaseProject()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if _, err := eng.Start(ctx, "op2", twoPhaseProject()); err != nil {
		t.Fatalf("other operators are independent: %v", err)
	}
}

func TestTraversalCoversEveryStepOnce(t *testing.T) {
	eng, _, listener, ctx := setupEngine(t)

	v, err := eng.Start(ctx, "op1", twoPhaseProject())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	id := v.Session.ID

	visited := []string{v.Step.ID}
	for i := 0; i < 4; i++ {
		v = confirmAndNext(t, eng, ctx, "op1", id)
		if v.State != StateRunning {
			t.Fatalf("advance %d: run ended early", i+1)
		}
		visited = append(visited, v.Step.ID)
	}

	want := []string{"a", "b", "c", "d", "e"}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visit order %v, want %v", visited, want)
		}
	}
	if v.Session.PhaseIndex != 1 || v.Session.StepIndex != 1 {
		t.Fatalf("expected final step (1,1), got (%d,%d)", v.Session.PhaseIndex, v.Session.StepIndex)
	}

	v = confirmAndNext(t, eng, ctx, "op1", id)
	if v.State != StateCompleted || v.Record == nil {
		t.Fatalf("expected completed run with record, got %s", v.State)
	}
	if v.Progress.Percent != 100 {
		t.Fatalf("expected 100%% progress, got %d", v.Progress.Percent)
	}
	if len(eng.History()) != 1 || len(listener.runs) != 1 {
		t.Fatal("finalize should append exactly one record and notify once")
	}
}

func TestNextRejectsInvalidStep(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)

	v, _ := eng.Start(ctx, "op1", twoPhaseProject())
	if _, err := eng.Next(ctx, "op1", v.Session.ID); !errors.Is(err, ErrInvalidStepState) {
		t.Fatalf("expected ErrInvalidStepState, got %v", err)
	}
	got, _ := eng.Get(ctx, "op1", v.Session.ID)
	if got.Step.ID != "a" {
		t.Fatal("rejected advance must not move the cursor")
	}
}

func TestWeighingTolerance(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"94.9", true},
		{"95.0", false},
		{"100", false},
		{"105", false},
		{"105.1", true},
		{"", true},
		{"abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			eng, _, _, ctx := setupEngine(t)
			v, err := eng.Start(ctx, "op1", weighingProject(100))
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			id := v.Session.ID

			v, err = eng.EnterWeight(ctx, "op1", id, tt.input)
			if err != nil {
				t.Fatalf("enter weight: %v", err)
			}
			if v.Validation.Range != "95.00g - 105.00g" {
				t.Fatalf("unexpected range %q", v.Validation.Range)
			}

			v, err = eng.Next(ctx, "op1", id)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStepState) {
					t.Fatalf("expected ErrInvalidStepState, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			want, _ := ParseWeight(tt.input)
			if got := v.Record.Values()["auto-step-sugar-0"]; got != want {
				t.Fatalf("recorded %v, want %v", got, want)
			}
		})
	}
}

func TestPerStepToleranceOverride(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	p := &models.Project{
		ID: "proj-t", Name: "Salt",
		Phases: []models.RecipePhase{{ID: "p", Name: "Weigh", Color: models.PhaseColorBlue,
			Steps: []models.RecipeStep{{ID: "s", Type: models.StepTypeWeighing, ExpectedWeight: ptr(100.0), Tolerance: ptr(1.0)}}}},
	}

	v, _ := eng.Start(ctx, "op1", p)
	v, _ = eng.EnterWeight(ctx, "op1", v.Session.ID, "98")
	if v.Validation.Valid || v.Validation.Message != "Outside 1% tolerance" {
		t.Fatalf("unexpected validation %+v", v.Validation)
	}
	v, _ = eng.EnterWeight(ctx, "op1", v.Session.ID, "99.5")
	if !v.Validation.Valid {
		t.Fatalf("99.5 should be within 1%%: %+v", v.Validation)
	}
}

func TestEnterWeightOnProcessStep(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	v, _ := eng.Start(ctx, "op1", twoPhaseProject())
	if _, err := eng.EnterWeight(ctx, "op1", v.Session.ID, "10"); !errors.Is(err, ErrNotWeighingStep) {
		t.Fatalf("expected ErrNotWeighingStep, got %v", err)
	}
	if _, err := eng.Timer(ctx, "op1", v.Session.ID, TimerStart); !errors.Is(err, ErrNotTimerStep) {
		t.Fatalf("expected ErrNotTimerStep, got %v", err)
	}
}

func TestPrevFromFirstStepDiscards(t *testing.T) {
	eng, _, listener, ctx := setupEngine(t)

	v, _ := eng.Start(ctx, "op1", twoPhaseProject())
	id := v.Session.ID

	v, err := eng.Prev(ctx, "op1", id)
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	if v.State != StateSelection {
		t.Fatalf("expected selection, got %s", v.State)
	}
	if len(eng.History()) != 0 || len(listener.runs) != 0 {
		t.Fatal("discarding must not record a run")
	}
	if _, err := eng.Get(ctx, "op1", id); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := eng.Active(ctx, "op1"); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}
}

func TestPrevCrossesPhaseBoundary(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)

	v, _ := eng.Start(ctx, "op1", twoPhaseProject())
	id := v.Session.ID
	for i := 0; i < 3; i++ {
		v = confirmAndNext(t, eng, ctx, "op1", id)
	}
	if v.Step.ID != "d" {
		t.Fatalf("expected step d, got %s", v.Step.ID)
	}

	v, err := eng.Prev(ctx, "op1", id)
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	if v.Step.ID != "c" || v.Session.PhaseIndex != 0 || v.Session.StepIndex != 2 {
		t.Fatalf("expected last step of previous phase, got %s at (%d,%d)", v.Step.ID, v.Session.PhaseIndex, v.Session.StepIndex)
	}
	if v.Validation.Valid {
		t.Fatal("step input should be reset when moving back")
	}
}

func TestEmptyPhasesAreSkipped(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	p := &models.Project{
		ID: "proj-e", Name: "Gaps",
		Phases: []models.RecipePhase{
			{ID: "empty1", Name: "Empty"},
			{ID: "p1", Name: "One", Steps: []models.RecipeStep{processStep("a")}},
			{ID: "empty2", Name: "Empty"},
			{ID: "p2", Name: "Two", Steps: []models.RecipeStep{processStep("b")}},
		},
	}

	v, _ := eng.Start(ctx, "op1", p)
	if v.Step == nil || v.Step.ID != "a" {
		t.Fatalf("expected first step a, got %+v", v.Step)
	}
	v = confirmAndNext(t, eng, ctx, "op1", v.Session.ID)
	if v.Step == nil || v.Step.ID != "b" {
		t.Fatalf("expected step b, got %+v", v.Step)
	}
	v = confirmAndNext(t, eng, ctx, "op1", v.Session.ID)
	if v.State != StateCompleted {
		t.Fatalf("expected completed, got %s", v.State)
	}
}

func TestRecipeWithoutSteps(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)

	v, err := eng.Start(ctx, "op1", &models.Project{ID: "proj-0", Name: "Nothing"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.Step != nil {
		t.Fatal("expected no active step")
	}
	v, err = eng.Next(ctx, "op1", v.Session.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if v.State != StateCompleted {
		t.Fatalf("expected immediate completion, got %s", v.State)
	}
}

func TestFinalizeDuration(t *testing.T) {
	eng, clock, _, ctx := setupEngine(t)

	v, _ := eng.Start(ctx, "op1", &models.Project{
		ID: "proj-d", Name: "Timed",
		Phases: []models.RecipePhase{{ID: "p", Steps: []models.RecipeStep{processStep("a")}}},
	})
	clock.Advance(14*time.Minute + 30*time.Second)

	v = confirmAndNext(t, eng, ctx, "op1", v.Session.ID)
	if v.Record.Duration != "14m 30s" {
		t.Fatalf("expected 14m 30s, got %q", v.Record.Duration)
	}
	if !v.Record.EndTime.Equal(time.Date(2024, 3, 1, 10, 14, 30, 0, time.UTC)) {
		t.Fatalf("unexpected end time %s", v.Record.EndTime)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	eng, clock, _, ctx := setupEngine(t)
	p := &models.Project{ID: "proj-h", Name: "History",
		Phases: []models.RecipePhase{{ID: "p", Steps: []models.RecipeStep{processStep("a")}}}}

	var ids []string
	for i := 0; i < 2; i++ {
		v, err := eng.Start(ctx, "op1", p)
		if err != nil {
			t.Fatalf("start run %d: %v", i+1, err)
		}
		clock.Advance(time.Minute)
		v = confirmAndNext(t, eng, ctx, "op1", v.Session.ID)
		ids = append(ids, v.Record.ID)
	}

	list := eng.History()
	if len(list) != 2 || list[0].ID != ids[1] || list[1].ID != ids[0] {
		t.Fatalf("expected [R2, R1], got %v", list)
	}
}

func TestSnapshotIgnoresProjectEdits(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	p := twoPhaseProject()

	v, _ := eng.Start(ctx, "op1", p)
	p.Phases[0].Steps[1].Label = "edited"
	p.Phases = nil

	v = confirmAndNext(t, eng, ctx, "op1", v.Session.ID)
	if v.Step.ID != "b" || v.Step.Label != "b" {
		t.Fatalf("run should use its snapshot, got %+v", v.Step)
	}
}

func TestOperatorsCannotSeeEachOthersRuns(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	v, _ := eng.Start(ctx, "op1", twoPhaseProject())

	if _, err := eng.Get(ctx, "op2", v.Session.ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := eng.Cancel(ctx, "op2", v.Session.ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	v, _ := eng.Start(ctx, "op1", twoPhaseProject())
	confirmAndNext(t, eng, ctx, "op1", v.Session.ID)

	if err := eng.Cancel(ctx, "op1", v.Session.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(eng.History()) != 0 {
		t.Fatal("cancel must not record a run")
	}
	if _, err := eng.Start(ctx, "op1", twoPhaseProject()); err != nil {
		t.Fatalf("start after cancel: %v", err)
	}
}

func TestRunningListsSessionsInProgress(t *testing.T) {
	eng, clock, _, ctx := setupEngine(t)

	first, _ := eng.Start(ctx, "op1", twoPhaseProject())
	clock.Advance(time.Minute)
	if _, err := eng.Start(ctx, "op2", twoPhaseProject()); err != nil {
		t.Fatal(err)
	}
	done, _ := eng.Start(ctx, "op3", &models.Project{ID: "proj-0", Name: "Nothing"})
	if _, err := eng.Next(ctx, "op3", done.Session.ID); err != nil {
		t.Fatal(err)
	}

	running, err := eng.Running(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(running) != 2 {
		t.Fatalf("expected 2 running sessions, got %d", len(running))
	}
	if running[0].ID != first.Session.ID {
		t.Error("sessions should be ordered by start time")
	}
}

func TestCompletedRunRejectsTransitions(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	v, _ := eng.Start(ctx, "op1", &models.Project{ID: "proj-0", Name: "Nothing"})
	id := v.Session.ID
	if _, err := eng.Next(ctx, "op1", id); err != nil {
		t.Fatalf("next: %v", err)
	}

	if _, err := eng.Next(ctx, "op1", id); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	got, err := eng.Get(ctx, "op1", id)
	if err != nil || got.State != StateCompleted || got.Record == nil {
		t.Fatalf("completed run should stay readable: %v %+v", err, got)
	}

	// starting again clears the finished session
	if _, err := eng.Start(ctx, "op1", twoPhaseProject()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := eng.Get(ctx, "op1", id); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected finished session to be cleared, got %v", err)
	}
}

func TestTimerStep(t *testing.T) {
	eng, clock, listener, ctx := setupEngine(t)
	p := timerProject(2)

	v, _ := eng.Start(ctx, "op1", p)
	id := v.Session.ID
	if v.Session.Input.Timer == nil || v.Session.Input.Timer.Running {
		t.Fatal("countdown should be seeded and paused")
	}

	clock.Advance(5 * time.Second)
	eng.Tick(ctx)
	if _, err := eng.Next(ctx, "op1", id); !errors.Is(err, ErrInvalidStepState) {
		t.Fatalf("expected ErrInvalidStepState, got %v", err)
	}

	if _, err := eng.Timer(ctx, "op1", id, TimerStart); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	clock.Advance(time.Second)
	eng.Tick(ctx)
	got, _ := eng.Get(ctx, "op1", id)
	if r := got.Session.Input.Timer.Remaining; r != 1 {
		t.Fatalf("expected 1s remaining, got %d", r)
	}
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		eng.Tick(ctx)
	}
	if listener.timerCount() != 1 {
		t.Fatalf("expected exactly one completion, got %d", listener.timerCount())
	}

	v, err := eng.Next(ctx, "op1", id)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if v.State != StateCompleted {
		t.Fatalf("expected completed, got %s", v.State)
	}
}

func TestTimerAcknowledge(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	p := timerProject(600)

	v, _ := eng.Start(ctx, "op1", p)
	if _, err := eng.Timer(ctx, "op1", v.Session.ID, "rewind"); !errors.Is(err, ErrInvalidTimerAction) {
		t.Fatalf("expected ErrInvalidTimerAction, got %v", err)
	}
	v = confirmAndNext(t, eng, ctx, "op1", v.Session.ID)
	if v.State != StateCompleted {
		t.Fatal("acknowledged timer should allow advancing")
	}
}

func TestTimerPauseKeepsRemainingTime(t *testing.T) {
	eng, clock, listener, ctx := setupEngine(t)
	v, _ := eng.Start(ctx, "op1", timerProject(10))
	id := v.Session.ID

	if _, err := eng.Timer(ctx, "op1", id, TimerStart); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	clock.Advance(4 * time.Second)
	v, err := eng.Timer(ctx, "op1", id, TimerPause)
	if err != nil {
		t.Fatalf("pause timer: %v", err)
	}
	if tm := v.Session.Input.Timer; tm.Running || tm.Remaining != 6 {
		t.Fatalf("expected paused at 6s, got %+v", tm)
	}

	clock.Advance(time.Hour)
	eng.Tick(ctx)
	if listener.timerCount() != 0 {
		t.Fatal("paused timer must not fire")
	}

	if _, err := eng.Timer(ctx, "op1", id, TimerStart); err != nil {
		t.Fatalf("resume timer: %v", err)
	}
	clock.Advance(6 * time.Second)
	eng.Tick(ctx)
	if listener.timerCount() != 1 {
		t.Fatalf("expected completion after the remaining 6s, got %d", listener.timerCount())
	}
}

func TestStartRejectsDuplicateStepIDs(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	p := twoPhaseProject()
	p.Phases[1].Steps[0].ID = "a"

	if _, err := eng.Start(ctx, "op1", p); !errors.Is(err, recipe.ErrDuplicateStepID) {
		t.Fatalf("expected ErrDuplicateStepID, got %v", err)
	}
	if _, err := eng.Active(ctx, "op1"); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("rejected start must not leave a session, got %v", err)
	}
}
