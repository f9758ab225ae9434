package recipe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/formulab-api/models"
)

func newTestDraft(t *testing.T) *Draft {
	t.Helper()
	d := NewDraft(sampleProject())
	n := 0
	d.newID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	return d
}

func TestDraftDoesNotAliasProject(t *testing.T) {
	p := sampleProject()
	p.Phases = NormalizePhases(p)
	d := NewDraft(p)

	if err := d.RenamePhase(DefaultPhaseID, "Changed"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if p.Phases[0].Name != DefaultPhaseName {
		t.Fatal("editing the draft mutated the project")
	}
}

func TestAddPhaseDefaults(t *testing.T) {
	d := newTestDraft(t)
	ph := d.AddPhase()

	if ph.Name != "New Phase" || ph.Color != models.PhaseColorSlate || len(ph.Steps) != 0 {
		t.Fatalf("unexpected new phase: %+v", ph)
	}
	phases := d.Phases()
	if len(phases) != 2 || phases[1].ID != ph.ID {
		t.Fatalf("new phase not appended: %+v", phases)
	}
}

func TestAddStepDefaults(t *testing.T) {
	d := newTestDraft(t)
	ph := d.AddPhase()

	tests := []struct {
		stepType models.StepType
		check    func(models.RecipeStep) error
	}{
		{models.StepTypeWeighing, func(s models.RecipeStep) error {
			if s.ExpectedWeight == nil || *s.ExpectedWeight != 0 {
				return errors.New("expected weight should default to 0")
			}
			return nil
		}},
		{models.StepTypeTimer, func(s models.RecipeStep) error {
			if s.Duration() != 60 {
				return fmt.Errorf("expected 60s duration, got %d", s.Duration())
			}
			return nil
		}},
		{models.StepTypeProcess, func(s models.RecipeStep) error {
			if s.Notes != "" {
				return errors.New("process notes should be empty")
			}
			return nil
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.stepType), func(t *testing.T) {
			s, err := d.AddStep(ph.ID, tt.stepType)
			if err != nil {
				t.Fatalf("add step: %v", err)
			}
			if s.Type != tt.stepType {
				t.Fatalf("expected type %s, got %s", tt.stepType, s.Type)
			}
			if err := tt.check(s); err != nil {
				t.Fatal(err)
			}
		})
	}

	if got := len(d.Phases()[1].Steps); got != 3 {
		t.Fatalf("expected 3 steps, got %d", got)
	}

	if _, err := d.AddStep(ph.ID, "mixing"); !errors.Is(err, ErrInvalidStepType) {
		t.Fatalf("expected ErrInvalidStepType, got %v", err)
	}
	if _, err := d.AddStep("missing", models.StepTypeTimer); !errors.Is(err, ErrPhaseNotFound) {
		t.Fatalf("expected ErrPhaseNotFound, got %v", err)
	}
}

func TestUpdateStepMergesOnlyGivenFields(t *testing.T) {
	d := newTestDraft(t)
	stepID := d.Phases()[0].Steps[0].ID

	label := "Add filtered water"
	tol := 2.0
	s, err := d.UpdateStep(DefaultPhaseID, stepID, StepPatch{Label: &label, Tolerance: &tol})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Label != label || s.Tolerance == nil || *s.Tolerance != 2 {
		t.Fatalf("patch not applied: %+v", s)
	}
	if s.TargetWeight() != 850 || s.IngredientID != "i1" {
		t.Fatalf("untouched fields changed: %+v", s)
	}

	neg := -1.0
	if _, err := d.UpdateStep(DefaultPhaseID, stepID, StepPatch{ExpectedWeight: &neg}); !errors.Is(err, ErrInvalidStepValue) {
		t.Fatalf("expected ErrInvalidStepValue, got %v", err)
	}
	if _, err := d.UpdateStep(DefaultPhaseID, "nope", StepPatch{Label: &label}); !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("expected ErrStepNotFound, got %v", err)
	}
}

func TestDeletePhaseAndStep(t *testing.T) {
	d := newTestDraft(t)
	stepID := d.Phases()[0].Steps[1].ID

	if err := d.DeleteStep(DefaultPhaseID, stepID); err != nil {
		t.Fatalf("delete step: %v", err)
	}
	steps := d.Phases()[0].Steps
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps left, got %d", len(steps))
	}
	for _, s := range steps {
		if s.ID == stepID {
			t.Fatal("deleted step still present")
		}
	}

	if err := d.DeletePhase(DefaultPhaseID); err != nil {
		t.Fatalf("delete phase: %v", err)
	}
	if len(d.Phases()) != 0 {
		t.Fatal("phase not deleted")
	}
	if err := d.DeletePhase(DefaultPhaseID); !errors.Is(err, ErrPhaseNotFound) {
		t.Fatalf("expected ErrPhaseNotFound, got %v", err)
	}
}

func TestRecolorPhase(t *testing.T) {
	d := newTestDraft(t)
	if err := d.RecolorPhase(DefaultPhaseID, models.PhaseColorRose); err != nil {
		t.Fatalf("recolor: %v", err)
	}
	if d.Phases()[0].Color != models.PhaseColorRose {
		t.Fatal("color not applied")
	}
	if err := d.RecolorPhase(DefaultPhaseID, "teal"); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
}

func TestReorderSteps(t *testing.T) {
	d := newTestDraft(t)
	steps := d.Phases()[0].Steps
	a, b, c := steps[0].ID, steps[1].ID, steps[2].ID

	if err := d.ReorderSteps(DefaultPhaseID, []string{c, a, b}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := d.Phases()[0].Steps
	if got[0].ID != c || got[1].ID != a || got[2].ID != b {
		t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}

	bad := [][]string{
		{a, b},          // deletion
		{a, b, c, "x"},  // insertion
		{a, a, b},       // duplicate
		{a, b, "other"}, // substitution
	}
	for _, ids := range bad {
		if err := d.ReorderSteps(DefaultPhaseID, ids); !errors.Is(err, ErrInvalidReorder) {
			t.Fatalf("reorder %v: expected ErrInvalidReorder, got %v", ids, err)
		}
	}
	got = d.Phases()[0].Steps
	if got[0].ID != c || got[1].ID != a || got[2].ID != b {
		t.Fatal("rejected reorder modified the draft")
	}
}

func TestDraftStore(t *testing.T) {
	s := NewDraftStore()
	created := 0
	create := func() *Draft {
		created++
		return NewDraft(sampleProject())
	}

	d1 := s.Open("u1", "p1", create)
	d2 := s.Open("u1", "p1", create)
	if d1 != d2 || created != 1 {
		t.Fatal("reopening should return the existing draft")
	}
	s.Open("u2", "p1", create)
	if created != 2 {
		t.Fatal("drafts should be per user")
	}

	if err := s.Update("u3", "p1", func(*Draft) error { return nil }); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if !s.Discard("u1", "p1") || s.Discard("u1", "p1") {
		t.Fatal("discard should succeed exactly once")
	}
	s.DiscardProject("p1")
	if err := s.Update("u2", "p1", func(*Draft) error { return nil }); !errors.Is(err, ErrDraftNotFound) {
		t.Fatal("DiscardProject should drop every user's draft")
	}
}
