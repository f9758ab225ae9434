// Package recipe holds the formulation model rules: deriving the executable
// phase list of a project, editing drafts of it, and ingredient composition.
package recipe

import (
	"fmt"

	"github.com/formulab-api/models"
)

const (
	DefaultPhaseID    = "auto-phase-1"
	DefaultPhaseName  = "Weighing & Preparation"
	DefaultPhaseColor = models.PhaseColorBlue
	defaultStepNotes  = "Standard ingredient addition"
)

// NormalizePhases returns the phase list to author or execute for a project.
// Authored phases are returned as-is. Without them a single weighing phase is
// derived from the ingredient list; the derivation is recomputed on every
// call and uses deterministic ids, so repeated calls yield equal results.
func NormalizePhases(project *models.Project) []models.RecipePhase {
	if len(project.Phases) > 0 {
		return project.Phases
	}

	steps := make([]models.RecipeStep, 0, len(project.Ingredients))
	for idx, ing := range project.Ingredients {
		expected := ing.Weight
		actual := 0.0
		steps = append(steps, models.RecipeStep{
			ID:             fmt.Sprintf("auto-step-%s-%d", ing.ID, idx),
			Type:           models.StepTypeWeighing,
			Label:          "Add " + ing.Name,
			Notes:          defaultStepNotes,
			IsCompleted:    false,
			IngredientID:   ing.ID,
			ExpectedWeight: &expected,
			ActualWeight:   &actual,
		})
	}

	return []models.RecipePhase{{
		ID:    DefaultPhaseID,
		Name:  DefaultPhaseName,
		Color: DefaultPhaseColor,
		Steps: steps,
	}}
}

// CountSteps returns the total number of steps across phases
func CountSteps(phases []models.RecipePhase) int {
	n := 0
	for _, p := range phases {
		n += len(p.Steps)
	}
	return n
}

// CheckStepIDs rejects a phase list in which a step id occurs twice, in the
// same phase or across phases. Run values are keyed by step id alone.
func CheckStepIDs(phases []models.RecipePhase) error {
	seen := make(map[string]string, CountSteps(phases))
	for _, p := range phases {
		for _, st := range p.Steps {
			if first, dup := seen[st.ID]; dup {
				return fmt.Errorf("%w: %q in phases %s and %s", ErrDuplicateStepID, st.ID, first, p.ID)
			}
			seen[st.ID] = p.ID
		}
	}
	return nil
}
