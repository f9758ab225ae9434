package database

import (
	"testing"

	"github.com/formulab-api/models"
	"github.com/formulab-api/recipe"
)

func TestDemoProjectsAreRunnable(t *testing.T) {
	names := make(map[string]bool)
	for _, p := range DemoProjects() {
		if names[p.Name] {
			t.Fatalf("duplicate demo project %q", p.Name)
		}
		names[p.Name] = true

		if !p.Status.IsValid() {
			t.Errorf("%s: invalid status %q", p.Name, p.Status)
		}

		ingredients := make(map[string]bool)
		for _, ing := range p.Ingredients {
			ingredients[ing.ID] = true
		}

		phases := recipe.NormalizePhases(&p)
		if recipe.CountSteps(phases) == 0 {
			t.Errorf("%s: no executable steps", p.Name)
		}
		for _, ph := range phases {
			if !ph.Color.IsValid() {
				t.Errorf("%s: phase %s has invalid color", p.Name, ph.ID)
			}
			for _, s := range ph.Steps {
				if !s.Type.IsValid() {
					t.Errorf("%s: step %s has invalid type", p.Name, s.ID)
				}
				if s.Type == models.StepTypeWeighing && s.IngredientID != "" && !ingredients[s.IngredientID] {
					t.Errorf("%s: step %s links unknown ingredient %s", p.Name, s.ID, s.IngredientID)
				}
			}
		}
	}
}
