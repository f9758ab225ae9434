package recipe

import (
	"testing"

	"github.com/formulab-api/models"
)

func TestCompose(t *testing.T) {
	p := &models.Project{
		Ingredients: []models.Ingredient{
			{ID: "i1", Name: "Water", Weight: 750, CostPerKg: float(0.04)},
			{ID: "i2", Name: "Oats", Weight: 250, CostPerKg: float(2)},
		},
		PreviousVersionIngredients: []models.Ingredient{
			{ID: "i1", Name: "Water", Weight: 800},
			{ID: "i9", Name: "Sugar", Weight: 10},
		},
	}

	c := Compose(p)
	if c.TotalWeight != 1000 {
		t.Fatalf("expected total 1000, got %v", c.TotalWeight)
	}
	if c.Ingredients[0].Percentage != 75 || c.Ingredients[1].Percentage != 25 {
		t.Fatalf("unexpected percentages: %+v", c.Ingredients)
	}
	if c.TotalCost != 0.53 {
		t.Fatalf("expected cost 0.53, got %v", c.TotalCost)
	}

	if len(c.Changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(c.Changes))
	}
	if c.Changes[0].Delta != -50 {
		t.Errorf("water delta: expected -50, got %v", c.Changes[0].Delta)
	}
	if !c.Changes[1].Added || c.Changes[1].Delta != 250 {
		t.Errorf("oats should be added: %+v", c.Changes[1])
	}
	if !c.Changes[2].Removed || c.Changes[2].Delta != -10 {
		t.Errorf("sugar should be removed: %+v", c.Changes[2])
	}
}

func TestComposeEmpty(t *testing.T) {
	c := Compose(&models.Project{})
	if c.TotalWeight != 0 || len(c.Ingredients) != 0 || c.Changes != nil {
		t.Fatalf("unexpected composition: %+v", c)
	}
}
