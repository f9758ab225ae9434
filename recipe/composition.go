package recipe

import (
	"math"

	"github.com/formulab-api/models"
)

// IngredientShare is an ingredient's share of the batch by weight and cost
type IngredientShare struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Weight     float64  `json:"weight"`
	Percentage float64  `json:"percentage"`
	Cost       *float64 `json:"cost,omitempty"`
}

// VersionDelta is the weight change of one ingredient against the previous version
type VersionDelta struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PreviousWeight float64 `json:"previousWeight"`
	CurrentWeight  float64 `json:"currentWeight"`
	Delta          float64 `json:"delta"`
	Added          bool    `json:"added,omitempty"`
	Removed        bool    `json:"removed,omitempty"`
}

// Composition summarises a project's ingredient list
type Composition struct {
	TotalWeight float64           `json:"totalWeight"`
	TotalCost   float64           `json:"totalCost"`
	Ingredients []IngredientShare `json:"ingredients"`
	Changes     []VersionDelta    `json:"changes,omitempty"`
}

// Compose computes percentages of total weight, batch cost from costPerKg
// and the per-ingredient change against previousVersionIngredients
func Compose(project *models.Project) Composition {
	var c Composition
	for _, ing := range project.Ingredients {
		c.TotalWeight += ing.Weight
	}

	c.Ingredients = make([]IngredientShare, 0, len(project.Ingredients))
	for _, ing := range project.Ingredients {
		share := IngredientShare{ID: ing.ID, Name: ing.Name, Weight: ing.Weight}
		if c.TotalWeight > 0 {
			share.Percentage = round2(ing.Weight / c.TotalWeight * 100)
		}
		if ing.CostPerKg != nil {
			cost := round2(ing.Weight / 1000 * *ing.CostPerKg)
			share.Cost = &cost
			c.TotalCost += cost
		}
		c.Ingredients = append(c.Ingredients, share)
	}
	c.TotalCost = round2(c.TotalCost)

	if len(project.PreviousVersionIngredients) > 0 {
		c.Changes = compareVersions(project.PreviousVersionIngredients, project.Ingredients)
	}
	return c
}

func compareVersions(previous, current []models.Ingredient) []VersionDelta {
	prevByID := make(map[string]models.Ingredient, len(previous))
	for _, ing := range previous {
		prevByID[ing.ID] = ing
	}

	out := make([]VersionDelta, 0, len(current))
	seen := make(map[string]bool, len(current))
	for _, ing := range current {
		seen[ing.ID] = true
		d := VersionDelta{ID: ing.ID, Name: ing.Name, CurrentWeight: ing.Weight}
		if prev, ok := prevByID[ing.ID]; ok {
			d.PreviousWeight = prev.Weight
		} else {
			d.Added = true
		}
		d.Delta = round2(d.CurrentWeight - d.PreviousWeight)
		out = append(out, d)
	}
	for _, prev := range previous {
		if seen[prev.ID] {
			continue
		}
		out = append(out, VersionDelta{
			ID:             prev.ID,
			Name:           prev.Name,
			PreviousWeight: prev.Weight,
			Delta:          round2(-prev.Weight),
			Removed:        true,
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
