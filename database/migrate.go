package database

import (
	"errors"
	"fmt"

	"github.com/formulab-api/models"
	"github.com/formulab-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table owned by the service
func Models() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.RunRecord{},
	}
}

// Migrate migrates the database schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedDemoData inserts the demo projects. Projects whose name already exists
// are skipped, so running it twice is harmless. Returns the number inserted.
func SeedDemoData(db *gorm.DB, log *zap.Logger) (int, error) {
	inserted := 0
	for _, project := range DemoProjects() {
		var existing models.Project
		err := db.Where("name = ?", project.Name).First(&existing).Error
		if err == nil {
			log.Debug("demo project already present", zap.String("name", project.Name))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, fmt.Errorf("checking demo project %q: %w", project.Name, err)
		}

		if err := db.Create(&project).Error; err != nil {
			return inserted, fmt.Errorf("failed to seed project %q: %w", project.Name, err)
		}
		inserted++
	}

	log.Info("demo data seeded", zap.Int("inserted", inserted))
	return inserted, nil
}

// DemoProjects returns the demo formulation projects
func DemoProjects() []models.Project {
	return []models.Project{
		{
			Name:             "Oat Milk Barista Blend",
			Version:          "3.1",
			Status:           models.ProjectStatusTesting,
			Lead:             "S. Chen",
			Progress:         65,
			Description:      "High stability foam formulation for coffee applications.",
			Category:         "Dairy Alternatives",
			ProcessingMethod: "High-Shear Mixing / UHT",
			ProcessingTemp:   utils.Float64Ptr(135),
			ProcessingTime:   "4 sec (UHT)",
			TargetTexture:    "Silky, Micro-foam capable",
			RecentLabResults: []models.LabTestResult{
				{Parameter: "Foam Stability", Value: "4 mins", Status: "pass"},
				{Parameter: "pH", Value: "7.2", Status: "pass"},
				{Parameter: "Separation", Value: "None observed", Status: "pass"},
			},
			Ingredients: []models.Ingredient{
				{ID: "i1", Name: "Water", Weight: 850, CostPerKg: utils.Float64Ptr(0.05)},
				{ID: "i2", Name: "Rolled Oats", Weight: 120, CostPerKg: utils.Float64Ptr(1.2)},
				{ID: "i3", Name: "Rapeseed Oil", Weight: 25, CostPerKg: utils.Float64Ptr(2.5)},
				{ID: "i4", Name: "Dipotassium Phosphate", Weight: 3.5, CostPerKg: utils.Float64Ptr(15)},
				{ID: "i5", Name: "Calcium Carbonate", Weight: 1.5, CostPerKg: utils.Float64Ptr(8)},
			},
			PreviousVersionIngredients: []models.Ingredient{
				{ID: "i1", Name: "Water", Weight: 860},
				{ID: "i2", Name: "Rolled Oats", Weight: 110},
				{ID: "i3", Name: "Rapeseed Oil", Weight: 25},
				{ID: "i4", Name: "Dipotassium Phosphate", Weight: 3},
				{ID: "i5", Name: "Calcium Carbonate", Weight: 2},
			},
			Phases: []models.RecipePhase{
				{
					ID: "phase-hydration", Name: "Hydration", Color: models.PhaseColorBlue,
					Steps: []models.RecipeStep{
						{ID: "s1", Type: models.StepTypeWeighing, Label: "Add Water", IngredientID: "i1", ExpectedWeight: utils.Float64Ptr(850)},
						{ID: "s2", Type: models.StepTypeWeighing, Label: "Add Rolled Oats", IngredientID: "i2", ExpectedWeight: utils.Float64Ptr(120)},
						{ID: "s3", Type: models.StepTypeTimer, Label: "Soak", DurationSeconds: utils.IntPtr(600)},
					},
				},
				{
					ID: "phase-emulsion", Name: "Emulsification", Color: models.PhaseColorOrange,
					Steps: []models.RecipeStep{
						{ID: "s4", Type: models.StepTypeWeighing, Label: "Add Rapeseed Oil", IngredientID: "i3", ExpectedWeight: utils.Float64Ptr(25)},
						{ID: "s5", Type: models.StepTypeWeighing, Label: "Add Dipotassium Phosphate", IngredientID: "i4", ExpectedWeight: utils.Float64Ptr(3.5), Tolerance: utils.Float64Ptr(2)},
						{ID: "s6", Type: models.StepTypeWeighing, Label: "Add Calcium Carbonate", IngredientID: "i5", ExpectedWeight: utils.Float64Ptr(1.5), Tolerance: utils.Float64Ptr(2)},
						{ID: "s7", Type: models.StepTypeProcess, Label: "High-shear mix", Notes: "Until fully emulsified", ProcessTemp: utils.Float64Ptr(60), ProcessSpeed: "8000 rpm"},
					},
				},
			},
		},
		{
			Name:             "Spicy Sriracha Alt-Meat",
			Version:          "1.0",
			Status:           models.ProjectStatusPrototype,
			Lead:             "M. Rossi",
			Progress:         25,
			Description:      "Spicy texturized vegetable protein patty.",
			Category:         "Alternative Proteins",
			ProcessingMethod: "Extrusion",
			ProcessingTemp:   utils.Float64Ptr(160),
			ProcessingTime:   "45 mins",
			TargetTexture:    "Fibrous, chewy bite",
			RecentLabResults: []models.LabTestResult{
				{Parameter: "Texture Profile Analysis", Value: "Too soft", Status: "fail"},
				{Parameter: "Moisture", Value: "62%", Status: "pass"},
			},
			Ingredients: []models.Ingredient{
				{ID: "i1", Name: "TVP (Soy)", Weight: 400},
				{ID: "i2", Name: "Water", Weight: 500},
				{ID: "i3", Name: "Methylcellulose", Weight: 15},
				{ID: "i4", Name: "Sriracha Powder", Weight: 20},
			},
		},
		{
			Name:             "Gluten-Free Brioche",
			Version:          "5.2",
			Status:           models.ProjectStatusApproved,
			Lead:             "J. Doe",
			Progress:         100,
			Description:      "Rice flour based brioche with xanthan gum.",
			Category:         "Bakery",
			ProcessingMethod: "Baking",
			ProcessingTemp:   utils.Float64Ptr(190),
			ProcessingTime:   "25 mins",
			TargetTexture:    "Airy, soft crumb",
			RecentLabResults: []models.LabTestResult{
				{Parameter: "Specific Volume", Value: "4.5 mL/g", Status: "pass"},
				{Parameter: "Crumb Firmness", Value: "Soft", Status: "pass"},
			},
			Ingredients: []models.Ingredient{
				{ID: "i1", Name: "Rice Flour", Weight: 500},
				{ID: "i2", Name: "Potato Starch", Weight: 150},
				{ID: "i3", Name: "Eggs", Weight: 200},
				{ID: "i4", Name: "Butter", Weight: 150},
			},
		},
		{
			Name:             "Low-Sugar Granola",
			Version:          "2.0",
			Status:           models.ProjectStatusTesting,
			Lead:             "K. Larson",
			Progress:         80,
			Description:      "Keto-friendly granola with monkfruit sweetener.",
			Category:         "Snack Innovation",
			ProcessingMethod: "Baking / Dehydration",
			ProcessingTemp:   utils.Float64Ptr(150),
			ProcessingTime:   "30 mins",
			TargetTexture:    "Crunchy, non-sticky",
			RecentLabResults: []models.LabTestResult{
				{Parameter: "Water Activity", Value: "0.3 aw", Status: "pass"},
				{Parameter: "Sugar Content", Value: "2g/100g", Status: "pass"},
			},
			Ingredients: []models.Ingredient{
				{ID: "i1", Name: "Almonds", Weight: 300},
				{ID: "i2", Name: "Coconut Flakes", Weight: 200},
				{ID: "i3", Name: "Pumpkin Seeds", Weight: 150},
				{ID: "i4", Name: "Monkfruit Extract", Weight: 5},
			},
		},
	}
}
