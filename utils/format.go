package utils

import (
	"fmt"

	"github.com/formulab-api/config"
)

const gramsPerOunce = 28.349523125

// MassFormatter returns a formatter for masses given in grams, in the
// configured unit system
func MassFormatter(units config.Units) func(grams float64) string {
	if units == config.UnitsImperial {
		return func(grams float64) string {
			return fmt.Sprintf("%.2foz", grams/gramsPerOunce)
		}
	}
	return func(grams float64) string {
		return fmt.Sprintf("%.2fg", grams)
	}
}

// FormatMassKg renders a mass given in kilograms, e.g. "1.20kg" or "2.65lbs"
func FormatMassKg(kg float64, units config.Units) string {
	if units == config.UnitsImperial {
		return fmt.Sprintf("%.2flbs", kg*1000/gramsPerOunce/16)
	}
	return fmt.Sprintf("%.2fkg", kg)
}

// FormatTemp renders a temperature given in Celsius
func FormatTemp(celsius float64, units config.Units) string {
	if units == config.UnitsImperial {
		return fmt.Sprintf("%.0f°F", celsius*9/5+32)
	}
	return fmt.Sprintf("%.0f°C", celsius)
}
