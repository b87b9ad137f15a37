package service

import (
	"context"
	"strings"
)

// highValueNames are finishes whose price is unusually float-sensitive.
// Low floats on these command a much larger premium than on ordinary
// skins.
var highValueNames = []string{
	"Dragon Lore",
	"Howl",
	"Fire Serpent",
	"Medusa",
	"Gungnir",
	"Prince",
	"Wild Lotus",
	"Fade",
	"Doppler",
	"Crimson Web",
}

func isHighValueName(marketHashName string) bool {
	for _, n := range highValueNames {
		if strings.Contains(marketHashName, n) {
			return true
		}
	}
	return false
}

// wearMultiplier adjusts a base market price for an item's actual
// float. Inside Factory New lower floats are worth strictly more, with
// a steeper curve for float-sensitive finishes. Worn bands trade at a
// small discount against the band's listed price.
func wearMultiplier(float float64, highValue bool) float64 {
	switch {
	case float < 0.07: // Factory New
		if highValue {
			switch {
			case float < 0.01:
				return 1.30
			case float < 0.02:
				return 1.18
			case float < 0.04:
				return 1.08
			default:
				return 1.02
			}
		}
		switch {
		case float < 0.01:
			return 1.10
		case float < 0.02:
			return 1.06
		case float < 0.04:
			return 1.03
		default:
			return 1.00
		}
	case float < 0.15: // Minimal Wear
		return 1.00
	case float < 0.38: // Field-Tested
		return 1.00
	case float < 0.45: // Well-Worn
		if highValue {
			return 0.95
		}
		return 0.97
	default: // Battle-Scarred
		if highValue {
			return 0.90
		}
		return 0.95
	}
}

// ExteriorFloatProvider derives a representative float from the wear
// band encoded in the market hash name. It is the default provider
// when no per-asset float source is wired.
type ExteriorFloatProvider struct{}

var _ FloatProvider = ExteriorFloatProvider{}

func (ExteriorFloatProvider) FloatValue(_ context.Context, _, marketHashName string) (float64, bool) {
	switch {
	case strings.Contains(marketHashName, "Factory New"):
		return 0.03, true
	case strings.Contains(marketHashName, "Minimal Wear"):
		return 0.11, true
	case strings.Contains(marketHashName, "Field-Tested"):
		return 0.25, true
	case strings.Contains(marketHashName, "Well-Worn"):
		return 0.41, true
	case strings.Contains(marketHashName, "Battle-Scarred"):
		return 0.60, true
	}
	return 0, false
}
