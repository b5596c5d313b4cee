package display

import (
	"github.com/fatih/color"

	"github.com/harrison/microassess/internal/models"
)

// RiskColor maps a risk band to its display colour: green Low, yellow
// Moderate, red Significant, bold red High.
func RiskColor(r models.RiskBand) *color.Color {
	switch r {
	case models.RiskLow:
		return color.New(color.FgGreen)
	case models.RiskModerate:
		return color.New(color.FgYellow)
	case models.RiskSignificant:
		return color.New(color.FgRed)
	case models.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}

// Risk renders a band name, coloured when colour output is on.
func Risk(r models.RiskBand) string {
	return RiskColor(r).Sprint(r.String())
}
