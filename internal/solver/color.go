package solver

import colorful "github.com/lucasb-eyer/go-colorful"

var (
	colorGreen, _  = colorful.Hex("#22c55e")
	colorYellow, _ = colorful.Hex("#eab308")
	colorRed, _    = colorful.Hex("#ef4444")
)

// BalanceColor maps a balance ratio onto the green/yellow/red feedback
// ramp: pure green above 0.9, green-yellow blend down to 0.5, then
// yellow-red blend to 0.
func BalanceColor(ratio float64) string {
	switch {
	case ratio > 0.9:
		return colorGreen.Hex()
	case ratio > 0.5:
		t := (ratio - 0.5) / 0.4
		return colorYellow.BlendRgb(colorGreen, t).Hex()
	default:
		if ratio < 0 {
			ratio = 0
		}
		t := ratio / 0.5
		return colorRed.BlendRgb(colorYellow, t).Hex()
	}
}
