package domain

import "strings"

const (
	SurfaceHard       = "hard"
	SurfaceClay       = "clay"
	SurfaceGrass      = "grass"
	SurfaceIndoorHard = "indoor_hard"
)

// Surfaces returns the canonical surface labels in display order.
func Surfaces() []string {
	return []string{SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceIndoorHard}
}

// NormalizeName trims a player name and collapses internal whitespace runs to
// single spaces. Case is preserved.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// NormalizeSurface maps a raw surface label to its canonical form. Carpet and
// "indoor hard" count as indoor_hard. Anything unrecognized, including the
// empty string, falls back to hard — downstream ratings depend on this
// fallback, so unknown labels are absorbed rather than rejected.
func NormalizeSurface(raw string) string {
	surface := strings.ToLower(strings.TrimSpace(raw))
	switch surface {
	case "carpet", "indoor hard":
		return SurfaceIndoorHard
	case SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceIndoorHard:
		return surface
	default:
		return SurfaceHard
	}
}
