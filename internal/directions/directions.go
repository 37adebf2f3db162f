// Package directions turns a leg's maneuver steps into display-ready turn-by-turn
// instructions. Everything here is pure: the same steps always give the same output.
package directions

import (
	"fmt"
	"math"
	"strings"

	"github.com/digitaladdress/locator/internal/routing"
)

// Fixed sentences.
const (
	TextArrive       = "Arrive at your destination"
	TextStartJourney = "Start your journey"
)

// Instruction is one display-ready direction.
type Instruction struct {
	Text            string               `json:"text"`
	Icon            IconTag              `json:"icon"`
	DistanceDisplay string               `json:"distanceDisplay"`
	DistanceMeters  float64              `json:"distanceMeters"`
	Maneuver        routing.ManeuverType `json:"maneuver"`
}

// Synthesize converts ordered steps into instructions of the same length and order.
func Synthesize(steps []routing.Step) []Instruction {
	out := make([]Instruction, 0, len(steps))
	for i, step := range steps {
		out = append(out, Instruction{
			Text:            instructionText(step, i, len(steps)),
			Icon:            IconFor(step.Maneuver),
			DistanceDisplay: FormatDistance(step.DistanceMeters),
			DistanceMeters:  step.DistanceMeters,
			Maneuver:        step.Maneuver,
		})
	}
	return out
}

// instructionText applies the per-index rules. The last index is checked first so a
// single-step leg reads as an arrival.
func instructionText(step routing.Step, i, n int) string {
	clause := roadClause(step.RoadName)

	switch {
	case i == n-1:
		return TextArrive
	case i == 0:
		if clause == "" {
			return TextStartJourney
		}
		return sentence("Start", clause)
	}

	direction := DirectionPhrase(step.Modifier)

	switch step.Maneuver {
	case routing.ManeuverTurn:
		return sentence("Turn", direction, clause)
	case routing.ManeuverRoundabout, routing.ManeuverRoundaboutTurn:
		return sentence("Enter roundabout", clause)
	case routing.ManeuverExitRoundabout:
		return sentence("Exit roundabout", clause)
	case routing.ManeuverMerge:
		return sentence("Merge", direction, clause)
	case routing.ManeuverFork:
		return sentence("Keep", direction, clause)
	default:
		if clause == "" {
			return "Continue ahead"
		}
		return sentence("Continue", clause)
	}
}

func roadClause(road string) string {
	road = strings.TrimSpace(road)
	if road == "" {
		return ""
	}
	return "onto " + road
}

// sentence joins the non-empty parts with single spaces.
func sentence(parts ...string) string {
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return strings.Join(words, " ")
}

// DirectionPhrase renders a modifier for display. Unknown modifiers pass through unchanged
// and an absent modifier renders as the empty string.
func DirectionPhrase(m routing.Modifier) string {
	switch m {
	case routing.ModifierNone:
		return ""
	case routing.ModifierLeft:
		return "left"
	case routing.ModifierRight:
		return "right"
	case routing.ModifierStraight:
		return "straight"
	case routing.ModifierSlightLeft:
		return "slightly left"
	case routing.ModifierSlightRight:
		return "slightly right"
	case routing.ModifierSharpLeft:
		return "sharp left"
	case routing.ModifierSharpRight:
		return "sharp right"
	default:
		return string(m)
	}
}

// FormatDistance renders meters as "X.Y km" from 1000 m upward, whole meters below.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int(math.Round(meters)))
}

// FormatDuration renders seconds as "N min" below an hour and "Hh Mmin" from an hour up.
// Partial minutes round up so a short trip never shows "0 min".
func FormatDuration(seconds float64) string {
	minutes := int(math.Ceil(seconds / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
}
