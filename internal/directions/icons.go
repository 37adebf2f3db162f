package directions

import "github.com/digitaladdress/locator/internal/routing"

// IconTag names the glyph a client shows next to an instruction.
type IconTag string

// Icon vocabulary.
const (
	IconDepart         IconTag = "depart"
	IconArrive         IconTag = "arrive"
	IconTurn           IconTag = "turn"
	IconContinue       IconTag = "continue"
	IconMerge          IconTag = "merge"
	IconOnRamp         IconTag = "on-ramp"
	IconOffRamp        IconTag = "off-ramp"
	IconFork           IconTag = "fork"
	IconEndOfRoad      IconTag = "end-of-road"
	IconRoundabout     IconTag = "roundabout"
	IconExitRoundabout IconTag = "exit-roundabout"
	IconNotification   IconTag = "notification"
)

var glyphs = map[IconTag]string{
	IconDepart:         "🚩",
	IconArrive:         "🏁",
	IconTurn:           "↩",
	IconContinue:       "➡",
	IconMerge:          "⤵",
	IconOnRamp:         "⬆",
	IconOffRamp:        "⬇",
	IconFork:           "⑂",
	IconEndOfRoad:      "⛔",
	IconRoundabout:     "🔄",
	IconExitRoundabout: "↪",
	IconNotification:   "ℹ",
}

// IconFor maps a maneuver to its icon. Unknown maneuvers get IconContinue.
func IconFor(m routing.ManeuverType) IconTag {
	switch m {
	case routing.ManeuverDepart:
		return IconDepart
	case routing.ManeuverArrive:
		return IconArrive
	case routing.ManeuverTurn:
		return IconTurn
	case routing.ManeuverNewName:
		return IconContinue
	case routing.ManeuverMerge:
		return IconMerge
	case routing.ManeuverOnRamp:
		return IconOnRamp
	case routing.ManeuverOffRamp:
		return IconOffRamp
	case routing.ManeuverFork:
		return IconFork
	case routing.ManeuverEndOfRoad:
		return IconEndOfRoad
	case routing.ManeuverRoundabout, routing.ManeuverRotary, routing.ManeuverRoundaboutTurn:
		return IconRoundabout
	case routing.ManeuverExitRoundabout:
		return IconExitRoundabout
	case routing.ManeuverNotification:
		return IconNotification
	default:
		return IconContinue
	}
}

// Glyph returns the symbol for an icon tag, falling back to the continue arrow.
func (t IconTag) Glyph() string {
	if g, ok := glyphs[t]; ok {
		return g
	}
	return glyphs[IconContinue]
}
