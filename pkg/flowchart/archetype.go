package flowchart

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Default leaf radii.
const (
	DefaultRadiusCollision  = 1.0
	DefaultRadiusConnection = 0.3
)

// Archetype is the visual family of a leaf node, selected from emoji in the
// vertex text. The renderer picks geometry and material by Name; the
// simulator only cares about the radii.
type Archetype struct {
	Name             string
	RadiusCollision  float64
	RadiusConnection float64
	// Color is a "#rrggbb" tint from color emoji, or empty.
	Color string
}

type archetypeRule struct {
	emoji []string
	name  string
	// zero radii keep the defaults
	radiusCollision  float64
	radiusConnection float64
}

// Checked in order; the first match wins.
var archetypeRules = []archetypeRule{
	{emoji: []string{"🖥️"}, name: "screen", radiusCollision: 3, radiusConnection: 0.2},
	{emoji: []string{"💾"}, name: "storage"},
	{emoji: []string{"🔑"}, name: "key"},
	{emoji: []string{"🚪"}, name: "door"},
	{emoji: []string{"📤"}, name: "outbox"},
	{emoji: []string{"⛓️"}, name: "chain"},
	{emoji: []string{"🗄️"}, name: "cabinet"},
	{emoji: []string{"🧑", "👷"}, name: "person"},
}

// ArchetypeFor classifies a vertex by its display text.
func ArchetypeFor(text string) Archetype {
	a := Archetype{
		Name:             "plain",
		RadiusCollision:  DefaultRadiusCollision,
		RadiusConnection: DefaultRadiusConnection,
		Color:            EmojiColor(text),
	}
	if strings.Contains(text, "🪙") {
		a.Name = "coin"
	}
	for _, r := range archetypeRules {
		if !containsAny(text, r.emoji) {
			continue
		}
		a.Name = r.name
		if r.radiusCollision > 0 {
			a.RadiusCollision = r.radiusCollision
		}
		if r.radiusConnection > 0 {
			a.RadiusConnection = r.radiusConnection
		}
		break
	}
	return a
}

const (
	paletteLow  = 0.1
	paletteHigh = 0.95
)

var colorEmoji = []struct {
	emoji string
	color colorful.Color
}{
	{"⚫️", colorful.Color{R: paletteLow, G: paletteLow, B: paletteLow}},
	{"⚪️", colorful.Color{R: paletteHigh, G: paletteHigh, B: paletteHigh}},
	{"🔴", colorful.Color{R: paletteHigh, G: paletteLow, B: paletteLow}},
	{"🟠", colorful.Color{R: paletteHigh, G: 0.5, B: paletteLow}},
	{"🟡", colorful.Color{R: paletteHigh, G: paletteHigh, B: paletteLow}},
	{"🟢", colorful.Color{R: paletteLow, G: paletteHigh, B: paletteLow}},
	{"🔵", colorful.Color{R: paletteLow, G: paletteLow, B: paletteHigh}},
	{"🟣", colorful.Color{R: paletteHigh, G: paletteLow, B: paletteHigh}},
}

// EmojiColor averages the palette colors of every color emoji in text and
// returns the result as hex. It returns "" when text has no color emoji.
func EmojiColor(text string) string {
	var sum colorful.Color
	n := 0
	for _, c := range colorEmoji {
		if strings.Contains(text, c.emoji) {
			sum.R += c.color.R
			sum.G += c.color.G
			sum.B += c.color.B
			n++
		}
	}
	if n == 0 {
		return ""
	}
	k := 1 / float64(n)
	return colorful.Color{R: sum.R * k, G: sum.G * k, B: sum.B * k}.Hex()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
