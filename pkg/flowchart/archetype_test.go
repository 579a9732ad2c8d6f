package flowchart

import "testing"

func TestArchetypeFor(t *testing.T) {
	tests := []struct {
		text       string
		name       string
		collision  float64
		connection float64
	}{
		{"plain box", "plain", 1, 0.3},
		{"🖥️ dashboard", "screen", 3, 0.2},
		{"💾 disk", "storage", 1, 0.3},
		{"👷 operator", "person", 1, 0.3},
		{"🪙 wallet", "coin", 1, 0.3},
		{"🪙 🔑 vault", "key", 1, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			a := ArchetypeFor(tt.text)
			if a.Name != tt.name {
				t.Errorf("Name = %q, want %q", a.Name, tt.name)
			}
			if a.RadiusCollision != tt.collision || a.RadiusConnection != tt.connection {
				t.Errorf("radii = %v/%v, want %v/%v", a.RadiusCollision, a.RadiusConnection, tt.collision, tt.connection)
			}
		})
	}
}

func TestEmojiColor(t *testing.T) {
	if got := EmojiColor("no color"); got != "" {
		t.Errorf("EmojiColor without emoji = %q, want empty", got)
	}
	red := EmojiColor("alert 🔴")
	if red == "" || red[0] != '#' || len(red) != 7 {
		t.Fatalf("EmojiColor(🔴) = %q, want #rrggbb", red)
	}
	mixed := EmojiColor("🔴🔵")
	if mixed == red {
		t.Error("mixing colors should change the tint")
	}
}
