package textnorm

import "testing"

func TestCanonicalItemKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"starred necron blade", "✪✪✪✪✪ Necron's Blade", "necrons blade"},
		{"pet level prefix", "[Lvl 100] Ender Dragon", "ender dragon"},
		{"reforge prefix stripped", "Ancient Necrotic Bonzo's Mask", "bonzos mask"},
		{"star glyph stripped", "★★★★★ Hyperion", "hyperion"},
		{"idempotent", "Strong Hyperion", "hyperion"},
		{"hyphenated reforge prefix stripped", "Double-bit Axe", "axe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalItemKey(tt.in)
			if got != tt.want {
				t.Errorf("CanonicalItemKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalItemKeyIdempotent(t *testing.T) {
	inputs := []string{"✪✪✪✪✪ Necron's Blade", "[Lvl 100] Ender Dragon", "Strong Hyperion"}
	for _, in := range inputs {
		once := CanonicalItemKey(in)
		twice := CanonicalItemKey(once)
		if once != twice {
			t.Errorf("CanonicalItemKey not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeWeirdDigits(t *testing.T) {
	tests := []struct{ in, want string }{
		{"⓪①②③", "0123"},
		{"０１２", "012"},
		{"➊➋➓", "12" + "10"},
		{"❶❷❿", "12" + "10"},
		{"⁰¹²", "012"},
		{"₀₁₂", "012"},
	}
	for _, tt := range tests {
		if got := NormalizeWeirdDigits(tt.in); got != tt.want {
			t.Errorf("NormalizeWeirdDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormKey(t *testing.T) {
	if got := NormKey("Tier-Boost_Item"); got != "tier boost item" {
		t.Errorf("NormKey = %q", got)
	}
}
