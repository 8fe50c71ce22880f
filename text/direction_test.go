package text

import "testing"

func TestGetCharDirection(t *testing.T) {
	tests := []struct {
		name string
		char rune
		want Direction
	}{
		{"Arabic alif", 'ا', RTL},
		{"Hebrew shin", 'ש', RTL},
		{"Syriac alaph", 'ܐ', RTL},
		{"Latin A", 'A', LTR},
		{"Latin é", 'é', LTR},
		{"Cyrillic я", 'я', LTR},
		{"Greek Omega", 'Ω', LTR},
		{"CJK 中", '中', LTR},
		{"Hiragana あ", 'あ', LTR},
		{"Space", ' ', Neutral},
		{"Digit 5", '5', Neutral},
		{"Arabic-Indic digit", '٣', Neutral},
		{"Comma", ',', Neutral},
		{"Plus", '+', Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCharDirection(tt.char); got != tt.want {
				t.Errorf("GetCharDirection(%q) = %v, want %v", tt.char, got, tt.want)
			}
		})
	}
}

func TestDetectDirection(t *testing.T) {
	tests := []struct {
		text string
		want Direction
	}{
		{"", Neutral},
		{"123 !?", Neutral},
		{"Hello, world", LTR},
		{"مرحبا بالعالم", RTL},
		{"שלום עולם hi", RTL},
		{"שלום world", LTR},
		{"Hello שלום", LTR},
	}

	for _, tt := range tests {
		if got := DetectDirection(tt.text); got != tt.want {
			t.Errorf("DetectDirection(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDirectionString(t *testing.T) {
	for d, want := range map[Direction]string{LTR: "LTR", RTL: "RTL", Neutral: "Neutral", Direction(9): "Unknown"} {
		if got := d.String(); got != want {
			t.Errorf("Direction(%d).String() = %q, want %q", d, got, want)
		}
	}
}
