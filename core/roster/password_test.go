package roster

import (
	"strings"
	"testing"

	"github.com/ltessier/rostersync/core"
)

var initialsPolicy = core.PasswordConfig{
	Mode:        "initials",
	Prefix:      "CFA",
	Suffix:      "!*",
	DigitLength: 4,
}

func TestGeneratePassword_initials(t *testing.T) {
	defer func() { randIntn = origRandIntn }()
	randIntn = func(n int) int { return 0 } // all digits "0"

	tests := []struct {
		name           string
		first, surname string
		want           string
	}{
		{name: "plain", first: "Jean", surname: "Dupont", want: "CFAjd0000!*"},
		{name: "accented initials folded", first: "Élodie", surname: "Àubert", want: "CFAea0000!*"},
		{name: "empty firstname", first: "", surname: "Dupont", want: "CFAd0000!*"},
		{name: "both empty", first: "", surname: "", want: "CFA0000!*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GeneratePassword(tt.first, tt.surname, initialsPolicy); got != tt.want {
				t.Errorf("GeneratePassword() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeneratePassword_random(t *testing.T) {
	policy := core.PasswordConfig{Mode: "random", RandomLength: 8}

	got := GeneratePassword("Jean", "Dupont", policy)
	if len(got) != 8 {
		t.Fatalf("GeneratePassword() len = %d, want 8", len(got))
	}
	for _, c := range got {
		if !strings.ContainsRune(alphanum, c) {
			t.Errorf("GeneratePassword() contains %q outside the alphanumeric set", c)
		}
	}
}

var origRandIntn = randIntn
