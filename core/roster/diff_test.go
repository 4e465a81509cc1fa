package roster

import (
	"fmt"
	"testing"
)

func asAccounts(records []PersonRecord) []Account {
	accts := make([]Account, 0, len(records))
	for i, rec := range records {
		accts = append(accts, Account{
			Login:     fmt.Sprintf("login%d", i),
			Surname:   rec.Surname,
			Firstname: rec.Firstname,
		})
	}
	return accts
}

func TestDiff(t *testing.T) {
	dupont := PersonRecord{Surname: "Dupont", Firstname: "Jean", ClassLabel: "T Bac 2"}
	martin := PersonRecord{Surname: "Martin", Firstname: "Léa", ClassLabel: "TFP RAV"}
	durand := Account{Login: "paul.durand", Surname: "DURAND", Firstname: "Paul"}

	tests := []struct {
		name        string
		source      []PersonRecord
		target      []Account
		wantMissing int
		wantExtra   int
	}{
		{name: "both empty"},
		{name: "all missing", source: []PersonRecord{dupont, martin}, wantMissing: 2},
		{name: "all extra", target: []Account{durand}, wantExtra: 1},
		{
			name:        "mixed",
			source:      []PersonRecord{dupont, martin},
			target:      append(asAccounts([]PersonRecord{dupont}), durand),
			wantMissing: 1,
			wantExtra:   1,
		},
		{
			name:   "case variants match",
			source: []PersonRecord{{Surname: "Dupont", Firstname: "jean"}},
			target: []Account{{Login: "jean.dupont", Surname: "DUPONT", Firstname: "Jean"}},
		},
		{
			name:        "same-name source records both retained",
			source:      []PersonRecord{dupont, {Surname: "DUPONT", Firstname: "jean", ClassLabel: "CAP 1"}},
			wantMissing: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Diff(tt.source, tt.target)
			if len(res.MissingInTarget) != tt.wantMissing {
				t.Errorf("MissingInTarget len = %d, want %d", len(res.MissingInTarget), tt.wantMissing)
			}
			if len(res.ExtraInTarget) != tt.wantExtra {
				t.Errorf("ExtraInTarget len = %d, want %d", len(res.ExtraInTarget), tt.wantExtra)
			}
		})
	}
}

func TestDiff_reflexive(t *testing.T) {
	source := []PersonRecord{
		{Surname: "Dupont", Firstname: "Jean"},
		{Surname: "Martin", Firstname: "Léa"},
		{Surname: "Lefèvre", Firstname: "Gaëtan"},
	}
	res := Diff(source, asAccounts(source))
	if len(res.MissingInTarget) != 0 || len(res.ExtraInTarget) != 0 {
		t.Errorf("Diff(X, X) = %+v, want empty", res)
	}
}

func TestDiff_symmetric(t *testing.T) {
	a := []PersonRecord{
		{Surname: "Dupont", Firstname: "Jean"},
		{Surname: "Martin", Firstname: "Léa"},
	}
	b := []PersonRecord{
		{Surname: "Martin", Firstname: "Léa"},
		{Surname: "Durand", Firstname: "Paul"},
	}

	fwd := Diff(a, asAccounts(b))
	rev := Diff(b, asAccounts(a))

	if len(fwd.MissingInTarget) != len(rev.ExtraInTarget) {
		t.Errorf("missing(A,B) len = %d, extra(B,A) len = %d, want equal",
			len(fwd.MissingInTarget), len(rev.ExtraInTarget))
	}
	if len(fwd.ExtraInTarget) != len(rev.MissingInTarget) {
		t.Errorf("extra(A,B) len = %d, missing(B,A) len = %d, want equal",
			len(fwd.ExtraInTarget), len(rev.MissingInTarget))
	}
}
