package roster

import "testing"

type warnRecorder struct {
	warnings []string
}

func (r *warnRecorder) Debug(msg string, args ...interface{}) {}
func (r *warnRecorder) Info(msg string, args ...interface{})  {}
func (r *warnRecorder) Warn(msg string, args ...interface{})  { r.warnings = append(r.warnings, msg) }
func (r *warnRecorder) Error(msg string, args ...interface{}) {}
func (r *warnRecorder) Fatal(msg string, args ...interface{}) {}

func TestClassNormalizer_Normalize(t *testing.T) {
	mapping := map[string]string{
		"Terminale Bac Pro 2": "TBAC2",
		"T Bac 2":             "TBAC2",
	}

	tests := []struct {
		name     string
		label    string
		want     string
		wantWarn bool
	}{
		{name: "empty", label: "", want: ""},
		{name: "exact mapping", label: "T Bac 2", want: "TBAC2"},
		{name: "mapping after whitespace cleanup", label: "  T  Bac   2 ", want: "TBAC2"},
		{name: "tfp family", label: "TFP menuiserie", want: "TFP"},
		{name: "tfp rav variant", label: "TFP RAV", want: "TFP RAV"},
		{name: "tfp rav case variants", label: "tfp   rav", want: "TFP RAV"},
		{name: "tfp admin variant", label: "tfp Admin 1", want: "TFP ADMIN"},
		// ADMIN must win over the generic family code even when both match
		{name: "tfp admin before generic", label: "TFP ADMIN RAV", want: "TFP ADMIN"},
		{name: "fallback strips nd and accents", label: "2nde Pro", want: "2EPRO", wantWarn: true},
		{name: "fallback folds grave accent", label: "1ère CAP", want: "1ERECAP", wantWarn: true},
		{name: "fallback removes spaces", label: "CAP Cuisine 1", want: "CAPCUISINE1", wantWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &warnRecorder{}
			n := NewClassNormalizer(mapping, rec)

			if got := n.Normalize(tt.label); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.label, got, tt.want)
			}
			if warned := len(rec.warnings) > 0; warned != tt.wantWarn {
				t.Errorf("Normalize(%q) warned = %v, want %v", tt.label, warned, tt.wantWarn)
			}
		})
	}
}

func TestClassNormalizer_variantsAgree(t *testing.T) {
	n := NewClassNormalizer(nil, nil)
	if a, b := n.Normalize("TFP RAV"), n.Normalize("tfp   rav"); a != b {
		t.Errorf("whitespace/case variants disagree: %q vs %q", a, b)
	}
}

func TestClassNormalizer_nilLoggerFallback(t *testing.T) {
	n := NewClassNormalizer(nil, nil)
	if got := n.Normalize("Seconde G"); got == "" {
		t.Error("fallback returned empty code")
	}
}
