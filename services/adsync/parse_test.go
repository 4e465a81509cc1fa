package adsync

import "testing"

var sampleOutput = []string{
	`{"level":"info","msg":"connexion au tenant"}`,
	`{"level":"info","msg":"lecture des comptes samba"}`,
	"============================================================",
	"📊 RÉSUMÉ DE LA SYNCHRONISATION AZURE AD",
	"============================================================",
	"Mode: DRY RUN",
	"Durée: 42.7 secondes",
	"",
	"UTILISATEURS",
	"  Synchronisés: 120",
	"  Erreurs: 3",
	"",
	"GROUPES",
	"  Synchronisés: 8",
	"  Erreurs: 0",
	"",
	"MOTS DE PASSE",
	"  Hash synchronisés: 117",
	"  Erreurs: 3",
	"",
	"Taux de réussite: 97.5%",
}

func TestParseSummary(t *testing.T) {
	sum := ParseSummary(sampleOutput)

	if !sum.Found {
		t.Fatal("summary marker not found")
	}
	if !sum.DryRun {
		t.Error("dry-run mode not detected")
	}
	if sum.DurationSec != 42.7 {
		t.Errorf("duration = %v, want 42.7", sum.DurationSec)
	}
	if sum.SuccessRate != 97.5 {
		t.Errorf("success rate = %v, want 97.5", sum.SuccessRate)
	}
	if sum.UsersSynced != 120 || sum.UserErrors != 3 {
		t.Errorf("users = %d/%d, want 120/3", sum.UsersSynced, sum.UserErrors)
	}
	if sum.GroupsSynced != 8 || sum.GroupErrors != 0 {
		t.Errorf("groups = %d/%d, want 8/0", sum.GroupsSynced, sum.GroupErrors)
	}
	if sum.PasswordsSynced != 117 || sum.PasswordErrors != 3 {
		t.Errorf("passwords = %d/%d, want 117/3", sum.PasswordsSynced, sum.PasswordErrors)
	}
}

func TestParseSummary_markerAbsent(t *testing.T) {
	sum := ParseSummary([]string{
		`{"level":"info","msg":"démarrage"}`,
		"Synchronisés: 9",
	})
	if sum.Found {
		t.Error("found a summary in plain logs")
	}
	if sum.UsersSynced != 0 {
		t.Errorf("users synced = %d, counters must stay zero before the marker", sum.UsersSynced)
	}
}

func TestParseSummary_linesBeforeMarkerIgnored(t *testing.T) {
	lines := append([]string{"UTILISATEURS", "Synchronisés: 999"}, sampleOutput...)
	sum := ParseSummary(lines)
	if sum.UsersSynced != 120 {
		t.Errorf("users synced = %d, want 120", sum.UsersSynced)
	}
}
