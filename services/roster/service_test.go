package rostersvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eleves.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFetchRoster(t *testing.T) {
	path := writeDump(t, `[
		{"Nom": "dupont", "Prénom": "JEAN", "Classe": " TERM BAC PRO "},
		{"nom": "Martin", "prenom": "luc", "classe": "2nd CAP"},
		{"Nom_Complet": "NOËL aurélie marie", "Classe": "TFP ADMIN"},
		{"Nom": "", "Prénom": "Sans Nom"},
		{"Nom": "NAN", "Prénom": "Pandas"}
	]`)
	svc := NewService(path, nopLogger{})

	records, err := svc.FetchRoster(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(records), records)
	}
	if records[0].Surname != "DUPONT" || records[0].Firstname != "Jean" {
		t.Errorf("row 0 = %+v", records[0])
	}
	if records[0].ClassLabel != "TERM BAC PRO" {
		t.Errorf("class = %q, want trimmed label", records[0].ClassLabel)
	}
	if records[1].Surname != "MARTIN" || records[1].Firstname != "Luc" {
		t.Errorf("row 1 = %+v", records[1])
	}
	if records[2].Surname != "NOËL" || records[2].Firstname != "Aurélie Marie" {
		t.Errorf("split full name = %+v", records[2])
	}
}

func TestFetchRoster_missingFile(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "absent.json"), nopLogger{})

	_, err := svc.FetchRoster(context.Background())
	if !errors.Is(err, core.ErrRosterUnavailable) {
		t.Errorf("err = %v, want ErrRosterUnavailable", err)
	}
}

func TestFetchRoster_malformedDump(t *testing.T) {
	svc := NewService(writeDump(t, `{"pas": "une liste"}`), nopLogger{})

	_, err := svc.FetchRoster(context.Background())
	if !errors.Is(err, core.ErrRosterUnavailable) {
		t.Errorf("err = %v, want ErrRosterUnavailable", err)
	}
}
