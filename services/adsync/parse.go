package adsync

import (
	"regexp"
	"strconv"
	"strings"
)

// The summary block the sync script appends to its output. The strings are
// what the script actually prints; they are matched verbatim.
const summaryMarker = "RÉSUMÉ DE LA SYNCHRONISATION AZURE AD"

var (
	durationRe = regexp.MustCompile(`Durée: ([\d.]+) secondes`)
	syncedRe   = regexp.MustCompile(`Synchronisés: (\d+)`)
	hashesRe   = regexp.MustCompile(`Hash synchronisés: (\d+)`)
	errorsRe   = regexp.MustCompile(`Erreurs: (\d+)`)
	rateRe     = regexp.MustCompile(`Taux de réussite: ([\d.]+)%`)
)

// Summary is the parsed form of the script's trailing summary block.
// Found reports whether the marker was present at all; when it is false
// the caller falls back to the raw captured lines.
type Summary struct {
	Found       bool    `json:"found"`
	DryRun      bool    `json:"dry_run"`
	DurationSec float64 `json:"duration_sec"`
	SuccessRate float64 `json:"success_rate"`

	UsersSynced     int `json:"users_synced"`
	UserErrors      int `json:"user_errors"`
	GroupsSynced    int `json:"groups_synced"`
	GroupErrors     int `json:"group_errors"`
	PasswordsSynced int `json:"passwords_synced"`
	PasswordErrors  int `json:"password_errors"`
}

// ParseSummary scans captured output lines for the summary block and
// extracts its counters. Lines before the marker are ignored (they are the
// script's JSON logs). Counters are attributed to the section heading
// (UTILISATEURS, GROUPES, MOTS DE PASSE) most recently seen.
func ParseSummary(lines []string) Summary {
	var sum Summary

	start := -1
	for i, line := range lines {
		if strings.Contains(line, summaryMarker) {
			start = i
			break
		}
	}
	if start < 0 {
		return sum
	}
	sum.Found = true

	section := ""
	for _, line := range lines[start:] {
		switch {
		case strings.Contains(line, "UTILISATEURS"):
			section = "users"
		case strings.Contains(line, "GROUPES"):
			section = "groups"
		case strings.Contains(line, "MOTS DE PASSE"):
			section = "passwords"
		}

		if strings.Contains(line, "Mode: DRY RUN") {
			sum.DryRun = true
		}
		if m := durationRe.FindStringSubmatch(line); m != nil {
			sum.DurationSec, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := rateRe.FindStringSubmatch(line); m != nil {
			sum.SuccessRate, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := hashesRe.FindStringSubmatch(line); m != nil {
			sum.PasswordsSynced, _ = strconv.Atoi(m[1])
			continue
		}
		if m := syncedRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			switch section {
			case "users":
				sum.UsersSynced = n
			case "groups":
				sum.GroupsSynced = n
			}
		}
		if m := errorsRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			switch section {
			case "users":
				sum.UserErrors = n
			case "groups":
				sum.GroupErrors = n
			case "passwords":
				sum.PasswordErrors = n
			}
		}
	}
	return sum
}
