package directory

import "strings"

// Benign stderr markers. The samba host answers in French or English
// depending on the locale of the tool that happens to serve the request, so
// both forms are protocol.
var (
	alreadyExistsMarkers = []string{
		"user already exists",
		"utilisateur existe déjà",
		"entry already exists",
		"entrée existe déjà",
	}
	alreadyMemberMarkers = []string{
		"is already a member",
		"est déjà membre",
	}
	doesNotExistMarkers = []string{
		"does not exist",
		"unable to find",
		"n'existe pas",
	}
)

// Outcome classifies a command's stderr.
type Outcome int

const (
	// OK: empty stderr, command did what was asked.
	OK Outcome = iota
	// AlreadySatisfied: the requested state already holds (soft-success).
	AlreadySatisfied
	// Missing: the referenced user/group is absent.
	Missing
	// Failed: anything else with non-empty stderr.
	Failed
)

// Classify inspects stderr content; callers must never treat mere
// non-emptiness as failure.
func Classify(stderr string) Outcome {
	if stderr == "" {
		return OK
	}
	lower := strings.ToLower(stderr)
	if containsAny(lower, alreadyExistsMarkers) || containsAny(lower, alreadyMemberMarkers) {
		return AlreadySatisfied
	}
	if containsAny(lower, doesNotExistMarkers) {
		return Missing
	}
	return Failed
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
