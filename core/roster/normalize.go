package roster

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ltessier/rostersync/core"
)

// NormalizePerson derives the canonical comparison key for a person:
// surname trimmed and uppercased, firstname trimmed and titlecased.
// Empty inputs yield empty components, never an error.
func NormalizePerson(surname, firstname string) NormalizedKey {
	return NormalizedKey{
		Surname:   strings.ToUpper(strings.TrimSpace(surname)),
		Firstname: titleCase(strings.TrimSpace(firstname)),
	}
}

// titleCase uppercases the first letter of every space-separated word and
// lowercases the rest, matching how the roster source renders firstnames.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// StripDiacritics removes combining marks after NFD decomposition, so that
// "Gaëtan" folds to "Gaetan".
func StripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// loginSegment folds diacritics, drops whitespace, apostrophes, hyphens and
// underscores, keeps alphanumerics only, and lowercases.
// "Jean-Baptiste De La Fontaine" -> "jeanbaptistedelafontaine".
func loginSegment(s string) string {
	folded := StripDiacritics(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// GenerateLogin derives "firstname.surname" and guarantees the result is not
// in existingLogins (lowercase set): on collision a numeric suffix is
// appended to the firstname segment and incremented until unique.
// Returns core.ErrInvalidIdentity when both segments are empty after
// stripping.
func GenerateLogin(firstname, surname string, existingLogins map[string]struct{}) (string, error) {
	first := loginSegment(firstname)
	last := loginSegment(surname)
	if first == "" && last == "" {
		return "", core.ErrInvalidIdentity
	}

	login := first + "." + last
	for counter := 1; ; counter++ {
		if _, taken := existingLogins[login]; !taken {
			return login, nil
		}
		login = first + strconv.Itoa(counter) + "." + last
	}
}
