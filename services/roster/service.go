package rostersvc

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core"
	"github.com/ltessier/rostersync/core/roster"
)

// Service reads the roster snapshot the portal scraper dumps as JSON. The
// scraper and its navigation are a separate program; this side only
// consumes its output file.
//
// The dump's field names vary with the page layout the scraper hit
// (Nom/nom, Prénom/Prenom/prenom, Nom_Complet). That variance is folded
// here, at the edge, so nothing downstream ever sees a raw row.
type Service struct {
	path string
	log  core.Logger
}

func NewService(path string, log core.Logger) *Service {
	return &Service{path: path, log: log}
}

var _ roster.Source = (*Service)(nil)

func (s *Service) FetchRoster(ctx context.Context) ([]roster.PersonRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(core.ErrRosterUnavailable, err.Error())
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(core.ErrRosterUnavailable, "reading %s: %v", s.path, err)
	}

	var rows []map[string]interface{}
	if err = json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrapf(core.ErrRosterUnavailable, "decoding %s: %v", s.path, err)
	}

	records := make([]roster.PersonRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rec, ok := parseRow(row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	if dropped > 0 {
		s.log.Warn("dropped unusable roster rows",
			map[string]interface{}{"dropped": dropped, "kept": len(records)})
	}
	return records, nil
}

func parseRow(row map[string]interface{}) (roster.PersonRecord, bool) {
	var rec roster.PersonRecord

	surname := field(row, "Nom", "nom", "NOM")
	firstname := field(row, "Prénom", "Prenom", "prénom", "prenom")
	class := field(row, "Classe", "classe")

	// some page layouts only yield a single "LASTNAME Firstname" cell
	if surname == "" {
		if full := field(row, "Nom_Complet", "nom_complet"); full != "" {
			parts := strings.Fields(full)
			surname = parts[0]
			if len(parts) > 1 {
				firstname = strings.Join(parts[1:], " ")
			}
		}
	}

	key := roster.NormalizePerson(surname, firstname)
	if key.Surname == "" || strings.EqualFold(key.Surname, "NAN") {
		return rec, false
	}

	rec.Surname = key.Surname
	rec.Firstname = key.Firstname
	rec.ClassLabel = strings.TrimSpace(class)
	return rec, true
}

func field(row map[string]interface{}, names ...string) string {
	for _, name := range names {
		if v, ok := row[name]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
