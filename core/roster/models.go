package roster

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core"
)

// ErrNotFound is returned by AccountRepository lookups that match no row.
var ErrNotFound = errors.New("account not found")

// PersonRecord is one row of a roster snapshot: a person as the source
// system knows them. Snapshots are read-only; a refresh yields a new slice.
type PersonRecord struct {
	Surname    string `json:"surname"`
	Firstname  string `json:"firstname"`
	ClassLabel string `json:"class_label"`
}

// NormalizedKey is the sole cross-system join key. There is no numeric ID
// correlating the roster source and the directory, so two distinct people
// with the same normalized name collide; that ambiguity comes from the
// upstream systems and is not resolved here.
type NormalizedKey struct {
	Surname   string
	Firstname string
}

// Account is a provisioned directory account as persisted in the store.
// Password is kept in plaintext: the surrounding tooling looks passwords up
// and displays them to operators, so hashing here would break that contract.
type Account struct {
	UID          string    `json:"uid" db:"uid"`
	Login        string    `json:"login" db:"login"`
	Surname      string    `json:"surname" db:"surname"`
	Firstname    string    `json:"firstname" db:"firstname"`
	ClassCode    string    `json:"class_code" db:"class_code"`
	Group        string    `json:"group" db:"group_name"`
	Password     string    `json:"password" db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`    // UTC
	LastModified time.Time `json:"last_modified" db:"last_modified"` // UTC
}

// Key returns the account's NormalizedKey, computed the same way as for
// roster records. No comparison may mix raw and normalized forms.
func (a Account) Key() NormalizedKey {
	return NormalizePerson(a.Surname, a.Firstname)
}

// Key returns the record's NormalizedKey.
func (p PersonRecord) Key() NormalizedKey {
	return NormalizePerson(p.Surname, p.Firstname)
}

// DiffResult is recomputed on every reconciliation pass and never persisted.
type DiffResult struct {
	MissingInTarget []PersonRecord `json:"missing_in_target"`
	ExtraInTarget   []Account      `json:"extra_in_target"`
}

// NewAccount contains the operator-provided information to provision a
// single account outside a reconciliation batch.
type NewAccount struct {
	Firstname  string `json:"firstname" validate:"required"`
	Surname    string `json:"surname" validate:"required"`
	ClassLabel string `json:"class_label"`
	Group      string `json:"group"`
	Password   string `json:"password"` // generated when empty
}

func (na *NewAccount) Validate() error {
	na.Firstname = core.CleanString(na.Firstname)
	na.Surname = core.CleanString(na.Surname)
	na.ClassLabel = core.CleanString(na.ClassLabel)
	na.Group = core.CleanString(na.Group)
	return core.Validate.Struct(na)
}

type (
	// Source yields a roster snapshot. Possibly slow (tens of seconds);
	// failures surface wrapped in core.ErrRosterUnavailable and no retry is
	// built in.
	Source interface {
		FetchRoster(ctx context.Context) ([]PersonRecord, error)
	}

	// AccountRepository is the persistent store of provisioned accounts,
	// keyed by login, last-write-wins.
	AccountRepository interface {
		ListAccounts(ctx context.Context) ([]Account, error)
		// ExistingLogins returns all logins, lowercase.
		ExistingLogins(ctx context.Context) (map[string]struct{}, error)
		GetAccount(ctx context.Context, login string) (Account, error)
		UpsertAccount(ctx context.Context, acct Account) error
		// DeleteAccount reports whether a row was actually removed.
		DeleteAccount(ctx context.Context, login string) (bool, error)
	}
)
