package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core/roster"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) roster.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = "uid, login, surname, firstname, class_code, group_name, password, created_at, last_modified"

func (repo *accountRepository) ListAccounts(ctx context.Context) ([]roster.Account, error) {
	accounts := make([]roster.Account, 0)
	q := "SELECT " + accountColumns + " FROM accounts ORDER BY login"
	if err := repo.db.SelectContext(ctx, &accounts, q); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	return accounts, nil
}

func (repo *accountRepository) ExistingLogins(ctx context.Context) (map[string]struct{}, error) {
	var logins []string
	if err := repo.db.SelectContext(ctx, &logins, "SELECT login FROM accounts"); err != nil {
		return nil, errors.Wrap(err, "querying logins")
	}
	set := make(map[string]struct{}, len(logins))
	for _, login := range logins {
		set[strings.ToLower(login)] = struct{}{}
	}
	return set, nil
}

func (repo *accountRepository) GetAccount(ctx context.Context, login string) (roster.Account, error) {
	var acct roster.Account
	q := "SELECT " + accountColumns + " FROM accounts WHERE login = ?"
	if err := repo.db.GetContext(ctx, &acct, q, login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return acct, roster.ErrNotFound
		}
		return acct, errors.Wrap(err, "querying account")
	}
	return acct, nil
}

// UpsertAccount is keyed by login, last-write-wins. The uid and creation
// timestamp of an existing row are preserved.
func (repo *accountRepository) UpsertAccount(ctx context.Context, acct roster.Account) error {
	q := `
INSERT INTO accounts (` + accountColumns + `)
VALUES (:uid, :login, :surname, :firstname, :class_code, :group_name, :password, :created_at, :last_modified)
ON DUPLICATE KEY UPDATE
    surname       = VALUES(surname),
    firstname     = VALUES(firstname),
    class_code    = VALUES(class_code),
    group_name    = VALUES(group_name),
    password      = VALUES(password),
    last_modified = VALUES(last_modified)`
	if _, err := repo.db.NamedExecContext(ctx, q, acct); err != nil {
		return errors.Wrap(err, "upserting account")
	}
	return nil
}

func (repo *accountRepository) DeleteAccount(ctx context.Context, login string) (bool, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM accounts WHERE login = ?", login)
	if err != nil {
		return false, errors.Wrap(err, "deleting account")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "deleting account")
	}
	return n > 0, nil
}
