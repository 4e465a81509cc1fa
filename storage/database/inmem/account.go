package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ltessier/rostersync/core/roster"
)

// DB is an in-memory account store used by tests and local development.
type DB struct {
	mutex sync.RWMutex
	table map[string]*roster.Account
}

func NewDB() *DB {
	return &DB{table: make(map[string]*roster.Account)}
}

type accountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) roster.AccountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) query() []roster.Account {
	accounts := make([]roster.Account, 0, len(repo.db.table))
	for _, acct := range repo.db.table {
		accounts = append(accounts, *acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Login < accounts[j].Login })
	return accounts
}

func (repo *accountRepository) ListAccounts(ctx context.Context) ([]roster.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *accountRepository) ExistingLogins(ctx context.Context) (map[string]struct{}, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	logins := make(map[string]struct{}, len(repo.db.table))
	for login := range repo.db.table {
		logins[strings.ToLower(login)] = struct{}{}
	}
	return logins, nil
}

func (repo *accountRepository) GetAccount(ctx context.Context, login string) (roster.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acct, ok := repo.db.table[login]; ok {
		return *acct, nil
	}
	return roster.Account{}, roster.ErrNotFound
}

func (repo *accountRepository) UpsertAccount(ctx context.Context, acct roster.Account) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if prev, ok := repo.db.table[acct.Login]; ok {
		acct.UID = prev.UID
		acct.CreatedAt = prev.CreatedAt
	}
	repo.db.table[acct.Login] = &acct
	return nil
}

func (repo *accountRepository) DeleteAccount(ctx context.Context, login string) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[login]; !ok {
		return false, nil
	}
	delete(repo.db.table, login)
	return true, nil
}
