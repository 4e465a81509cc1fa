package provision

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core"
	"github.com/ltessier/rostersync/core/roster"
)

// mocked in tests
var (
	nowFunc = time.Now
	newUID  = uuid.NewString
)

// DirectoryService is the slice of the directory gateway the orchestrator
// uses. *directory.Service satisfies it.
type DirectoryService interface {
	CreateUser(ctx context.Context, login, password, firstname, surname, classCode string) error
	DeleteUser(ctx context.Context, login string) (bool, error)
	SetPassword(ctx context.Context, login, password string) error
	EnsureGroup(ctx context.Context, group string) error
	AddGroupMember(ctx context.Context, group, login string) error
	ListGroupMembers(ctx context.Context, group string) ([]string, error)
	UserExists(ctx context.Context, login string) (bool, error)
	ListUsers(ctx context.Context) ([]string, error)
}

// Service coordinates the roster source, the account store and the
// directory. It owns no transport of its own.
type Service struct {
	src     roster.Source
	repo    roster.AccountRepository
	dir     DirectoryService
	classes *roster.ClassNormalizer
	conf    *core.Config
	log     core.Logger
	mailSvc core.EmailService // nil disables report emails
}

func NewService(
	src roster.Source,
	repo roster.AccountRepository,
	dir DirectoryService,
	classes *roster.ClassNormalizer,
	conf *core.Config,
	log core.Logger,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		src:     src,
		repo:    repo,
		dir:     dir,
		classes: classes,
		conf:    conf,
		log:     log,
		mailSvc: mailSvc,
	}
}

// Reconcile fetches a fresh roster snapshot, lists the stored accounts and
// diffs the two. The diff is recomputed every call and never persisted.
func (s *Service) Reconcile(ctx context.Context) (roster.DiffResult, error) {
	var res roster.DiffResult

	records, err := s.src.FetchRoster(ctx)
	if err != nil {
		return res, err
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return res, errors.Wrap(err, "listing accounts")
	}
	return roster.Diff(records, accounts), nil
}

// ProvisionMissing reconciles and provisions every roster person missing
// from the store, optionally restricted to one normalized class code.
func (s *Service) ProvisionMissing(ctx context.Context, classCode, group string) (*BatchReport, error) {
	diff, err := s.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	records := diff.MissingInTarget
	if classCode != "" {
		filtered := make([]roster.PersonRecord, 0, len(records))
		for _, rec := range records {
			if strings.EqualFold(s.classes.Normalize(rec.ClassLabel), classCode) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	return s.Provision(ctx, records, group)
}

// Provision creates one directory account per record and persists it.
// Item-level failures are recorded and the batch continues; losing the
// directory connection aborts the remainder as skipped.
func (s *Service) Provision(ctx context.Context, records []roster.PersonRecord, group string) (*BatchReport, error) {
	if group == "" {
		group = s.conf.Directory.DefaultGroup
	}
	report := &BatchReport{}
	if len(records) == 0 {
		return report, nil
	}

	if err := s.dir.EnsureGroup(ctx, group); err != nil {
		return report, errors.Wrapf(err, "ensuring group %q", group)
	}

	// logins claimed by this batch but possibly absent from the store
	// (created in the directory, then the upsert failed)
	claimed := make(map[string]struct{})

	for i, rec := range records {
		key := rec.Key()
		display := key.Firstname + " " + key.Surname

		// snapshot taken fresh for every record; the store may have moved
		// under the batch
		existing, err := s.repo.ExistingLogins(ctx)
		if err != nil {
			report.failure(display, "listing logins: "+err.Error())
			continue
		}
		for login := range claimed {
			existing[login] = struct{}{}
		}

		login, err := roster.GenerateLogin(rec.Firstname, rec.Surname, existing)
		if err != nil {
			report.skip(display, err.Error())
			continue
		}
		classCode := s.classes.Normalize(rec.ClassLabel)
		password := roster.GeneratePassword(rec.Firstname, rec.Surname, s.conf.Password)

		claimed[strings.ToLower(login)] = struct{}{}

		if err = s.dir.CreateUser(ctx, login, password, key.Firstname, key.Surname, classCode); err != nil {
			report.failure(login, err.Error())
			if core.IsDirectoryUnavailable(err) {
				s.abortRemainder(report, records[i+1:])
				break
			}
			continue
		}
		if err = s.dir.AddGroupMember(ctx, group, login); err != nil {
			// the account exists without its group; an operator can re-add it
			s.log.Warn("adding account to group failed",
				map[string]interface{}{"login": login, "group": group}, err)
		}

		if err = s.repo.UpsertAccount(ctx, s.newAccount(login, key, classCode, group, password)); err != nil {
			report.failure(login, "created in directory but not stored: "+err.Error())
			continue
		}
		report.success(login, OutcomeCreated, "")
	}

	s.emailReport("Rapport de création des comptes", report)
	return report, nil
}

// ListDirectoryUsers returns the user logins currently live in the
// directory, system accounts filtered out.
func (s *Service) ListDirectoryUsers(ctx context.Context) ([]string, error) {
	return s.dir.ListUsers(ctx)
}

// CreateAccount provisions a single operator-supplied account outside a
// reconciliation batch.
func (s *Service) CreateAccount(ctx context.Context, na roster.NewAccount) (roster.Account, error) {
	var acct roster.Account

	if err := na.Validate(); err != nil {
		return acct, err
	}
	group := na.Group
	if group == "" {
		group = s.conf.Directory.DefaultGroup
	}

	existing, err := s.repo.ExistingLogins(ctx)
	if err != nil {
		return acct, errors.Wrap(err, "listing logins")
	}
	key := roster.NormalizePerson(na.Surname, na.Firstname)
	login, err := roster.GenerateLogin(na.Firstname, na.Surname, existing)
	if err != nil {
		return acct, err
	}

	// the store may lag behind the directory; probe before creating
	exists, err := s.dir.UserExists(ctx, login)
	if err != nil {
		return acct, err
	}
	if exists {
		return acct, core.NewValidationError(
			errors.Errorf("account %q already exists in the directory", login))
	}

	classCode := s.classes.Normalize(na.ClassLabel)
	password := na.Password
	if password == "" {
		password = roster.GeneratePassword(na.Firstname, na.Surname, s.conf.Password)
	}

	if err = s.dir.EnsureGroup(ctx, group); err != nil {
		return acct, errors.Wrapf(err, "ensuring group %q", group)
	}
	if err = s.dir.CreateUser(ctx, login, password, key.Firstname, key.Surname, classCode); err != nil {
		return acct, err
	}
	if err = s.dir.AddGroupMember(ctx, group, login); err != nil {
		s.log.Warn("adding account to group failed",
			map[string]interface{}{"login": login, "group": group}, err)
	}

	acct = s.newAccount(login, key, classCode, group, password)
	if err = s.repo.UpsertAccount(ctx, acct); err != nil {
		return acct, errors.Wrap(err, "storing account")
	}
	return acct, nil
}

// Reset deletes every directory account in `group` ("RAZ"). Membership is
// queried live rather than from the store; store rows are removed only for
// deletions the directory confirmed.
func (s *Service) Reset(ctx context.Context, group string) (*BatchReport, error) {
	if group == "" {
		group = s.conf.Directory.DefaultGroup
	}
	report := &BatchReport{}

	members, err := s.dir.ListGroupMembers(ctx, group)
	if err != nil {
		return report, errors.Wrapf(err, "listing members of %q", group)
	}

	for i, login := range members {
		confirmed, err := s.dir.DeleteUser(ctx, login)
		if err != nil {
			report.failure(login, err.Error())
			if core.IsDirectoryUnavailable(err) {
				for _, rest := range members[i+1:] {
					report.skip(rest, "directory connection lost")
				}
				break
			}
			continue
		}
		if !confirmed {
			report.skip(login, "not present in directory")
			continue
		}
		if _, err = s.repo.DeleteAccount(ctx, login); err != nil {
			report.failure(login, "deleted in directory but not in store: "+err.Error())
			continue
		}
		report.success(login, OutcomeDeleted, "")
	}

	s.emailReport("Rapport de remise à zéro du groupe "+group, report)
	return report, nil
}

// ResetPassword sets a new password for one account in the directory and
// the store. An empty password means "regenerate from policy"; the applied
// password is returned either way.
func (s *Service) ResetPassword(ctx context.Context, login, password string) (string, error) {
	acct, err := s.repo.GetAccount(ctx, login)
	if err != nil {
		return "", errors.Wrapf(err, "looking up %q", login)
	}
	if password == "" {
		password = roster.GeneratePassword(acct.Firstname, acct.Surname, s.conf.Password)
	}

	if err = s.dir.SetPassword(ctx, acct.Login, password); err != nil {
		return "", err
	}

	acct.Password = password
	acct.LastModified = nowFunc().UTC()
	if err = s.repo.UpsertAccount(ctx, acct); err != nil {
		return "", errors.Wrap(err, "storing account")
	}
	return password, nil
}

// AddClassToGroup adds every stored account whose class code is in
// classCodes to `group`, creating the group first if needed.
func (s *Service) AddClassToGroup(ctx context.Context, classCodes []string, group string) (*BatchReport, error) {
	report := &BatchReport{}
	if group == "" || len(classCodes) == 0 {
		return report, core.NewValidationError(errors.New("a group and at least one class code are required"))
	}

	wanted := make(map[string]struct{}, len(classCodes))
	for _, code := range classCodes {
		wanted[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return report, errors.Wrap(err, "listing accounts")
	}
	if err = s.dir.EnsureGroup(ctx, group); err != nil {
		return report, errors.Wrapf(err, "ensuring group %q", group)
	}

	for i, acct := range accounts {
		if _, ok := wanted[strings.ToUpper(acct.ClassCode)]; !ok {
			continue
		}
		if err = s.dir.AddGroupMember(ctx, group, acct.Login); err != nil {
			report.failure(acct.Login, err.Error())
			if core.IsDirectoryUnavailable(err) {
				for _, rest := range accounts[i+1:] {
					if _, ok := wanted[strings.ToUpper(rest.ClassCode)]; ok {
						report.skip(rest.Login, "directory connection lost")
					}
				}
				break
			}
			continue
		}
		report.success(acct.Login, OutcomeUpdated, "added to "+group)
	}
	return report, nil
}

func (s *Service) newAccount(login string, key roster.NormalizedKey, classCode, group, password string) roster.Account {
	now := nowFunc().UTC()
	return roster.Account{
		UID:          newUID(),
		Login:        login,
		Surname:      key.Surname,
		Firstname:    key.Firstname,
		ClassCode:    classCode,
		Group:        group,
		Password:     password,
		CreatedAt:    now,
		LastModified: now,
	}
}

func (s *Service) abortRemainder(report *BatchReport, remaining []roster.PersonRecord) {
	for _, rec := range remaining {
		key := rec.Key()
		report.skip(key.Firstname+" "+key.Surname, "directory connection lost")
	}
}

func (s *Service) emailReport(subject string, report *BatchReport) {
	if s.mailSvc == nil || len(s.conf.Email.ReportRecipients) == 0 || report.Attempted == 0 {
		return
	}
	msg := &core.EmailMessage{Subject: subject, Body: report.Summary()}
	for _, addr := range s.conf.Email.ReportRecipients {
		msg.To = append(msg.To, mail.Address{Address: addr})
	}
	s.mailSvc.SendMessages(msg)
}
