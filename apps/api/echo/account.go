package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ltessier/rostersync/core"
	"github.com/ltessier/rostersync/core/roster"
)

const razConfirmation = "SUPPRIMER TOUS"

type accountApi struct {
	svc  ProvisioningService
	sync SyncService
	repo roster.AccountRepository
}

func registerAccountAPI(g *echo.Group, svc ProvisioningService, sync SyncService, repo roster.AccountRepository) {
	api := accountApi{svc: svc, sync: sync, repo: repo}

	g.GET("/accounts", api.query)
	g.POST("/accounts", api.create)
	g.POST("/accounts/:login/reset-password", api.resetPassword)

	g.GET("/directory/users", api.directoryUsers)
	g.GET("/reconciliation", api.reconcile)
	g.POST("/provision", api.provision)
	g.POST("/raz", api.raz)
	g.POST("/groups/assign", api.assignGroup)
	g.POST("/sync", api.syncAD)
}

// Bindings

type ProvisionRequest struct {
	ClassCode string `json:"class_code"`
	Group     string `json:"group"`
}

type RazRequest struct {
	Group        string `json:"group" validate:"required"`
	Confirmation string `json:"confirmation" validate:"required"`
}

func (r *RazRequest) Validate() error {
	r.Group = core.CleanString(r.Group)
	if err := core.Validate.Struct(r); err != nil {
		return err
	}
	if r.Confirmation != razConfirmation {
		return core.NewValidationError(
			errors.New("invalid confirmation"),
			core.FieldError{Field: "confirmation", Error: "type " + razConfirmation + " to confirm"},
		)
	}
	return nil
}

type AssignGroupRequest struct {
	Group      string   `json:"group" validate:"required"`
	ClassCodes []string `json:"class_codes" validate:"required,min=1"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"` // generated from policy when empty
}

type ResetPasswordResponse struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type SyncRequest struct {
	DryRun bool `json:"dry_run"`
}

// Handlers

func (api *accountApi) query(ctx echo.Context) error {
	accounts, err := api.repo.ListAccounts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing accounts")
	}
	return ctx.JSON(http.StatusOK, accounts)
}

func (api *accountApi) create(ctx echo.Context) error {
	var data roster.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}

	acct, err := api.svc.CreateAccount(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordRequest")
	}

	login := ctx.Param("login")
	password, err := api.svc.ResetPassword(ctx.Request().Context(), login, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ResetPasswordResponse{Login: login, Password: password})
}

func (api *accountApi) directoryUsers(ctx echo.Context) error {
	logins, err := api.svc.ListDirectoryUsers(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": len(logins), "logins": logins})
}

func (api *accountApi) reconcile(ctx echo.Context) error {
	diff, err := api.svc.Reconcile(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, diff)
}

func (api *accountApi) provision(ctx echo.Context) error {
	var data ProvisionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProvisionRequest")
	}

	report, err := api.svc.ProvisionMissing(ctx.Request().Context(), data.ClassCode, data.Group)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *accountApi) raz(ctx echo.Context) error {
	var data RazRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RazRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	report, err := api.svc.Reset(ctx.Request().Context(), data.Group)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *accountApi) assignGroup(ctx echo.Context) error {
	var data AssignGroupRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignGroupRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	report, err := api.svc.AddClassToGroup(ctx.Request().Context(), data.ClassCodes, data.Group)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *accountApi) syncAD(ctx echo.Context) error {
	var data SyncRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SyncRequest")
	}

	res, err := api.sync.Run(ctx.Request().Context(), data.DryRun)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
