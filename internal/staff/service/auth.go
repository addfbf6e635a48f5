package service

import (
	"context"
	"errors"
	"time"

	"curia/internal/audit"
	"curia/internal/identity"
	"curia/internal/staff/models"
	"curia/internal/staff/store/account"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/email"
	"curia/pkg/platform/sentinel"
)

// TokenIssuer mints signed dashboard tokens for authenticated staff.
type TokenIssuer interface {
	IssueStaff(staffID id.StaffID, parishID id.ParishID, now time.Time) (string, error)
}

// Auth authenticates staff against the identity provider and issues
// dashboard tokens. Only active accounts may sign in; the credential alone
// is not enough.
type Auth struct {
	provider identity.Provider
	accounts account.Store
	tokens   TokenIssuer
	*deps
}

func NewAuth(provider identity.Provider, accounts account.Store, tokens TokenIssuer, opts ...Option) *Auth {
	return &Auth{
		provider: provider,
		accounts: accounts,
		tokens:   tokens,
		deps:     newDeps(opts),
	}
}

// LoginResult carries the issued token and the signed-in profile.
type LoginResult struct {
	Token   string
	Account *models.StaffAccount
}

// Login verifies the credential and account status, then issues a token.
// Credential failures and unknown addresses return the same message so the
// endpoint does not confirm which emails are registered.
func (a *Auth) Login(ctx context.Context, address, password string) (*LoginResult, error) {
	ctx, span := a.tracer.Start(ctx, "staff.Login")
	defer span.End()

	address = email.Normalize(address)
	if !email.Valid(address) || password == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	staffID, err := a.provider.Authenticate(ctx, address, password)
	if errors.Is(err, identity.ErrBadCredentials) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity provider unavailable")
	}

	acct, err := a.accounts.FindByID(ctx, staffID)
	if errors.Is(err, sentinel.ErrNotFound) {
		// A credential without a profile means a rollback failed somewhere.
		if a.logger != nil {
			a.logger.ErrorContext(ctx, "credential has no profile", "staff_id", staffID.String())
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff account")
	}

	switch acct.Status {
	case models.StatusActive:
	case models.StatusPending:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "registration is awaiting approval")
	default:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account is not active")
	}

	now := a.now(ctx)
	signed, err := a.tokens.IssueStaff(acct.ID, acct.ParishID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	a.logAudit(ctx, audit.Event{
		ActorID:      acct.ID,
		Action:       audit.ActionStaffLogin,
		TargetType:   audit.TargetStaffAccount,
		TargetID:     acct.ID.String(),
		ResourceName: acct.Name,
	},
		"staff_id", acct.ID.String(),
	)

	return &LoginResult{Token: signed, Account: acct}, nil
}
