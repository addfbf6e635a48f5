package service

import (
	"context"
	"errors"
	"strings"

	"curia/internal/audit"
	"curia/internal/identity"
	"curia/internal/notify"
	"curia/internal/staff/models"
	"curia/internal/staff/store/account"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/email"
	"curia/pkg/platform/sentinel"
	"curia/pkg/requestcontext"
)

// Registration creates pending staff accounts. It coordinates the two
// independently-failable stores: the credential lives at the identity
// provider, the profile in the account store, both keyed by the same ID. A
// profile-write failure triggers a compensating credential delete so neither
// store holds an orphan.
type Registration struct {
	provider identity.Provider
	accounts account.Store
	*deps
}

func NewRegistration(provider identity.Provider, accounts account.Store, opts ...Option) *Registration {
	return &Registration{
		provider: provider,
		accounts: accounts,
		deps:     newDeps(opts),
	}
}

// RegisterRequest is the submitted registration form, already past UI
// validation but never trusted: every field is re-validated here.
type RegisterRequest struct {
	Email        string
	Password     string
	Name         string
	Diocese      string
	ParishID     string
	ParishName   string
	Municipality string
	Position     string
	Phone        string
}

// Register provisions a credential in an isolated scope, writes the pending
// profile, and fans out side effects. The profile write is the commit point:
// once it succeeds the registration is reported successful regardless of any
// side-effect failure.
func (r *Registration) Register(ctx context.Context, req RegisterRequest) (*models.StaffAccount, error) {
	ctx, span := r.tracer.Start(ctx, "staff.Register")
	defer span.End()

	address := email.Normalize(req.Email)
	if !email.Valid(address) {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "email address is malformed")
	}
	if len(req.Password) < identity.MinPasswordLength {
		return nil, dErrors.New(dErrors.CodeWeakCredential, "password does not meet the minimum policy")
	}
	diocese, ok := id.ParseDiocese(req.Diocese)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "unknown diocese")
	}
	position, ok := id.ParsePosition(req.Position)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "unknown position")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "name is required")
	}

	// The provisioning scope is isolated from any ambient session: creating
	// the new credential cannot sign out whoever is using this process. Its
	// teardown is a detached side effect on every return path.
	scope, err := r.provider.Provision(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity provider unavailable")
	}
	defer r.spawn(ctx, "close provisioning scope", scope.Close)

	staffID, err := scope.CreateCredential(ctx, address, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeAlreadyExists, "an account with this email already exists")
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, dErrors.New(dErrors.CodeWeakCredential, "password does not meet the minimum policy")
		case errors.Is(err, identity.ErrInvalidEmail):
			return nil, dErrors.New(dErrors.CodeInvalidArgument, "email address is malformed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create credential")
	}

	now := r.now(ctx)
	profile, err := models.NewStaffAccount(staffID, address, req.Name, diocese,
		id.ParishID(strings.TrimSpace(req.ParishID)), req.ParishName,
		req.Municipality, position, req.Phone, now)
	if err == nil {
		err = r.accounts.Create(ctx, profile)
	}
	if err != nil {
		// Compensating rollback: no credential may outlive a failed profile
		// write. A failed delete is logged for reconciliation, not surfaced;
		// the caller already gets the primary failure.
		if delErr := scope.DeleteCredential(ctx, staffID); delErr != nil && r.logger != nil {
			r.logger.ErrorContext(ctx, "compensating credential delete failed",
				"staff_id", staffID.String(),
				"error", delErr,
			)
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidArgument, dErrors.UserMessage(err))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}

	r.logAudit(ctx, audit.Event{
		Action:       audit.ActionStaffRegistered,
		TargetType:   audit.TargetStaffAccount,
		TargetID:     profile.ID.String(),
		ResourceName: profile.Name,
		Metadata: map[string]string{
			"parish_id": profile.ParishID.String(),
			"position":  profile.Position.String(),
			"client":    requestcontext.UserAgent(ctx),
		},
	},
		"staff_id", profile.ID.String(),
		"parish_id", profile.ParishID.String(),
	)

	r.spawn(ctx, "notify pending approval", func(ctx context.Context) error {
		return r.notifyPeers(ctx, profile)
	})

	if r.metrics != nil {
		r.metrics.Registrations.Inc()
	}
	return profile, nil
}

// notifyPeers tells the currently active staff member for the same parish
// and position that a registration awaits approval. Having no active peer is
// normal for a new parish; the notification still goes out unaddressed so
// the mailer can fall back to the parish inbox.
func (r *Registration) notifyPeers(ctx context.Context, profile *models.StaffAccount) error {
	if r.notifier == nil {
		return nil
	}

	msg := notify.PendingApproval{Candidate: summarize(profile)}
	peer, err := r.accounts.FindActive(ctx, profile.ParishID, &profile.Position)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if peer != nil {
		recipient := summarize(peer)
		msg.Recipient = &recipient
	}
	return r.notifier.NotifyPendingApproval(ctx, msg)
}

// Wait drains in-flight side effects. Called on shutdown and by tests.
func (r *Registration) Wait() {
	r.drain()
}

func summarize(account *models.StaffAccount) notify.StaffSummary {
	return notify.StaffSummary{
		StaffID:    account.ID,
		Name:       account.Name,
		Email:      account.Email,
		ParishID:   account.ParishID,
		ParishName: account.ParishName,
		Position:   account.Position,
	}
}
