package service

import (
	"context"
	"errors"
	"strings"

	"curia/internal/audit"
	"curia/internal/notify"
	"curia/internal/staff/models"
	"curia/internal/staff/store/account"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/platform/sentinel"
)

// Transition implements the peer-managed account state machine: approve,
// reject, and activate/deactivate toggling. Authorization is scoped to the
// parish. Any active staff member of the same parish may act; there is no
// separate admin role on this path.
//
// Approving never archives the approver: the portal allows multiple
// simultaneously active staff per parish and position. That is a product
// rule; see the policy test before changing it.
type Transition struct {
	accounts account.Store
	*deps
}

func NewTransition(accounts account.Store, opts ...Option) *Transition {
	return &Transition{
		accounts: accounts,
		deps:     newDeps(opts),
	}
}

// Approve transitions a pending registration to active. The status guard
// runs under the record lock, so of two racing approvals exactly one wins
// and the other observes CodeAlreadyProcessed.
func (t *Transition) Approve(ctx context.Context, actingID, targetID id.StaffID, notes string) (*models.StaffAccount, error) {
	ctx, span := t.tracer.Start(ctx, "staff.Approve")
	defer span.End()

	acting, err := t.requireActingPeer(ctx, actingID, targetID)
	if err != nil {
		return nil, err
	}

	now := t.now(ctx)
	updated, err := t.accounts.Execute(ctx, targetID,
		func(target *models.StaffAccount) error {
			if !acting.SameParish(target) {
				return dErrors.New(dErrors.CodeUnauthorized, "cannot approve staff of another parish")
			}
			if err := target.CanApprove(); err != nil {
				return dErrors.New(dErrors.CodeAlreadyProcessed, "registration was already processed")
			}
			return nil
		},
		func(target *models.StaffAccount) {
			target.ApplyApproval(now, acting.ID, notes)
		},
	)
	if err != nil {
		return nil, wrapTargetErr(err)
	}

	t.logAudit(ctx, audit.Event{
		ActorID:      acting.ID,
		Action:       audit.ActionStaffApproved,
		TargetType:   audit.TargetStaffAccount,
		TargetID:     updated.ID.String(),
		ResourceName: updated.Name,
		Changes: []audit.FieldChange{
			{Field: "status", Before: string(models.StatusPending), After: string(models.StatusActive)},
		},
	},
		"staff_id", updated.ID.String(),
		"approved_by", acting.ID.String(),
	)

	t.spawn(ctx, "notify approved", func(ctx context.Context) error {
		if t.notifier == nil {
			return nil
		}
		return t.notifier.NotifyApproved(ctx, notify.Approved{
			Member:   summarize(updated),
			Approver: summarize(acting),
		})
	})

	if t.metrics != nil {
		t.metrics.Approvals.Inc()
	}
	return updated, nil
}

// Reject transitions a pending registration to the terminal rejected status.
// A non-empty reason is mandatory.
func (t *Transition) Reject(ctx context.Context, actingID, targetID id.StaffID, reason string) (*models.StaffAccount, error) {
	ctx, span := t.tracer.Start(ctx, "staff.Reject")
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "a rejection reason is required")
	}

	acting, err := t.requireActingPeer(ctx, actingID, targetID)
	if err != nil {
		return nil, err
	}

	now := t.now(ctx)
	updated, err := t.accounts.Execute(ctx, targetID,
		func(target *models.StaffAccount) error {
			if !acting.SameParish(target) {
				return dErrors.New(dErrors.CodeUnauthorized, "cannot reject staff of another parish")
			}
			if err := target.CanReject(); err != nil {
				return dErrors.New(dErrors.CodeAlreadyProcessed, "registration was already processed")
			}
			return nil
		},
		func(target *models.StaffAccount) {
			target.ApplyRejection(now, acting.ID, reason)
		},
	)
	if err != nil {
		return nil, wrapTargetErr(err)
	}

	t.logAudit(ctx, audit.Event{
		ActorID:      acting.ID,
		Action:       audit.ActionStaffRejected,
		TargetType:   audit.TargetStaffAccount,
		TargetID:     updated.ID.String(),
		ResourceName: updated.Name,
		Changes: []audit.FieldChange{
			{Field: "status", Before: string(models.StatusPending), After: string(models.StatusRejected)},
		},
		Metadata: map[string]string{"reason": updated.RejectionReason},
	},
		"staff_id", updated.ID.String(),
		"rejected_by", acting.ID.String(),
	)

	if t.metrics != nil {
		t.metrics.Rejections.Inc()
	}
	return updated, nil
}

// ToggleStatus moves a peer between active and inactive. Self-targeting is
// forbidden, and only the exact legal edge is accepted: requesting the
// status a record already has is CodeInvalidTransition, never a silent
// success.
func (t *Transition) ToggleStatus(ctx context.Context, actingID, targetID id.StaffID, desired models.Status, reason string) (*models.StaffAccount, error) {
	ctx, span := t.tracer.Start(ctx, "staff.ToggleStatus")
	defer span.End()

	if desired != models.StatusActive && desired != models.StatusInactive {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "desired status must be active or inactive")
	}
	if actingID == targetID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "cannot change your own status")
	}

	acting, err := t.requireActingPeer(ctx, actingID, targetID)
	if err != nil {
		return nil, err
	}

	now := t.now(ctx)
	var before models.Status
	updated, err := t.accounts.Execute(ctx, targetID,
		func(target *models.StaffAccount) error {
			if !acting.SameParish(target) {
				return dErrors.New(dErrors.CodeUnauthorized, "cannot change status of staff of another parish")
			}
			before = target.Status
			if desired == models.StatusInactive {
				if err := target.CanDeactivate(); err != nil {
					return dErrors.New(dErrors.CodeInvalidTransition, "only an active account can be deactivated")
				}
				return nil
			}
			if err := target.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeInvalidTransition, "only an inactive account can be reactivated")
			}
			return nil
		},
		func(target *models.StaffAccount) {
			if desired == models.StatusInactive {
				target.ApplyDeactivation(now, acting.ID, reason)
			} else {
				target.ApplyReactivation(now, acting.ID)
			}
		},
	)
	if err != nil {
		return nil, wrapTargetErr(err)
	}

	action := audit.ActionStaffReactivated
	if desired == models.StatusInactive {
		action = audit.ActionStaffDeactivated
	}
	t.logAudit(ctx, audit.Event{
		ActorID:      acting.ID,
		Action:       action,
		TargetType:   audit.TargetStaffAccount,
		TargetID:     updated.ID.String(),
		ResourceName: updated.Name,
		Changes: []audit.FieldChange{
			{Field: "status", Before: string(before), After: string(updated.Status)},
		},
	},
		"staff_id", updated.ID.String(),
		"changed_by", acting.ID.String(),
	)

	if t.metrics != nil {
		if desired == models.StatusInactive {
			t.metrics.Deactivations.Inc()
		} else {
			t.metrics.Reactivations.Inc()
		}
	}
	return updated, nil
}

// Wait drains in-flight side effects.
func (t *Transition) Wait() {
	t.drain()
}

// requireActingPeer loads the acting account fresh from the store and
// enforces the peer-approval preconditions shared by every transition: the
// actor exists and is currently active parish staff. Parish scoping against
// the target is re-checked under the record lock in each Execute callback.
func (t *Transition) requireActingPeer(ctx context.Context, actingID, targetID id.StaffID) (*models.StaffAccount, error) {
	if actingID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "an acting account is required")
	}
	if targetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "a target account is required")
	}

	acting, err := t.accounts.FindByID(ctx, actingID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "acting account is not recognized")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load acting account")
	}
	if !acting.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only active staff can manage registrations")
	}
	return acting, nil
}

// wrapTargetErr maps store sentinels from an Execute call to domain errors,
// passing through coded errors produced by the validate callback.
func wrapTargetErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "staff account not found")
	}
	if dErrors.GetCode(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update staff account")
}
