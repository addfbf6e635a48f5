package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"curia/internal/audit"
	"curia/internal/staff/models"
	"curia/internal/staff/store/account"
	"curia/internal/staff/store/term"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/platform/sentinel"
)

// Overseer identifies the diocesan official closing a tenure. Overseers are
// not parish staff accounts; they authenticate separately and act across the
// parishes of their diocese.
type Overseer struct {
	ID      string
	Name    string
	Diocese id.Diocese
}

// Term formally closes staff tenures. Ending a term captures the member's
// audited activity into an immutable historical record before archiving the
// account.
type Term struct {
	accounts account.Store
	terms    term.Store
	activity audit.Store
	*deps
}

func NewTerm(accounts account.Store, terms term.Store, activity audit.Store, opts ...Option) *Term {
	return &Term{
		accounts: accounts,
		terms:    terms,
		activity: activity,
		deps:     newDeps(opts),
	}
}

// EndTerm archives an active account and writes its term record. The record
// is created before the archival: statistics capture and record creation are
// the operations that must not be lost, so a failure there aborts the whole
// flow, while a failure to archive after the record exists leaves a stale
// but recoverable account that a retry will resolve.
func (t *Term) EndTerm(ctx context.Context, overseer Overseer, staffID id.StaffID, reason string) (*models.TermRecord, error) {
	ctx, span := t.tracer.Start(ctx, "staff.EndTerm")
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "a term-ending reason is required")
	}
	if overseer.ID == "" || !overseer.Diocese.Known() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "a diocesan overseer is required")
	}
	if staffID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "a target account is required")
	}

	target, err := t.accounts.FindByID(ctx, staffID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "staff account not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff account")
	}
	if target.Diocese != overseer.Diocese {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "cannot end a term outside your diocese")
	}
	if err := target.CanArchive(); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "only an active account's term can be ended")
	}
	if target.TermStart == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "active account has no recorded term start")
	}

	now := t.now(ctx)
	stats, err := t.activity.TermStats(ctx, target.ID, *target.TermStart, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to capture term activity")
	}

	record, err := models.NewTermRecord(id.NewTermID(), target, overseer.Name, reason, models.TermStats(stats), now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "term record rejected")
	}
	if err := t.terms.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist term record")
	}

	_, err = t.accounts.Execute(ctx, staffID,
		func(current *models.StaffAccount) error {
			if err := current.CanArchive(); err != nil {
				return dErrors.New(dErrors.CodeAlreadyProcessed, "term was already ended")
			}
			return nil
		},
		func(current *models.StaffAccount) {
			current.ApplyArchival(now, id.StaffID{}, reason)
		},
	)
	if err != nil {
		// The term record already exists. Surface the archival failure so
		// the overseer retries; the duplicate record check lives in the
		// term store.
		return nil, wrapTargetErr(err)
	}

	t.logAudit(ctx, audit.Event{
		Actor:        overseer.Name,
		Action:       audit.ActionStaffTermEnded,
		TargetType:   audit.TargetTermRecord,
		TargetID:     record.ID.String(),
		ResourceName: target.Name,
		Changes: []audit.FieldChange{
			{Field: "status", Before: string(models.StatusActive), After: string(models.StatusArchived)},
		},
		Metadata: map[string]string{
			"staff_id":      target.ID.String(),
			"reason":        reason,
			"total_actions": strconv.FormatInt(stats.TotalActions, 10),
		},
	},
		"staff_id", target.ID.String(),
		"term_id", record.ID.String(),
		"overseer", overseer.ID,
	)

	if t.metrics != nil {
		t.metrics.TermsEnded.Inc()
	}
	return record, nil
}

// Wait drains in-flight side effects.
func (t *Term) Wait() {
	t.drain()
}
