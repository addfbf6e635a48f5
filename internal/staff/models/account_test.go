package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
)

type StaffAccountSuite struct {
	suite.Suite
	now time.Time
}

func TestStaffAccountSuite(t *testing.T) {
	suite.Run(t, new(StaffAccountSuite))
}

func (s *StaffAccountSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func (s *StaffAccountSuite) newPending() *StaffAccount {
	account, err := NewStaffAccount(
		id.NewStaffID(),
		"Secretary@Parish.org",
		"Maria Santos",
		id.DioceseBacolod,
		id.ParishID("P1"),
		"San Sebastian Cathedral",
		"Bacolod City",
		id.PositionSecretary,
		"",
		s.now,
	)
	s.Require().NoError(err)
	return account
}

func (s *StaffAccountSuite) TestNewStaffAccount() {
	s.Run("starts pending with no transition timestamps", func() {
		account := s.newPending()
		s.Equal(StatusPending, account.Status)
		s.Nil(account.ApprovedAt)
		s.Nil(account.RejectedAt)
		s.Nil(account.TermStart)
	})

	s.Run("normalizes email to lower case", func() {
		account := s.newPending()
		s.Equal("secretary@parish.org", account.Email)
	})

	s.Run("rejects malformed email", func() {
		_, err := NewStaffAccount(id.NewStaffID(), "not-an-email", "Maria", id.DioceseBacolod,
			id.ParishID("P1"), "Cathedral", "Bacolod", id.PositionSecretary, "", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects empty name and parish", func() {
		_, err := NewStaffAccount(id.NewStaffID(), "a@b.org", "  ", id.DioceseBacolod,
			id.ParishID("P1"), "Cathedral", "Bacolod", id.PositionSecretary, "", s.now)
		s.Error(err)

		_, err = NewStaffAccount(id.NewStaffID(), "a@b.org", "Maria", id.DioceseBacolod,
			id.ParishID("  "), "Cathedral", "Bacolod", id.PositionSecretary, "", s.now)
		s.Error(err)
	})
}

func (s *StaffAccountSuite) TestApprovalOpensTerm() {
	account := s.newPending()
	approver := id.NewStaffID()

	s.Require().NoError(account.CanApprove())
	account.ApplyApproval(s.now, approver, "welcome aboard")

	s.Equal(StatusActive, account.Status)
	s.Equal(approver, account.ApprovedBy)
	require.NotNil(s.T(), account.TermStart)
	s.Equal(s.now, *account.TermStart)
	s.Equal("welcome aboard", account.ApprovalNotes)
}

func (s *StaffAccountSuite) TestGuardsFollowCurrentStatus() {
	account := s.newPending()
	actor := id.NewStaffID()

	s.Run("pending cannot be deactivated or archived", func() {
		s.Error(account.CanDeactivate())
		s.Error(account.CanArchive())
		s.Error(account.CanReactivate())
	})

	account.ApplyApproval(s.now, actor, "")

	s.Run("active cannot be approved again", func() {
		s.Error(account.CanApprove())
		s.Error(account.CanReject())
	})

	s.Run("active can be deactivated, then reactivated", func() {
		s.NoError(account.CanDeactivate())
		account.ApplyDeactivation(s.now, actor, "on leave")
		s.Equal(StatusInactive, account.Status)
		s.Equal("on leave", account.DeactivationReason)

		s.NoError(account.CanReactivate())
		account.ApplyReactivation(s.now, actor)
		s.Equal(StatusActive, account.Status)
	})

	s.Run("reactivation preserves the original term start", func() {
		require.NotNil(s.T(), account.TermStart)
		s.Equal(s.now, *account.TermStart)
	})

	s.Run("archived is terminal", func() {
		s.NoError(account.CanArchive())
		account.ApplyArchival(s.now, actor, "retired")
		s.Equal(StatusArchived, account.Status)
		s.Error(account.CanApprove())
		s.Error(account.CanReject())
		s.Error(account.CanDeactivate())
		s.Error(account.CanReactivate())
		s.Error(account.CanArchive())
	})
}

func (s *StaffAccountSuite) TestRejectionIsTerminal() {
	account := s.newPending()
	actor := id.NewStaffID()

	s.Require().NoError(account.CanReject())
	account.ApplyRejection(s.now, actor, "position already filled")

	s.Equal(StatusRejected, account.Status)
	s.Equal("position already filled", account.RejectionReason)
	s.Error(account.CanApprove())
	s.Error(account.CanReactivate())
	s.Error(account.CanArchive())
}
