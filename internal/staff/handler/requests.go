package handler

import (
	"time"

	"curia/internal/staff/models"
	"curia/internal/staff/service"
)

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Diocese      string `json:"diocese"`
	ParishID     string `json:"parish_id"`
	ParishName   string `json:"parish_name"`
	Municipality string `json:"municipality"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
}

func (r RegisterRequest) toService() service.RegisterRequest {
	return service.RegisterRequest{
		Email:        r.Email,
		Password:     r.Password,
		Name:         r.Name,
		Diocese:      r.Diocese,
		ParishID:     r.ParishID,
		ParishName:   r.ParishName,
		Municipality: r.Municipality,
		Position:     r.Position,
		Phone:        r.Phone,
	}
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the signed-in profile.
type LoginResponse struct {
	Token string    `json:"token"`
	Staff StaffView `json:"staff"`
}

// ApproveRequest carries optional approval notes.
type ApproveRequest struct {
	Notes string `json:"notes"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ToggleStatusRequest names the desired status. Anything other than active
// or inactive is rejected by the service.
type ToggleStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (r ToggleStatusRequest) desired() models.Status {
	return models.Status(r.Status)
}

// EndTermRequest carries the mandatory term-ending reason.
type EndTermRequest struct {
	Reason string `json:"reason"`
}

// StaffView is the account shape returned to the dashboard. Tokens,
// credential data, and internal attribution IDs stay out of it except the
// fields the UI renders.
type StaffView struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Diocese      string     `json:"diocese"`
	ParishID     string     `json:"parish_id"`
	ParishName   string     `json:"parish_name"`
	Municipality string     `json:"municipality,omitempty"`
	Position     string     `json:"position"`
	Phone        string     `json:"phone,omitempty"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
	TermStart    *time.Time `json:"term_start,omitempty"`
}

func staffView(a *models.StaffAccount) StaffView {
	return StaffView{
		ID:           a.ID.String(),
		Email:        a.Email,
		Name:         a.Name,
		Diocese:      a.Diocese.String(),
		ParishID:     a.ParishID.String(),
		ParishName:   a.ParishName,
		Municipality: a.Municipality,
		Position:     a.Position.String(),
		Phone:        a.Phone,
		Status:       string(a.Status),
		RegisteredAt: a.RegisteredAt,
		TermStart:    a.TermStart,
	}
}

func staffViews(accounts []*models.StaffAccount) []StaffView {
	views := make([]StaffView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, staffView(a))
	}
	return views
}

// TermView is the completed-tenure shape returned when a term is ended.
type TermView struct {
	ID           string    `json:"id"`
	StaffID      string    `json:"staff_id"`
	Name         string    `json:"name"`
	ParishID     string    `json:"parish_id"`
	Position     string    `json:"position"`
	TermStart    time.Time `json:"term_start"`
	TermEnd      time.Time `json:"term_end"`
	EndReason    string    `json:"end_reason"`
	EndedBy      string    `json:"ended_by"`
	TotalActions int64     `json:"total_actions"`
}

func termView(r *models.TermRecord) TermView {
	return TermView{
		ID:           r.ID.String(),
		StaffID:      r.StaffID.String(),
		Name:         r.Name,
		ParishID:     r.ParishID.String(),
		Position:     r.Position.String(),
		TermStart:    r.TermStart,
		TermEnd:      r.TermEnd,
		EndReason:    r.EndReason,
		EndedBy:      r.EndedBy,
		TotalActions: r.Stats.TotalActions,
	}
}
