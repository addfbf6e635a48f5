// Package handler wires the staff lifecycle services to the dashboard HTTP
// API. Handlers stay thin: decode, call the service, map the result through
// the shared envelope. All guard decisions live in the services.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"curia/internal/platform/middleware"
	"curia/internal/staff/service"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/platform/httputil"
	"curia/pkg/requestcontext"
)

// Handler exposes the parish staff lifecycle endpoints.
type Handler struct {
	registration *service.Registration
	auth         *service.Auth
	queries      *service.Query
	transitions  *service.Transition
	terms        *service.Term
	logger       *slog.Logger
}

func New(
	registration *service.Registration,
	auth *service.Auth,
	queries *service.Query,
	transitions *service.Transition,
	terms *service.Term,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		registration: registration,
		auth:         auth,
		queries:      queries,
		transitions:  transitions,
		terms:        terms,
		logger:       logger,
	}
}

// Register mounts the API. requireStaff and requireOverseer are the bearer
// middlewares; registration and login stay public.
func (h *Handler) Register(r chi.Router, requireStaff, requireOverseer func(http.Handler) http.Handler) {
	r.Post("/api/register", h.HandleRegister)
	r.Post("/api/login", h.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(requireStaff)
		r.Get("/api/parishes/{parishID}/staff", h.HandleRoster)
		r.Get("/api/parishes/{parishID}/staff/pending", h.HandleListPending)
		r.Get("/api/parishes/{parishID}/staff/active", h.HandleGetActive)
		r.Post("/api/staff/{staffID}/approve", h.HandleApprove)
		r.Post("/api/staff/{staffID}/reject", h.HandleReject)
		r.Post("/api/staff/{staffID}/status", h.HandleToggleStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireOverseer)
		r.Post("/api/staff/{staffID}/end-term", h.HandleEndTerm)
	})
}

// HandleRegister handles POST /api/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.registration.Register(ctx, req.toService())
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated,
		"registration submitted, awaiting approval by current parish staff",
		staffView(profile))
}

// HandleLogin handles POST /api/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[LoginRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "signed in", LoginResponse{
		Token: result.Token,
		Staff: staffView(result.Account),
	})
}

// HandleListPending handles GET /api/parishes/{parishID}/staff/pending.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := h.queries.ListPending(ctx, id.ParishID(chi.URLParam(r, "parishID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", staffViews(pending))
}

// HandleGetActive handles GET /api/parishes/{parishID}/staff/active with an
// optional position query parameter.
func (h *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var position *id.Position
	if raw := r.URL.Query().Get("position"); raw != "" {
		parsed, ok := id.ParsePosition(raw)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "unknown position"))
			return
		}
		position = &parsed
	}

	active, err := h.queries.GetActive(ctx, id.ParishID(chi.URLParam(r, "parishID")), position)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if active == nil {
		httputil.WriteSuccess(w, http.StatusOK, "no active staff for this parish", nil)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", staffView(active))
}

// HandleRoster handles GET /api/parishes/{parishID}/staff.
func (h *Handler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roster, err := h.queries.ListActiveAndInactive(ctx, id.ParishID(chi.URLParam(r, "parishID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", staffViews(roster))
}

// HandleApprove handles POST /api/staff/{staffID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "malformed staff ID"))
		return
	}
	req, ok := httputil.Decode[ApproveRequest](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.transitions.Approve(ctx, requestcontext.ActorID(ctx), targetID, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "registration approved", staffView(updated))
}

// HandleReject handles POST /api/staff/{staffID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "malformed staff ID"))
		return
	}
	req, ok := httputil.Decode[RejectRequest](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.transitions.Reject(ctx, requestcontext.ActorID(ctx), targetID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "registration rejected", staffView(updated))
}

// HandleToggleStatus handles POST /api/staff/{staffID}/status.
func (h *Handler) HandleToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "malformed staff ID"))
		return
	}
	req, ok := httputil.Decode[ToggleStatusRequest](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.transitions.ToggleStatus(ctx, requestcontext.ActorID(ctx), targetID, req.desired(), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "status updated", staffView(updated))
}

// HandleEndTerm handles POST /api/staff/{staffID}/end-term.
func (h *Handler) HandleEndTerm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overseer, ok := middleware.GetOverseer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	targetID, err := id.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "malformed staff ID"))
		return
	}
	req, ok := httputil.Decode[EndTermRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.terms.EndTerm(ctx, service.Overseer{
		ID:      overseer.ID,
		Name:    overseer.Name,
		Diocese: overseer.Diocese,
	}, targetID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "term ended", termView(record))
}
