// Package middleware holds the HTTP middleware chain: request correlation,
// request-scoped time, client metadata, and bearer-token authentication.
// Values cross into services through pkg/requestcontext so service code never
// imports net/http.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"curia/internal/token"
	id "curia/pkg/domain"
	"curia/pkg/requestcontext"
)

// StaffValidator validates staff dashboard tokens.
type StaffValidator interface {
	ValidateStaff(tokenString string) (*token.StaffClaims, error)
}

// OverseerValidator validates diocesan overseer tokens.
type OverseerValidator interface {
	ValidateOverseer(tokenString string) (*token.OverseerClaims, error)
}

// Overseer is the authenticated diocesan official attached to the context by
// RequireOverseer.
type Overseer struct {
	ID      string
	Name    string
	Diocese id.Diocese
}

type overseerKey struct{}

// GetOverseer retrieves the authenticated overseer from the context.
func GetOverseer(ctx context.Context) (Overseer, bool) {
	o, ok := ctx.Value(overseerKey{}).(Overseer)
	return o, ok
}

// RequireStaff rejects requests without a valid staff token and injects the
// acting staff ID into the context. Status checks stay in the services: an
// account deactivated after its token was issued still fails every guarded
// operation.
func RequireStaff(validator StaffValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(ctx, w, logger, "missing bearer token")
				return
			}
			claims, err := validator.ValidateStaff(raw)
			if err != nil {
				unauthorized(ctx, w, logger, "invalid staff token")
				return
			}
			staffID, err := id.ParseStaffID(claims.StaffID)
			if err != nil {
				unauthorized(ctx, w, logger, "malformed staff claim")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(ctx, staffID)))
		})
	}
}

// RequireOverseer rejects requests without a valid overseer token and
// injects the overseer identity into the context.
func RequireOverseer(validator OverseerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(ctx, w, logger, "missing bearer token")
				return
			}
			claims, err := validator.ValidateOverseer(raw)
			if err != nil {
				unauthorized(ctx, w, logger, "invalid overseer token")
				return
			}
			diocese, known := id.ParseDiocese(claims.Diocese)
			if !known {
				unauthorized(ctx, w, logger, "malformed diocese claim")
				return
			}

			overseer := Overseer{ID: claims.OverseerID, Name: claims.Name, Diocese: diocese}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, overseerKey{}, overseer)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

func unauthorized(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, why string) {
	if logger != nil {
		logger.WarnContext(ctx, "unauthorized request",
			"reason", why,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"authentication required"}`))
}
