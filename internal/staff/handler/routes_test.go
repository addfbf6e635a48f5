package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"curia/pkg/testutil"
)

func TestRouterScaffold(t *testing.T) {
	e := newEnv(t)

	testutil.Given(t, "the staff API router", func(t *testing.T) {
		testutil.When(t, "calling an unregistered path", func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/nope", "", nil)

			testutil.Then(t, "it should respond with not found", func(t *testing.T) {
				if rec.Code != http.StatusNotFound {
					t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
				}
			})
		})

		testutil.When(t, "using the wrong method on register", func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/register", "", nil)

			testutil.Then(t, "it should respond with method not allowed", func(t *testing.T) {
				if rec.Code != http.StatusMethodNotAllowed {
					t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
				}
			})
		})
	})
}

// Calling a handler directly with a context-injected actor mirrors what the
// auth middleware produces, without minting a token.
func TestHandleApproveWithInjectedActor(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload("pending.peer@example.org"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", rec.Code, rec.Body.String())
	}
	_, _, data := decodeEnvelope(t, rec)
	var created StaffView
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode staff view: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/staff/"+created.ID+"/approve",
		strings.NewReader(`{"notes":"vouched"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("staffID", created.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = testutil.WithActor(req, "00000000-0000-0000-0000-000000000001")
	req = testutil.WithRequestID(req, "test-req-42")

	out := httptest.NewRecorder()
	e.handler.HandleApprove(out, req)

	// The injected actor has no account, so the approval guard rejects it.
	if out.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown actor, got %d: %s", out.Code, out.Body.String())
	}
	success, _, _ := decodeEnvelope(t, out)
	if success {
		t.Fatal("expected failure envelope")
	}
}
