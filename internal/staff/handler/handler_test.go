package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"curia/internal/audit"
	"curia/internal/identity"
	"curia/internal/notify"
	"curia/internal/platform/middleware"
	"curia/internal/staff/models"
	"curia/internal/staff/service"
	"curia/internal/staff/store/account"
	"curia/internal/staff/store/term"
	"curia/internal/token"
	id "curia/pkg/domain"
)

type env struct {
	router   http.Handler
	handler  *Handler
	tokens   *token.Service
	accounts *account.InMemory
	reg      *service.Registration
	trans    *service.Transition
}

func newEnv(t *testing.T) *env {
	t.Helper()

	accounts := account.NewInMemory()
	terms := term.NewInMemory()
	activity := audit.NewInMemory()
	provider := identity.NewInMemory()
	sink := notify.NewInMemory()
	tokens := token.NewService("test-key", "curia-test", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := []service.Option{service.WithLogger(logger), service.WithNotifier(sink)}
	reg := service.NewRegistration(provider, accounts, opts...)
	auth := service.NewAuth(provider, accounts, tokens, opts...)
	queries := service.NewQuery(accounts)
	trans := service.NewTransition(accounts, opts...)
	termSvc := service.NewTerm(accounts, terms, activity, opts...)

	h := New(reg, auth, queries, trans, termSvc, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RequestTime, middleware.ClientMetadata)
	h.Register(r,
		middleware.RequireStaff(tokens, logger),
		middleware.RequireOverseer(tokens, logger),
	)

	return &env{router: r, handler: h, tokens: tokens, accounts: accounts, reg: reg, trans: trans}
}

func (e *env) do(t *testing.T, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func registerPayload(email string) map[string]string {
	return map[string]string{
		"email":       email,
		"password":    "correct horse battery",
		"name":        "Maria Santos",
		"diocese":     "bacolod",
		"parish_id":   "PAR-017",
		"parish_name": "San Sebastian Cathedral",
		"position":    "secretary",
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, string, json.RawMessage) {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body.Success, body.Message, body.Data
}

// registerAndApprove walks the full API flow to produce an active staff
// member and returns their ID and bearer token.
func (e *env) registerAndApprove(t *testing.T, email string) (id.StaffID, string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload(email))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", rec.Code, rec.Body.String())
	}
	_, _, data := decodeEnvelope(t, rec)
	var created StaffView
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode staff view: %v", err)
	}
	staffID, err := id.ParseStaffID(created.ID)
	if err != nil {
		t.Fatalf("parse staff ID: %v", err)
	}

	// Bootstrap approval directly against the store; the first member of a
	// parish has no peer to approve them.
	approverID := e.seedActivePeer(t, "bootstrap."+email)
	approverToken, err := e.tokens.IssueStaff(approverID, id.ParishID("PAR-017"), time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec = e.do(t, http.MethodPost, "/api/staff/"+staffID.String()+"/approve", approverToken, map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", rec.Code, rec.Body.String())
	}

	staffToken, err := e.tokens.IssueStaff(staffID, id.ParishID("PAR-017"), time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	e.reg.Wait()
	e.trans.Wait()
	return staffID, staffToken
}

func (e *env) seedActivePeer(t *testing.T, email string) id.StaffID {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload(email))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering peer, got %d", rec.Code)
	}
	_, _, data := decodeEnvelope(t, rec)
	var created StaffView
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode staff view: %v", err)
	}
	peerID, err := id.ParseStaffID(created.ID)
	if err != nil {
		t.Fatalf("parse staff ID: %v", err)
	}
	if _, err := e.accounts.Execute(t.Context(), peerID,
		func(a *models.StaffAccount) error { return a.CanApprove() },
		func(a *models.StaffAccount) { a.ApplyApproval(time.Now(), id.NewStaffID(), "") },
	); err != nil {
		t.Fatalf("seed approval: %v", err)
	}
	return peerID
}

func TestRegisterAndLoginFlow(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload("maria@example.org"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	success, message, _ := decodeEnvelope(t, rec)
	if !success || message == "" {
		t.Fatalf("expected success envelope with message, got success=%v message=%q", success, message)
	}

	// Pending accounts cannot sign in yet.
	rec = e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "maria@example.org", "password": "correct horse battery",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for pending login, got %d", rec.Code)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	e := newEnv(t)

	if rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload("maria@example.org")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload("maria@example.org"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
	success, _, _ := decodeEnvelope(t, rec)
	if success {
		t.Fatal("expected success=false")
	}
}

func TestLoginReturnsUsableToken(t *testing.T) {
	e := newEnv(t)
	e.registerAndApprove(t, "maria@example.org")

	rec := e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "maria@example.org", "password": "correct horse battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	_, _, data := decodeEnvelope(t, rec)
	var login LoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = e.do(t, http.MethodGet, "/api/parishes/PAR-017/staff/pending", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with fresh token, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/parishes/PAR-017/staff/pending"},
		{http.MethodGet, "/api/parishes/PAR-017/staff"},
		{http.MethodPost, fmt.Sprintf("/api/staff/%s/approve", id.NewStaffID())},
		{http.MethodPost, fmt.Sprintf("/api/staff/%s/end-term", id.NewStaffID())},
	}
	for _, p := range paths {
		rec := e.do(t, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestApproveRejectAndConflicts(t *testing.T) {
	e := newEnv(t)
	_, approverToken := e.registerAndApprove(t, "incumbent@example.org")

	rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload("candidate@example.org"))
	_, _, data := decodeEnvelope(t, rec)
	var candidate StaffView
	if err := json.Unmarshal(data, &candidate); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = e.do(t, http.MethodPost, "/api/staff/"+candidate.ID+"/approve", approverToken, map[string]string{"notes": "ok"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", rec.Code, rec.Body.String())
	}
	_, _, data = decodeEnvelope(t, rec)
	var approved StaffView
	if err := json.Unmarshal(data, &approved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if approved.Status != "active" {
		t.Fatalf("expected active, got %q", approved.Status)
	}

	// A second approval of the same registration conflicts.
	rec = e.do(t, http.MethodPost, "/api/staff/"+candidate.ID+"/approve", approverToken, map[string]string{})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 re-approving, got %d", rec.Code)
	}

	// Rejection without a reason is a 400.
	rec = e.do(t, http.MethodPost, "/api/register", "", registerPayload("another@example.org"))
	_, _, data = decodeEnvelope(t, rec)
	var another StaffView
	if err := json.Unmarshal(data, &another); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rec = e.do(t, http.MethodPost, "/api/staff/"+another.ID+"/reject", approverToken, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 rejecting without reason, got %d", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/api/staff/"+another.ID+"/reject", approverToken, map[string]string{"reason": "withdrawn"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting, got %d", rec.Code)
	}
}

func TestToggleStatusEndpoint(t *testing.T) {
	e := newEnv(t)
	_, actorToken := e.registerAndApprove(t, "incumbent@example.org")
	peerID, _ := e.registerAndApprove(t, "peer@example.org")

	rec := e.do(t, http.MethodPost, "/api/staff/"+peerID.String()+"/status", actorToken,
		map[string]string{"status": "inactive", "reason": "leave"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deactivating, got %d: %s", rec.Code, rec.Body.String())
	}

	// Deactivating an already inactive account conflicts.
	rec = e.do(t, http.MethodPost, "/api/staff/"+peerID.String()+"/status", actorToken,
		map[string]string{"status": "inactive", "reason": "again"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/staff/"+peerID.String()+"/status", actorToken,
		map[string]string{"status": "active"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reactivating, got %d", rec.Code)
	}
}

func TestEndTermRequiresOverseerToken(t *testing.T) {
	e := newEnv(t)
	staffID, staffToken := e.registerAndApprove(t, "member@example.org")

	// A staff token is not an overseer token.
	rec := e.do(t, http.MethodPost, "/api/staff/"+staffID.String()+"/end-term", staffToken,
		map[string]string{"reason": "retired"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with staff token, got %d", rec.Code)
	}

	overseerToken, err := e.tokens.IssueOverseer("chancery-01", "Msgr. Overseer", id.DioceseBacolod, time.Now())
	if err != nil {
		t.Fatalf("issue overseer token: %v", err)
	}
	rec = e.do(t, http.MethodPost, "/api/staff/"+staffID.String()+"/end-term", overseerToken,
		map[string]string{"reason": "retired"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ending term, got %d: %s", rec.Code, rec.Body.String())
	}
	_, _, data := decodeEnvelope(t, rec)
	var record TermView
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode term view: %v", err)
	}
	if record.StaffID != staffID.String() || record.EndReason != "retired" {
		t.Fatalf("unexpected term record: %+v", record)
	}
}

func TestListEndpoints(t *testing.T) {
	e := newEnv(t)
	_, staffToken := e.registerAndApprove(t, "incumbent@example.org")

	if rec := e.do(t, http.MethodPost, "/api/register", "", registerPayload("candidate@example.org")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := e.do(t, http.MethodGet, "/api/parishes/PAR-017/staff/pending", staffToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	_, _, data := decodeEnvelope(t, rec)
	var pending []StaffView
	if err := json.Unmarshal(data, &pending); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pending) != 1 || pending[0].Email != "candidate@example.org" {
		t.Fatalf("unexpected pending list: %+v", pending)
	}

	rec = e.do(t, http.MethodGet, "/api/parishes/PAR-017/staff/active?position=secretary", staffToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/api/parishes/PAR-017/staff/active?position=bellringer", staffToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown position, got %d", rec.Code)
	}
}
