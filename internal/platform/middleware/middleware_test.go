package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curia/internal/token"
	id "curia/pkg/domain"
	"curia/pkg/requestcontext"
)

var tokens = token.NewService("test-key", "curia-test", time.Hour)

func TestRequireStaffInjectsActor(t *testing.T) {
	staffID := id.NewStaffID()
	signed, err := tokens.IssueStaff(staffID, id.ParishID("PAR-017"), time.Now())
	require.NoError(t, err)

	var got id.StaffID
	handler := RequireStaff(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.ActorID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, staffID, got)
}

func TestRequireStaffRejections(t *testing.T) {
	overseerToken, err := tokens.IssueOverseer("chancery-01", "Msgr. Overseer", id.DioceseBacolod, time.Now())
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
		"wrong audience": "Bearer " + overseerToken,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			handler := RequireStaff(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireOverseerInjectsIdentity(t *testing.T) {
	signed, err := tokens.IssueOverseer("chancery-01", "Msgr. Overseer", id.DioceseKabankalan, time.Now())
	require.NoError(t, err)

	var got Overseer
	handler := RequireOverseer(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = GetOverseer(r.Context())
		require.True(t, ok)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chancery-01", got.ID)
	assert.Equal(t, id.DioceseKabankalan, got.Diocese)
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "upstream-id", seen)
}

func TestClientMetadata(t *testing.T) {
	var ip, agent string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		agent = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", ip)
	assert.Contains(t, agent, "Chrome")
}
