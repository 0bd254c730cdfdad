package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/middleware"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/repositories"
	"github.com/mroshb/skill_swap/internal/security"
	"github.com/mroshb/skill_swap/internal/services"
	"github.com/mroshb/skill_swap/pkg/errors"
)

const testSecret = "test_secret_key_minimum_32_chars"

type testServer struct {
	router *gin.Engine
	store  *repositories.MemorySwapStore

	alice, bob, carol, admin uint
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, maxPending int, limiter *middleware.RateLimiter, routerCfg RouterConfig) *testServer {
	t.Helper()
	ctx := context.Background()

	users := repositories.NewMemoryUserDirectory()
	create := func(name, role string) uint {
		u := &models.User{DisplayName: name, Email: name + "@example.com", Role: role}
		if err := users.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", name, err)
		}
		return u.ID
	}

	srv := &testServer{
		store: repositories.NewMemorySwapStore(),
		alice: create("alice", models.RoleUser),
		bob:   create("bob", models.RoleUser),
		carol: create("carol", models.RoleUser),
		admin: create("admin", models.RoleAdmin),
	}

	swaps := services.NewSwapService(srv.store, users, maxPending)
	admin := services.NewAdminService(srv.store, users)
	handler := NewHandler(swaps, admin, srv.store, "memory")

	routerCfg.JWTSecret = testSecret
	routerCfg.Limiter = limiter
	srv.router = NewRouter(handler, routerCfg)
	return srv
}

func (s *testServer) token(t *testing.T, userID uint) string {
	t.Helper()
	role := models.RoleUser
	if userID == s.admin {
		role = models.RoleAdmin
	}
	token, err := security.GenerateJWT(userID, role, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(t, userID))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) propose(t *testing.T, from, to uint, offered, wanted string) models.SwapOffer {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/swaps", from, ProposeRequest{RequestedFrom: to, OfferedSkill: offered, WantedSkill: wanted})
	if w.Code != http.StatusCreated {
		t.Fatalf("propose: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var offer models.SwapOffer
	if err := json.Unmarshal(w.Body.Bytes(), &offer); err != nil {
		t.Fatalf("decode offer: %v", err)
	}
	return offer
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, resp.Code, resp.Message)
	}
}

func TestPropose_Created(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})

	offer := srv.propose(t, srv.alice, srv.bob, "Guitar", "Piano")

	if offer.Status != models.SwapStatusPending {
		t.Errorf("Status = %q, want pending", offer.Status)
	}
	if offer.OfferedBy != srv.alice || offer.RequestedFrom != srv.bob {
		t.Errorf("parties = %d -> %d", offer.OfferedBy, offer.RequestedFrom)
	}
	if offer.RequestedFromUser == nil || offer.RequestedFromUser.DisplayName != "bob" {
		t.Errorf("missing counterparty brief: %+v", offer.RequestedFromUser)
	}
}

func TestPropose_Errors(t *testing.T) {
	srv := newTestServer(t, 2, nil, RouterConfig{})
	srv.propose(t, srv.alice, srv.bob, "Guitar", "Piano")
	srv.propose(t, srv.carol, srv.bob, "Drums", "Piano")
	srv.propose(t, srv.carol, srv.bob, "Bass", "Piano")

	tests := []struct {
		name   string
		from   uint
		body   interface{}
		status int
		code   string
	}{
		{name: "self swap", from: srv.bob, body: ProposeRequest{RequestedFrom: srv.bob, OfferedSkill: "A", WantedSkill: "B"}, status: http.StatusBadRequest, code: errors.ErrCodeValidation},
		{name: "empty skill", from: srv.bob, body: ProposeRequest{RequestedFrom: srv.alice, OfferedSkill: " ", WantedSkill: "B"}, status: http.StatusBadRequest, code: errors.ErrCodeValidation},
		{name: "unknown counterparty", from: srv.bob, body: ProposeRequest{RequestedFrom: 999, OfferedSkill: "A", WantedSkill: "B"}, status: http.StatusBadRequest, code: errors.ErrCodeValidation},
		{name: "malformed body", from: srv.bob, body: "not an object", status: http.StatusBadRequest, code: errors.ErrCodeValidation},
		{name: "duplicate pending", from: srv.alice, body: ProposeRequest{RequestedFrom: srv.bob, OfferedSkill: "Guitar", WantedSkill: "Piano"}, status: http.StatusConflict, code: errors.ErrCodeDuplicatePendingOffer},
		{name: "quota", from: srv.carol, body: ProposeRequest{RequestedFrom: srv.alice, OfferedSkill: "Flute", WantedSkill: "Piano"}, status: http.StatusTooManyRequests, code: errors.ErrCodeQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/v1/swaps", tt.from, tt.body)
			expectError(t, w, tt.status, tt.code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})

	w := srv.do(t, http.MethodGet, "/api/v1/swaps", 0, nil)
	expectError(t, w, http.StatusUnauthorized, errors.ErrCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/swaps", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	expectError(t, w, http.StatusUnauthorized, errors.ErrCodeUnauthorized)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/swaps", nil)
	req.Header.Set("Authorization", "Token "+srv.token(t, srv.alice))
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	expectError(t, w, http.StatusUnauthorized, errors.ErrCodeUnauthorized)
}

func TestSwapLifecycle(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})
	offer := srv.propose(t, srv.alice, srv.bob, "Guitar", "Piano")
	base := "/api/v1/swaps/" + offer.ID.String()

	// The proposer can never respond to their own offer.
	w := srv.do(t, http.MethodPut, base+"/respond", srv.alice, RespondRequest{Decision: "accept"})
	expectError(t, w, http.StatusForbidden, errors.ErrCodeForbidden)

	w = srv.do(t, http.MethodPut, base+"/respond", srv.bob, RespondRequest{Decision: "maybe"})
	expectError(t, w, http.StatusBadRequest, errors.ErrCodeValidation)

	w = srv.do(t, http.MethodPut, base+"/cancel", srv.bob, nil)
	expectError(t, w, http.StatusForbidden, errors.ErrCodeForbidden)

	w = srv.do(t, http.MethodPut, base+"/respond", srv.bob, RespondRequest{Decision: "accept"})
	if w.Code != http.StatusOK {
		t.Fatalf("respond: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodPut, base+"/cancel", srv.alice, nil)
	expectError(t, w, http.StatusConflict, errors.ErrCodeInvalidTransition)

	w = srv.do(t, http.MethodPut, base+"/complete", srv.alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var completed models.SwapOffer
	json.Unmarshal(w.Body.Bytes(), &completed)
	if completed.Status != models.SwapStatusCompleted {
		t.Errorf("Status = %q, want completed", completed.Status)
	}

	w = srv.do(t, http.MethodPut, base+"/complete", srv.bob, nil)
	expectError(t, w, http.StatusConflict, errors.ErrCodeInvalidTransition)
}

func TestGetSwap(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})
	offer := srv.propose(t, srv.alice, srv.bob, "Guitar", "Piano")

	w := srv.do(t, http.MethodGet, "/api/v1/swaps/"+offer.ID.String(), srv.bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/swaps/"+offer.ID.String(), srv.carol, nil)
	expectError(t, w, http.StatusForbidden, errors.ErrCodeForbidden)

	w = srv.do(t, http.MethodGet, "/api/v1/swaps/"+uuid.NewString(), srv.bob, nil)
	expectError(t, w, http.StatusNotFound, errors.ErrCodeNotFound)

	w = srv.do(t, http.MethodGet, "/api/v1/swaps/not-a-uuid", srv.bob, nil)
	expectError(t, w, http.StatusBadRequest, errors.ErrCodeValidation)
}

func TestListSwaps(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})
	first := srv.propose(t, srv.alice, srv.bob, "Guitar", "Piano")
	srv.propose(t, srv.carol, srv.alice, "Chess", "Go")

	w := srv.do(t, http.MethodPut, "/api/v1/swaps/"+first.ID.String()+"/respond", srv.bob, RespondRequest{Decision: "reject"})
	if w.Code != http.StatusOK {
		t.Fatalf("respond: expected 200, got %d", w.Code)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/swaps", srv.alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list SwapListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 2 || list.Swaps[0].ID != first.ID {
		t.Errorf("expected the rejected offer first, got %+v", list)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/swaps?status=pending", srv.alice, nil)
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 1 || list.Swaps[0].OfferedSkill != "Chess" {
		t.Errorf("pending filter returned %+v", list)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/swaps?status=bogus", srv.alice, nil)
	expectError(t, w, http.StatusBadRequest, errors.ErrCodeValidation)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})
	offer := srv.propose(t, srv.alice, srv.bob, "Guitar", "Piano")

	w := srv.do(t, http.MethodGet, "/api/v1/admin/swaps", srv.alice, nil)
	expectError(t, w, http.StatusForbidden, errors.ErrCodeForbidden)

	w = srv.do(t, http.MethodGet, "/api/v1/admin/swaps", srv.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list: expected 200, got %d", w.Code)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/admin/swaps/stats", srv.admin, nil)
	var stats StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 || stats.ByStatus[models.SwapStatusPending] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if _, ok := stats.ByStatus[models.SwapStatusCompleted]; !ok {
		t.Error("stats should include zero counts")
	}

	w = srv.do(t, http.MethodGet, "/api/v1/admin/swaps/export", srv.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("export body is empty")
	}

	w = srv.do(t, http.MethodDelete, "/api/v1/admin/swaps/"+offer.ID.String(), srv.admin, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = srv.do(t, http.MethodDelete, "/api/v1/admin/swaps/"+offer.ID.String(), srv.admin, nil)
	expectError(t, w, http.StatusNotFound, errors.ErrCodeNotFound)
}

func TestStorageErrorHidesDetail(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})
	srv.store.FailNext(fmt.Errorf("pq: password authentication failed"))

	w := srv.do(t, http.MethodGet, "/api/v1/swaps", srv.alice, nil)
	expectError(t, w, http.StatusInternalServerError, errors.ErrCodeStorage)
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Error("storage error detail leaked to the client")
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})

	w := srv.do(t, http.MethodGet, "/health", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	srv.store.FailNext(fmt.Errorf("down"))
	w = srv.do(t, http.MethodGet, "/health", 0, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{})

	w := srv.do(t, http.MethodGet, "/health", 0, nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want the caller's id", got)
	}
}

func TestMetricsBasicAuth(t *testing.T) {
	srv := newTestServer(t, 5, nil, RouterConfig{MetricsUser: "prom", MetricsPass: "secret"})

	w := srv.do(t, http.MethodGet, "/metrics", 0, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "secret")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, 100, time.Minute)
	defer limiter.Stop()
	srv := newTestServer(t, 5, limiter, RouterConfig{})

	for i := 0; i < 2; i++ {
		w := srv.do(t, http.MethodGet, "/api/v1/swaps", srv.alice, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := srv.do(t, http.MethodGet, "/api/v1/swaps", srv.alice, nil)
	expectError(t, w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded)

	w = srv.do(t, http.MethodGet, "/api/v1/swaps", srv.bob, nil)
	if w.Code != http.StatusOK {
		t.Errorf("other users should not be limited, got %d", w.Code)
	}
}
