package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/preston-bernstein/homefeed-service/internal/testutil"
)

type stubResetter struct {
	resets []bool
}

func (s *stubResetter) Reset(ctx context.Context, clearCooldown bool) {
	_ = ctx
	s.resets = append(s.resets, clearCooldown)
}

func adminRequest(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAdminResetRequiresAuth(t *testing.T) {
	svc := &stubResetter{}
	h := NewAdminHandler(svc, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset", ""))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset", "wrong"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	if len(svc.resets) != 0 {
		t.Fatalf("expected no resets, got %d", len(svc.resets))
	}
}

func TestAdminResetRejectsWhenTokenUnset(t *testing.T) {
	h := NewAdminHandler(&stubResetter{}, "", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset", "anything"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestAdminResetClearsCache(t *testing.T) {
	svc := &stubResetter{}
	h := NewAdminHandler(svc, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset", "secret"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp map[string]any
	testutil.DecodeJSON(t, rr, &resp)
	if resp["status"] != "ok" || resp["clearedCooldown"] != false {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(svc.resets) != 1 || svc.resets[0] {
		t.Fatalf("expected one cache-only reset, got %+v", svc.resets)
	}
}

func TestAdminResetClearsCooldownWhenAsked(t *testing.T) {
	svc := &stubResetter{}
	h := NewAdminHandler(svc, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset?cooldown=true", "secret"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	if len(svc.resets) != 1 || !svc.resets[0] {
		t.Fatalf("expected cooldown reset, got %+v", svc.resets)
	}
}

func TestAdminResetRejectsInvalidFlag(t *testing.T) {
	svc := &stubResetter{}
	h := NewAdminHandler(svc, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset?cooldown=maybe", "secret"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	if len(svc.resets) != 0 {
		t.Fatalf("expected no reset on bad flag")
	}
}

func TestAdminResetRequiresPost(t *testing.T) {
	h := NewAdminHandler(&stubResetter{}, "secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/home/reset", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), req)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestAdminResetWithoutService(t *testing.T) {
	h := NewAdminHandler(nil, "secret", nil)

	rr := testutil.ServeRequest(http.HandlerFunc(h.ResetHome), adminRequest("/admin/home/reset", "secret"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}
