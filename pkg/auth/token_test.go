package auth

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyPair(t *testing.T) {
	m := newTestManager(t)
	access, refresh, err := m.IssuePair("user-1", "seeker")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	uid, role, err := m.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if uid != "user-1" || role != "seeker" {
		t.Fatalf("claims = (%q,%q), want (user-1,seeker)", uid, role)
	}
	if _, _, err := m.VerifyRefresh(refresh); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := newTestManager(t)
	access, refresh, err := m.IssuePair("user-1", "volunteer")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, _, err := m.VerifyAccess(refresh); err == nil {
		t.Fatalf("refresh token must not pass access verification")
	}
	if _, _, err := m.VerifyRefresh(access); err == nil {
		t.Fatalf("access token must not pass refresh verification")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewTokenManager("other-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	access, _, err := other.IssuePair("user-1", "seeker")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, _, err := m.VerifyAccess(access); err == nil {
		t.Fatalf("token signed with a different secret must be rejected")
	}
}
