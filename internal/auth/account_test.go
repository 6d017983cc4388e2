package auth

import (
	"context"
	"testing"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/pool/domain"
)

func loginTokens(t *testing.T, h *harness, username, password string) (access, refresh string) {
	t.Helper()
	res, err := h.svc.InitiateAuth(context.Background(), testClientID, domain.FlowUserPasswordAuth,
		passwordParams(username, password))
	if err != nil || res.Tokens == nil {
		t.Fatalf("login %s: res=%+v err=%v", username, res, err)
	}
	return res.Tokens.AccessToken, res.Tokens.RefreshToken
}

func TestUserFromAccessToken(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.addUser(t, confirmedUser("alice", "Password1!"))
	ctx := context.Background()
	access, _ := loginTokens(t, h, "alice", "Password1!")

	st, user, err := h.svc.UserFromAccessToken(ctx, access)
	if err != nil {
		t.Fatalf("UserFromAccessToken: %v", err)
	}
	if user.Username != "alice" || st.Pool().ID != testPoolID {
		t.Errorf("resolved %q in pool %q", user.Username, st.Pool().ID)
	}

	_, _, err = h.svc.UserFromAccessToken(ctx, "not-a-jwt")
	wantErrType(t, err, apperr.ErrNotAuthorized)

	// A valid token no longer authorizes a disabled user.
	u := h.store.GetUserByUsername("alice")
	u.Enabled = false
	if err := h.store.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	_, _, err = h.svc.UserFromAccessToken(ctx, access)
	wantErrType(t, err, apperr.ErrNotAuthorized)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.addUser(t, confirmedUser("alice", "Password1!"))
	ctx := context.Background()
	access, _ := loginTokens(t, h, "alice", "Password1!")

	err := h.svc.ChangePassword(ctx, access, "wrong", "NewPass1!")
	wantErrType(t, err, apperr.ErrNotAuthorized)

	if err := h.svc.ChangePassword(ctx, access, "Password1!", "NewPass1!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	loginTokens(t, h, "alice", "NewPass1!")
}

func TestChangePassword_PolicyViolation(t *testing.T) {
	h := newHarness(t, domain.UserPool{Policy: domain.PasswordPolicy{RequireSymbols: true}})
	h.addUser(t, confirmedUser("alice", "Password1!"))
	access, _ := loginTokens(t, h, "alice", "Password1!")

	err := h.svc.ChangePassword(context.Background(), access, "Password1!", "NoSymbols1")
	if !errorsIsPolicy(err) {
		t.Fatalf("err = %v, want policy violation", err)
	}
}

func TestGlobalSignOut(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.addUser(t, confirmedUser("alice", "Password1!"))
	ctx := context.Background()

	access, refresh1 := loginTokens(t, h, "alice", "Password1!")
	_, refresh2 := loginTokens(t, h, "alice", "Password1!")

	if err := h.svc.GlobalSignOut(ctx, access); err != nil {
		t.Fatalf("GlobalSignOut: %v", err)
	}
	for _, refresh := range []string{refresh1, refresh2} {
		_, err := h.svc.InitiateAuth(ctx, testClientID, domain.FlowRefreshTokenAuth,
			map[string]string{"REFRESH_TOKEN": refresh})
		wantErrType(t, err, apperr.ErrNotAuthorized)
	}
}

func TestRevokeToken(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.addUser(t, confirmedUser("alice", "Password1!"))
	ctx := context.Background()

	_, refresh1 := loginTokens(t, h, "alice", "Password1!")
	_, refresh2 := loginTokens(t, h, "alice", "Password1!")

	if err := h.svc.RevokeToken(ctx, testClientID, refresh1); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	_, err := h.svc.InitiateAuth(ctx, testClientID, domain.FlowRefreshTokenAuth,
		map[string]string{"REFRESH_TOKEN": refresh1})
	wantErrType(t, err, apperr.ErrNotAuthorized)

	// The other token survives.
	if _, err := h.svc.InitiateAuth(ctx, testClientID, domain.FlowRefreshTokenAuth,
		map[string]string{"REFRESH_TOKEN": refresh2}); err != nil {
		t.Fatalf("second token should still refresh: %v", err)
	}

	// Unknown tokens revoke as a no-op.
	if err := h.svc.RevokeToken(ctx, testClientID, "unknown-token"); err != nil {
		t.Fatalf("RevokeToken unknown: %v", err)
	}
	if err := h.svc.RevokeToken(ctx, testClientID, ""); err == nil {
		t.Fatal("empty token should be rejected")
	}
}
