package auth

import (
	"context"
	"errors"
	"testing"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/otp"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/triggers"
)

func signupAttrs(email string) domain.Attributes {
	return domain.Attributes{{Name: domain.AttrEmail, Value: email}}
}

func TestSignUpAndConfirm(t *testing.T) {
	h := newHarness(t, domain.UserPool{AutoVerifiedAttributes: []string{domain.AttrEmail}})
	ctx := context.Background()

	res, err := h.svc.SignUp(ctx, testClientID, "alice", "Password1!", signupAttrs("alice@example.com"))
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if res.Confirmed {
		t.Error("sign-up should start unconfirmed")
	}
	if res.Sub == "" {
		t.Error("no sub assigned")
	}
	if res.Delivery == nil || res.Delivery.Medium != "EMAIL" {
		t.Fatalf("delivery = %+v", res.Delivery)
	}

	// Login before confirmation is rejected.
	_, err = h.svc.InitiateAuth(ctx, testClientID, domain.FlowUserPasswordAuth,
		passwordParams("alice", "Password1!"))
	wantErrType(t, err, apperr.ErrUserNotConfirmed)

	if err := h.svc.ConfirmSignUp(ctx, testClientID, "alice", "000000"); err == nil {
		t.Fatal("wrong code must not confirm")
	}
	if err := h.svc.ConfirmSignUp(ctx, testClientID, "alice", otp.DeterministicCode); err != nil {
		t.Fatalf("ConfirmSignUp: %v", err)
	}

	u := h.store.GetUserByUsername("alice")
	if u.Status != domain.UserStatusConfirmed {
		t.Errorf("status = %q", u.Status)
	}
	if u.ConfirmationCode != "" {
		t.Error("confirmation code not cleared")
	}
	if v, _ := u.Attributes.Get(domain.AttrEmailVerified); v != "true" {
		t.Error("auto-verified email attribute not set")
	}

	login, err := h.svc.InitiateAuth(ctx, testClientID, domain.FlowUserPasswordAuth,
		passwordParams("alice", "Password1!"))
	if err != nil || login.Tokens == nil {
		t.Fatalf("login after confirm: res=%+v err=%v", login, err)
	}
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.addUser(t, confirmedUser("alice", "Password1!"))

	_, err := h.svc.SignUp(context.Background(), testClientID, "ALICE", "Password1!", nil)
	wantErrType(t, err, apperr.ErrUsernameExists)
}

func errorsIsPolicy(err error) bool {
	return errors.Is(err, &apperr.Error{Type: apperr.TypeInvalidPassword})
}

func TestSignUp_PolicyViolation(t *testing.T) {
	h := newHarness(t, domain.UserPool{Policy: domain.PasswordPolicy{MinimumLength: 12}})

	_, err := h.svc.SignUp(context.Background(), testClientID, "alice", "Short1!", nil)
	if !errorsIsPolicy(err) {
		t.Fatalf("err = %v, want policy violation", err)
	}
}

func TestSignUp_PreSignUpAutoConfirm(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.runtime.Bind(testPoolID, triggers.PreSignUp, autoConfirmInvoker{}, 0)
	ctx := context.Background()

	res, err := h.svc.SignUp(ctx, testClientID, "alice", "Password1!", signupAttrs("alice@example.com"))
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if !res.Confirmed {
		t.Error("hook should auto-confirm")
	}
	if res.Delivery != nil {
		t.Error("auto-confirmed sign-up must not send a code")
	}
	u := h.store.GetUserByUsername("alice")
	if v, _ := u.Attributes.Get(domain.AttrEmailVerified); v != "true" {
		t.Error("hook should auto-verify email")
	}
}

type autoConfirmInvoker struct{}

func (autoConfirmInvoker) Invoke(_ context.Context, event triggers.Event) (triggers.Event, error) {
	event.Response = map[string]any{"autoConfirmUser": true, "autoVerifyEmail": true}
	return event, nil
}

func TestResendConfirmationCode(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	ctx := context.Background()

	if _, err := h.svc.SignUp(ctx, testClientID, "alice", "Password1!", signupAttrs("alice@example.com")); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	d, err := h.svc.ResendConfirmationCode(ctx, testClientID, "alice")
	if err != nil {
		t.Fatalf("ResendConfirmationCode: %v", err)
	}
	if d == nil || d.Medium != "EMAIL" {
		t.Fatalf("delivery = %+v", d)
	}

	if err := h.svc.ConfirmSignUp(ctx, testClientID, "alice", otp.DeterministicCode); err != nil {
		t.Fatalf("ConfirmSignUp: %v", err)
	}
	if _, err := h.svc.ResendConfirmationCode(ctx, testClientID, "alice"); err == nil {
		t.Fatal("resend for a confirmed user must fail")
	}
}

func TestForgotPasswordFlow(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.addUser(t, confirmedUser("alice", "OldPass1!"))
	ctx := context.Background()

	d, err := h.svc.ForgotPassword(ctx, testClientID, "alice")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if d == nil || d.Medium != "EMAIL" {
		t.Fatalf("delivery = %+v", d)
	}

	err = h.svc.ConfirmForgotPassword(ctx, testClientID, "alice", "000000", "NewPass1!")
	wantErrType(t, err, apperr.ErrCodeMismatch)

	if err := h.svc.ConfirmForgotPassword(ctx, testClientID, "alice", otp.DeterministicCode, "NewPass1!"); err != nil {
		t.Fatalf("ConfirmForgotPassword: %v", err)
	}

	// The old password stops working, the new one logs in.
	_, err = h.svc.InitiateAuth(ctx, testClientID, domain.FlowUserPasswordAuth,
		passwordParams("alice", "OldPass1!"))
	wantErrType(t, err, apperr.ErrNotAuthorized)

	res, err := h.svc.InitiateAuth(ctx, testClientID, domain.FlowUserPasswordAuth,
		passwordParams("alice", "NewPass1!"))
	if err != nil || res.Tokens == nil {
		t.Fatalf("login with new password: res=%+v err=%v", res, err)
	}
}

func TestForgotPassword_UnknownUser(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	_, err := h.svc.ForgotPassword(context.Background(), testClientID, "ghost")
	wantErrType(t, err, apperr.ErrUserNotFound)
}

func TestForgotPassword_MigratesAbsentUser(t *testing.T) {
	h := newHarness(t, domain.UserPool{})
	h.runtime.Bind(testPoolID, triggers.UserMigration, migrationInvoker{}, 0)
	ctx := context.Background()

	d, err := h.svc.ForgotPassword(ctx, testClientID, "legacy-user")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if d == nil {
		t.Fatal("no delivery for migrated user")
	}
	if h.store.GetUserByUsername("legacy-user") == nil {
		t.Fatal("migration did not persist the user")
	}
}

func TestConfirmForgotPassword_PolicyViolation(t *testing.T) {
	h := newHarness(t, domain.UserPool{Policy: domain.PasswordPolicy{RequireNumbers: true}})
	h.addUser(t, confirmedUser("alice", "OldPass1!"))
	ctx := context.Background()

	if _, err := h.svc.ForgotPassword(ctx, testClientID, "alice"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	err := h.svc.ConfirmForgotPassword(ctx, testClientID, "alice", otp.DeterministicCode, "NoDigitsHere!")
	if !errorsIsPolicy(err) {
		t.Fatalf("err = %v, want policy violation", err)
	}
}
