package triggers

import (
	"context"
	"errors"
	"testing"
	"time"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/pool/domain"
)

// stubInvoker records the event it received and returns a canned response.
type stubInvoker struct {
	got      Event
	response map[string]any
	err      error
}

func (s *stubInvoker) Invoke(_ context.Context, event Event) (Event, error) {
	s.got = event
	if s.err != nil {
		return Event{}, s.err
	}
	event.Response = s.response
	return event, nil
}

func testRuntime() *Runtime {
	return NewRuntime(clock.Fixed{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)})
}

func testAttributes(pairs ...string) domain.Attributes {
	var attrs domain.Attributes
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs = attrs.Set(pairs[i], pairs[i+1])
	}
	return attrs
}

func TestInvoke_NotBound(t *testing.T) {
	rt := testRuntime()
	_, err := rt.Invoke(context.Background(), "local_a", PreSignUp, "PreSignUp_SignUp", Event{})
	if !errors.Is(err, ErrNotBound) {
		t.Fatalf("err = %v, want ErrNotBound", err)
	}
	if rt.Enabled("local_a", PreSignUp) {
		t.Error("Enabled should be false for an unbound hook")
	}
}

func TestInvoke_FillsEnvelope(t *testing.T) {
	rt := testRuntime()
	stub := &stubInvoker{response: map[string]any{}}
	rt.Bind("local_a", PreAuthentication, stub, 0)

	_, err := rt.Invoke(context.Background(), "local_a", PreAuthentication,
		"PreAuthentication_Authentication", Event{UserName: "alice"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if stub.got.Version != "1" {
		t.Errorf("Version = %q", stub.got.Version)
	}
	if stub.got.TriggerSource != "PreAuthentication_Authentication" {
		t.Errorf("TriggerSource = %q", stub.got.TriggerSource)
	}
	if stub.got.UserPoolID != "local_a" {
		t.Errorf("UserPoolID = %q", stub.got.UserPoolID)
	}
	if stub.got.Request == nil || stub.got.Response == nil {
		t.Error("Request and Response must be non-nil maps")
	}
}

func TestInvoke_HandlerError(t *testing.T) {
	rt := testRuntime()
	rt.Bind("local_a", PostAuthentication, &stubInvoker{err: errors.New("boom")}, 0)
	_, err := rt.Invoke(context.Background(), "local_a", PostAuthentication,
		"PostAuthentication_Authentication", Event{})
	if err == nil || errors.Is(err, ErrNotBound) {
		t.Fatalf("err = %v, want handler error", err)
	}
}

func TestInvokeUserMigration(t *testing.T) {
	rt := testRuntime()
	stub := &stubInvoker{response: map[string]any{
		"userAttributes":  map[string]any{"email": "alice@example.com"},
		"finalUserStatus": "CONFIRMED",
		"messageAction":   "SUPPRESS",
	}}
	rt.Bind("local_a", UserMigration, stub, 0)

	m, err := rt.InvokeUserMigration(context.Background(), "local_a", "client", "alice", "pw", "UserMigration_Authentication")
	if err != nil {
		t.Fatalf("InvokeUserMigration: %v", err)
	}
	if m == nil {
		t.Fatal("migration declined unexpectedly")
	}
	if email, _ := m.Attributes.Get("email"); email != "alice@example.com" {
		t.Errorf("email = %q", email)
	}
	if m.FinalUserStatus != domain.UserStatusConfirmed {
		t.Errorf("FinalUserStatus = %q", m.FinalUserStatus)
	}
	if m.MessageAction != "SUPPRESS" {
		t.Errorf("MessageAction = %q", m.MessageAction)
	}
	if stub.got.Request["password"] != "pw" {
		t.Error("password not passed in request")
	}
}

func TestInvokeUserMigration_Declined(t *testing.T) {
	rt := testRuntime()
	// No userAttributes in the response means the handler declined.
	rt.Bind("local_a", UserMigration, &stubInvoker{response: map[string]any{}}, 0)
	m, err := rt.InvokeUserMigration(context.Background(), "local_a", "client", "alice", "pw", "UserMigration_Authentication")
	if err != nil {
		t.Fatalf("InvokeUserMigration: %v", err)
	}
	if m != nil {
		t.Fatalf("m = %+v, want nil", m)
	}
}

func TestInvokePreSignUp(t *testing.T) {
	rt := testRuntime()
	rt.Bind("local_a", PreSignUp, &stubInvoker{response: map[string]any{
		"autoConfirmUser": true,
		"autoVerifyEmail": true,
	}}, 0)
	res, err := rt.InvokePreSignUp(context.Background(), "local_a", "client", "alice", domain.Attributes{
		{Name: "email", Value: "alice@example.com"},
	})
	if err != nil {
		t.Fatalf("InvokePreSignUp: %v", err)
	}
	if !res.AutoConfirmUser || !res.AutoVerifyEmail || res.AutoVerifyPhone {
		t.Errorf("res = %+v", res)
	}
}

func TestInvokePreTokenGeneration_V2(t *testing.T) {
	rt := testRuntime()
	rt.Bind("local_a", PreTokenGeneration, &stubInvoker{response: map[string]any{
		"claimsAndScopeOverrideDetails": map[string]any{
			"claimsToAddOrOverride": map[string]any{"tenant": "acme"},
			"claimsToSuppress":      []any{"email"},
			"groupOverrideDetails": map[string]any{
				"groupsToOverride": []any{"ops"},
			},
		},
	}}, 0)

	ov, err := rt.InvokePreTokenGeneration(context.Background(), "local_a", "client", "alice",
		SourceTokenAuthentication, nil, []string{"admins"})
	if err != nil {
		t.Fatalf("InvokePreTokenGeneration: %v", err)
	}
	if ov.ClaimsToAddOrOverride["tenant"] != "acme" {
		t.Errorf("ClaimsToAddOrOverride = %v", ov.ClaimsToAddOrOverride)
	}
	if len(ov.ClaimsToSuppress) != 1 || ov.ClaimsToSuppress[0] != "email" {
		t.Errorf("ClaimsToSuppress = %v", ov.ClaimsToSuppress)
	}
	if !ov.HasGroupOverride || len(ov.GroupsToOverride) != 1 || ov.GroupsToOverride[0] != "ops" {
		t.Errorf("group override = %v (has=%v)", ov.GroupsToOverride, ov.HasGroupOverride)
	}
}

func TestInvokePreTokenGeneration_V1Fallback(t *testing.T) {
	rt := testRuntime()
	rt.Bind("local_a", PreTokenGeneration, &stubInvoker{response: map[string]any{
		"claimsOverrideDetails": map[string]any{
			"claimsToAddOrOverride": map[string]any{"plan": "pro"},
		},
	}}, 0)
	ov, err := rt.InvokePreTokenGeneration(context.Background(), "local_a", "client", "alice",
		SourceTokenRefresh, nil, nil)
	if err != nil {
		t.Fatalf("InvokePreTokenGeneration: %v", err)
	}
	if ov.ClaimsToAddOrOverride["plan"] != "pro" {
		t.Errorf("ClaimsToAddOrOverride = %v", ov.ClaimsToAddOrOverride)
	}
	if ov.HasGroupOverride {
		t.Error("no group override expected")
	}
}

func TestInvokeCustomMessage(t *testing.T) {
	rt := testRuntime()
	stub := &stubInvoker{response: map[string]any{
		"emailSubject": "Welcome",
		"emailMessage": "Code: 1234",
	}}
	rt.Bind("local_a", CustomMessage, stub, 0)
	ov, err := rt.InvokeCustomMessage(context.Background(), "local_a", "client", "alice",
		"CustomMessage_SignUp", "1234", nil)
	if err != nil {
		t.Fatalf("InvokeCustomMessage: %v", err)
	}
	if ov.EmailSubject != "Welcome" || ov.EmailMessage != "Code: 1234" {
		t.Errorf("override = %+v", ov)
	}
	if stub.got.Request["codeParameter"] != "1234" {
		t.Error("codeParameter not passed")
	}
}

func TestUnboundHooksAreSoft(t *testing.T) {
	rt := testRuntime()
	ctx := context.Background()
	if err := rt.InvokePreAuthentication(ctx, "local_a", "c", "u", nil); err != nil {
		t.Errorf("PreAuthentication: %v", err)
	}
	if err := rt.InvokePostAuthentication(ctx, "local_a", "c", "u", nil); err != nil {
		t.Errorf("PostAuthentication: %v", err)
	}
	if err := rt.InvokePostConfirmation(ctx, "local_a", "c", "u", "PostConfirmation_ConfirmSignUp", nil); err != nil {
		t.Errorf("PostConfirmation: %v", err)
	}
	if _, err := rt.InvokeUserMigration(ctx, "local_a", "c", "u", "pw", "UserMigration_Authentication"); !errors.Is(err, ErrNotBound) {
		t.Errorf("UserMigration err = %v, want ErrNotBound", err)
	}
}
