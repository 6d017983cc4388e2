package messages

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/triggers"
)

var testClock = clock.Fixed{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

func testUser(attrs ...domain.Attribute) *domain.User {
	return &domain.User{Username: "alice", Attributes: attrs, Enabled: true}
}

func TestDeliver_EmailPreferred(t *testing.T) {
	s := NewSender(triggers.NewRuntime(testClock), testClock, zerolog.Nop(), "")
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(
		domain.Attribute{Name: domain.AttrEmail, Value: "alice@example.com"},
		domain.Attribute{Name: domain.AttrPhoneNumber, Value: "+15551234567"},
	)

	d := s.Deliver(context.Background(), pool, "client", user, "CustomMessage_SignUp", "123456")
	if d == nil {
		t.Fatal("Deliver returned nil")
	}
	if d.Medium != MediumEmail {
		t.Errorf("Medium = %q, want EMAIL", d.Medium)
	}
	if d.AttributeName != domain.AttrEmail {
		t.Errorf("AttributeName = %q", d.AttributeName)
	}
	if d.Destination != "a***@e***.com" {
		t.Errorf("Destination = %q", d.Destination)
	}
}

func TestDeliver_SMSFallback(t *testing.T) {
	s := NewSender(triggers.NewRuntime(testClock), testClock, zerolog.Nop(), "")
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrPhoneNumber, Value: "+15551234567"})

	d := s.Deliver(context.Background(), pool, "client", user, "CustomMessage_SignUp", "123456")
	if d == nil {
		t.Fatal("Deliver returned nil")
	}
	if d.Medium != MediumSMS {
		t.Errorf("Medium = %q, want SMS", d.Medium)
	}
	if d.Destination != "+*******4567" {
		t.Errorf("Destination = %q", d.Destination)
	}
}

func TestDeliver_NoDestination(t *testing.T) {
	s := NewSender(triggers.NewRuntime(testClock), testClock, zerolog.Nop(), "")
	pool := &domain.UserPool{ID: "local_a"}
	if d := s.Deliver(context.Background(), pool, "client", testUser(), "CustomMessage_SignUp", "1"); d != nil {
		t.Fatalf("d = %+v, want nil", d)
	}
}

func TestDeliver_WritesLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	s := NewSender(triggers.NewRuntime(testClock), testClock, zerolog.Nop(), path)
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrEmail, Value: "alice@example.com"})

	s.Deliver(context.Background(), pool, "client", user, "CustomMessage_ForgotPassword", "654321")
	s.Deliver(context.Background(), pool, "client", user, "CustomMessage_SignUp", "111111")

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	var lines []Delivery
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var d Delivery
		if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		lines = append(lines, d)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	first := lines[0]
	if first.Code != "654321" {
		t.Errorf("Code = %q", first.Code)
	}
	// The log keeps the unmasked destination so developers can read codes back.
	if first.Destination != "alice@example.com" {
		t.Errorf("Destination = %q", first.Destination)
	}
	if first.Subject != "Your password reset code" {
		t.Errorf("Subject = %q", first.Subject)
	}
}

type messageOverrideInvoker struct{}

func (messageOverrideInvoker) Invoke(_ context.Context, event triggers.Event) (triggers.Event, error) {
	event.Response = map[string]any{
		"emailSubject": "Custom subject",
		"emailMessage": "Custom body",
	}
	return event, nil
}

func TestDeliver_CustomMessageOverride(t *testing.T) {
	rt := triggers.NewRuntime(testClock)
	rt.Bind("local_a", triggers.CustomMessage, messageOverrideInvoker{}, 0)
	path := filepath.Join(t.TempDir(), "messages.log")
	s := NewSender(rt, testClock, zerolog.Nop(), path)
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrEmail, Value: "alice@example.com"})

	s.Deliver(context.Background(), pool, "client", user, "CustomMessage_SignUp", "123456")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var d Delivery
	if err := json.Unmarshal(data[:len(data)-1], &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Subject != "Custom subject" || d.Body != "Custom body" {
		t.Errorf("subject=%q body=%q", d.Subject, d.Body)
	}
}

type recordingSenderInvoker struct {
	events []triggers.Event
	err    error
}

func (r *recordingSenderInvoker) Invoke(_ context.Context, event triggers.Event) (triggers.Event, error) {
	r.events = append(r.events, event)
	return event, r.err
}

func TestDeliver_CustomEmailSenderTakesOver(t *testing.T) {
	rt := triggers.NewRuntime(testClock)
	inv := &recordingSenderInvoker{}
	rt.Bind("local_a", triggers.CustomEmailSender, inv, 0)
	path := filepath.Join(t.TempDir(), "messages.log")
	s := NewSender(rt, testClock, zerolog.Nop(), path)
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrEmail, Value: "alice@example.com"})

	d := s.Deliver(context.Background(), pool, "client", user, "CustomEmailSender_SignUp", "123456")
	if d == nil {
		t.Fatal("Deliver returned nil")
	}
	if d.Destination != "a***@e***.com" || d.Medium != MediumEmail {
		t.Errorf("details = %+v", d)
	}
	if len(inv.events) != 1 {
		t.Fatalf("handler invoked %d times, want 1", len(inv.events))
	}
	if code, _ := inv.events[0].Request["code"].(string); code != "123456" {
		t.Errorf("code = %q", code)
	}
	// The handler owns delivery; nothing is recorded locally.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("message log written despite custom sender: %v", err)
	}
}

func TestDeliver_CustomSMSSenderTakesOver(t *testing.T) {
	rt := triggers.NewRuntime(testClock)
	inv := &recordingSenderInvoker{}
	rt.Bind("local_a", triggers.CustomSMSSender, inv, 0)
	path := filepath.Join(t.TempDir(), "messages.log")
	s := NewSender(rt, testClock, zerolog.Nop(), path)
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrPhoneNumber, Value: "+15551234567"})

	d := s.Deliver(context.Background(), pool, "client", user, "CustomSMSSender_Authentication", "654321")
	if d == nil || d.Medium != MediumSMS {
		t.Fatalf("details = %+v", d)
	}
	if len(inv.events) != 1 {
		t.Fatalf("handler invoked %d times, want 1", len(inv.events))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("message log written despite custom sender: %v", err)
	}
}

func TestDeliver_CustomSenderWrongMedium(t *testing.T) {
	// An SMS sender binding must not intercept email delivery.
	rt := triggers.NewRuntime(testClock)
	inv := &recordingSenderInvoker{}
	rt.Bind("local_a", triggers.CustomSMSSender, inv, 0)
	path := filepath.Join(t.TempDir(), "messages.log")
	s := NewSender(rt, testClock, zerolog.Nop(), path)
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrEmail, Value: "alice@example.com"})

	s.Deliver(context.Background(), pool, "client", user, "CustomMessage_SignUp", "123456")

	if len(inv.events) != 0 {
		t.Fatalf("SMS sender invoked for an email delivery")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default delivery not recorded: %v", err)
	}
}

func TestDeliver_CustomSenderFailureFallsBack(t *testing.T) {
	rt := triggers.NewRuntime(testClock)
	inv := &recordingSenderInvoker{err: context.DeadlineExceeded}
	rt.Bind("local_a", triggers.CustomEmailSender, inv, 0)
	path := filepath.Join(t.TempDir(), "messages.log")
	s := NewSender(rt, testClock, zerolog.Nop(), path)
	pool := &domain.UserPool{ID: "local_a"}
	user := testUser(domain.Attribute{Name: domain.AttrEmail, Value: "alice@example.com"})

	d := s.Deliver(context.Background(), pool, "client", user, "CustomMessage_SignUp", "123456")
	if d == nil {
		t.Fatal("Deliver returned nil")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var rec Delivery
	if err := json.Unmarshal(data[:len(data)-1], &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != "123456" {
		t.Errorf("Code = %q", rec.Code)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		medium, in, want string
	}{
		{MediumEmail, "alice@example.com", "a***@e***.com"},
		{MediumEmail, "b@x.io", "b***@x***.io"},
		{MediumEmail, "nodomain", "***"},
		{MediumSMS, "+15551234567", "+*******4567"},
		{MediumSMS, "123", "+***"},
	}
	for _, tt := range tests {
		if got := Mask(tt.medium, tt.in); got != tt.want {
			t.Errorf("Mask(%s, %q) = %q, want %q", tt.medium, tt.in, got, tt.want)
		}
	}
}
