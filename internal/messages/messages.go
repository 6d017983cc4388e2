// Package messages renders and records code-delivery messages. Nothing is
// actually sent: every delivery is appended to a JSON-lines log so tests
// and developers can read the codes back.
package messages

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/triggers"
)

// Delivery medium values on the wire.
const (
	MediumEmail = "EMAIL"
	MediumSMS   = "SMS"
)

// Delivery is one recorded message.
type Delivery struct {
	Time        time.Time `json:"time"`
	UserPoolID  string    `json:"userPoolId"`
	Username    string    `json:"username"`
	Medium      string    `json:"deliveryMedium"`
	Destination string    `json:"destination"`
	Source      string    `json:"source"`
	Code        string    `json:"code"`
	Subject     string    `json:"subject,omitempty"`
	Body        string    `json:"body"`
}

// Details describes a delivery the way the wire reports it: the masked
// destination, the medium, and the attribute the code was sent to.
type Details struct {
	Destination   string
	Medium        string
	AttributeName string
}

// Sender renders messages, consults the CustomMessage and custom sender
// triggers, and appends each delivery to the log file.
type Sender struct {
	runtime *triggers.Runtime
	clock   clock.Clock
	logger  zerolog.Logger
	path    string

	mu sync.Mutex
}

// NewSender returns a Sender writing to path. An empty path disables the
// file log; deliveries are still logged through logger.
func NewSender(runtime *triggers.Runtime, clk clock.Clock, logger zerolog.Logger, path string) *Sender {
	return &Sender{runtime: runtime, clock: clk, logger: logger, path: path}
}

// Deliver records a code message for user. The medium is chosen from the
// user's attributes: email wins over phone_number. Delivery is best-effort
// and never fails the calling operation; the returned Details are nil when
// the user has no destination attribute.
//
// A bound CustomEmailSender or CustomSMSSender hook takes over delivery for
// its medium: the code is handed to the handler and nothing is recorded
// locally. A failing sender hook falls back to the default recording.
func (s *Sender) Deliver(ctx context.Context, pool *domain.UserPool, clientID string, user *domain.User, source, code string) *Details {
	medium, destination, attrName := destinationFor(user)
	if medium == "" {
		return nil
	}

	details := &Details{
		Destination:   Mask(medium, destination),
		Medium:        medium,
		AttributeName: attrName,
	}

	if s.runtime != nil {
		hook := triggers.CustomEmailSender
		if medium == MediumSMS {
			hook = triggers.CustomSMSSender
		}
		err := s.runtime.InvokeCustomSender(ctx, hook, pool.ID, clientID, user.Username, source, code, user.Attributes)
		switch {
		case errors.Is(err, triggers.ErrNotBound):
		case err != nil:
			s.logger.Warn().Err(err).Str("pool_id", pool.ID).Str("trigger_source", source).
				Msg("custom sender trigger failed, recording default delivery")
		default:
			s.logger.Info().Str("pool_id", pool.ID).Str("username", user.Username).
				Str("medium", medium).Str("destination", details.Destination).
				Str("trigger_source", source).Msg("message handed to custom sender")
			return details
		}
	}

	subject, body := defaultTemplate(medium, source, code)
	if s.runtime != nil {
		ov, err := s.runtime.InvokeCustomMessage(ctx, pool.ID, clientID, user.Username, source, code, user.Attributes)
		switch {
		case errors.Is(err, triggers.ErrNotBound):
		case err != nil:
			s.logger.Warn().Err(err).Str("pool_id", pool.ID).Str("trigger_source", source).
				Msg("custom message trigger failed, using default template")
		default:
			if medium == MediumSMS && ov.SMSMessage != "" {
				body = ov.SMSMessage
			}
			if medium == MediumEmail {
				if ov.EmailMessage != "" {
					body = ov.EmailMessage
				}
				if ov.EmailSubject != "" {
					subject = ov.EmailSubject
				}
			}
		}
	}

	d := Delivery{
		Time:        s.clock.Now(),
		UserPoolID:  pool.ID,
		Username:    user.Username,
		Medium:      medium,
		Destination: destination,
		Source:      source,
		Code:        code,
		Subject:     subject,
		Body:        body,
	}
	s.append(d)
	s.logger.Info().Str("pool_id", pool.ID).Str("username", user.Username).
		Str("medium", medium).Str("destination", details.Destination).
		Str("trigger_source", source).Msg("message delivered")

	return details
}

// append writes one JSON line to the delivery log. Best-effort: failures
// are logged and not returned.
func (s *Sender) append(d Delivery) {
	if s.path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to open message log")
		return
	}
	defer f.Close()
	line, err := json.Marshal(d)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode message log entry")
		return
	}
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to append to message log")
	}
}

// destinationFor picks the delivery medium and destination attribute for
// user. Email wins over phone_number.
func destinationFor(user *domain.User) (medium, destination, attrName string) {
	if email := user.Email(); email != "" {
		return MediumEmail, email, domain.AttrEmail
	}
	if phone := user.PhoneNumber(); phone != "" {
		return MediumSMS, phone, domain.AttrPhoneNumber
	}
	return "", "", ""
}

func defaultTemplate(medium, source, code string) (subject, body string) {
	switch {
	case strings.HasPrefix(source, "CustomMessage_ForgotPassword") || strings.HasPrefix(source, "ForgotPassword"):
		subject = "Your password reset code"
		body = "Your password reset code is " + code
	case strings.HasPrefix(source, "CustomMessage_Authentication") || strings.HasPrefix(source, "Authentication"):
		subject = "Your sign-in code"
		body = "Your sign-in code is " + code
	default:
		subject = "Your verification code"
		body = "Your verification code is " + code
	}
	if medium == MediumSMS {
		subject = ""
	}
	return subject, body
}

// Mask obscures a destination the way the wire reports it: e.g.
// j***@e***.com for email, +*******1234 for phone.
func Mask(medium, destination string) string {
	switch medium {
	case MediumEmail:
		return maskEmail(destination)
	case MediumSMS:
		return maskPhone(destination)
	default:
		return destination
	}
}

func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local, dom := email[:at], email[at+1:]
	dot := strings.LastIndexByte(dom, '.')
	if dot <= 0 {
		return string(local[0]) + "***@***"
	}
	return string(local[0]) + "***@" + string(dom[0]) + "***" + dom[dot:]
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "+***"
	}
	return "+*******" + phone[len(phone)-4:]
}
