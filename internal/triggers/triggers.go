// Package triggers resolves pool lifecycle hooks to user-supplied handlers
// and runs them with per-hook timeouts. Handlers are opaque invocables:
// either an inline Rego module evaluated in-process or an external HTTP
// endpoint receiving the event envelope.
package triggers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cognito-emulator/internal/clock"
)

// Hook names the recognized lifecycle hooks.
type Hook string

// Lifecycle hooks.
const (
	UserMigration      Hook = "UserMigration"
	PreSignUp          Hook = "PreSignUp"
	PostConfirmation   Hook = "PostConfirmation"
	PreAuthentication  Hook = "PreAuthentication"
	PostAuthentication Hook = "PostAuthentication"
	PreTokenGeneration Hook = "PreTokenGeneration"
	CustomMessage      Hook = "CustomMessage"
	CustomEmailSender  Hook = "CustomEmailSender"
	CustomSMSSender    Hook = "CustomSMSSender"
)

// Trigger sources for PreTokenGeneration.
const (
	SourceTokenAuthentication = "TokenGeneration_Authentication"
	SourceTokenRefresh        = "TokenGeneration_RefreshTokens"
)

// DefaultTimeout bounds a single handler invocation unless the binding
// overrides it.
const DefaultTimeout = 5 * time.Second

// ErrNotBound is returned by Invoke when the pool does not bind the hook.
var ErrNotBound = errors.New("triggers: hook not bound")

// CallerContext identifies the calling app client inside the envelope.
type CallerContext struct {
	AWSSDKVersion string `json:"awsSdkVersion"`
	ClientID      string `json:"clientId"`
}

// Event is the uniform envelope passed to every handler. Request and
// Response carry hook-specific payloads; handlers return the envelope with
// Response filled in.
type Event struct {
	Version       string         `json:"version"`
	TriggerSource string         `json:"triggerSource"`
	Region        string         `json:"region"`
	UserPoolID    string         `json:"userPoolId"`
	UserName      string         `json:"userName"`
	CallerContext CallerContext  `json:"callerContext"`
	Request       map[string]any `json:"request"`
	Response      map[string]any `json:"response"`
}

// Invoker runs one handler invocation. Implementations must honor ctx.
type Invoker interface {
	Invoke(ctx context.Context, event Event) (Event, error)
}

type binding struct {
	invoker Invoker
	timeout time.Duration
}

// Runtime holds per-pool hook bindings.
type Runtime struct {
	clock    clock.Clock
	bindings map[string]map[Hook]binding
}

// NewRuntime returns an empty runtime. Bindings are added by the config
// loader or, in tests, via Bind.
func NewRuntime(clk clock.Clock) *Runtime {
	return &Runtime{clock: clk, bindings: make(map[string]map[Hook]binding)}
}

// Bind attaches an invoker to a pool's hook. timeout <= 0 uses the default.
func (r *Runtime) Bind(poolID string, hook Hook, inv Invoker, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if r.bindings[poolID] == nil {
		r.bindings[poolID] = make(map[Hook]binding)
	}
	r.bindings[poolID][hook] = binding{invoker: inv, timeout: timeout}
}

// Enabled reports whether the pool binds the hook.
func (r *Runtime) Enabled(poolID string, hook Hook) bool {
	if r == nil {
		return false
	}
	_, ok := r.bindings[poolID][hook]
	return ok
}

// Invoke runs the pool's handler for hook with the event envelope. The
// invocation is bounded by the binding's timeout; exceeding it is a hook
// error. Returns ErrNotBound when the pool does not bind the hook.
func (r *Runtime) Invoke(ctx context.Context, poolID string, hook Hook, source string, event Event) (Event, error) {
	b, ok := r.bindings[poolID][hook]
	if !ok {
		return Event{}, ErrNotBound
	}
	event.Version = "1"
	event.TriggerSource = source
	event.Region = "local"
	event.UserPoolID = poolID
	if event.Request == nil {
		event.Request = map[string]any{}
	}
	if event.Response == nil {
		event.Response = map[string]any{}
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	out, err := b.invoker.Invoke(ctx, event)
	if err != nil {
		return Event{}, fmt.Errorf("triggers: %s: %w", hook, err)
	}
	return out, nil
}
