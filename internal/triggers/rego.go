package triggers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// regoQuery is the document a handler module must define: the response
// payload for the event it was invoked with.
const regoQuery = "data.triggers.response"

// RegoInvoker evaluates an inline Rego module with the event envelope as
// input. The module's data.triggers.response document becomes the event's
// response payload.
type RegoInvoker struct {
	compiler *ast.Compiler
}

// NewRegoInvoker compiles the module once; compilation errors surface at
// config load, not at invocation time.
func NewRegoInvoker(module string) (*RegoInvoker, error) {
	compiler, err := ast.CompileModules(map[string]string{"handler.rego": module})
	if err != nil {
		return nil, fmt.Errorf("compile handler: %w", err)
	}
	return &RegoInvoker{compiler: compiler}, nil
}

// Invoke evaluates the module. A handler that defines no response document
// is an error, matching the behavior of an external handler returning an
// empty body.
func (r *RegoInvoker) Invoke(ctx context.Context, event Event) (Event, error) {
	input, err := toInput(event)
	if err != nil {
		return Event{}, err
	}
	q := rego.New(
		rego.Query(regoQuery),
		rego.Compiler(r.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("eval handler: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Event{}, fmt.Errorf("handler returned no response document")
	}
	resp, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return Event{}, fmt.Errorf("handler response is not an object")
	}
	event.Response = normalizeJSON(resp)
	return event, nil
}

// toInput round-trips the event through JSON so OPA sees plain maps.
func toInput(event Event) (map[string]any, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return input, nil
}

// normalizeJSON converts OPA result values (json.Number etc.) into plain
// JSON-compatible values.
func normalizeJSON(v map[string]any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
