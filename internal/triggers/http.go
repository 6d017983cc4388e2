package triggers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPInvoker posts the event envelope to an external handler process and
// reads the returned envelope. Non-200 status or an undecodable body is a
// hook error.
type HTTPInvoker struct {
	endpoint string
	client   *http.Client
}

// NewHTTPInvoker returns an invoker for the given endpoint. client may be
// nil; then http.DefaultClient is used (invocation timeouts come from the
// runtime's context).
func NewHTTPInvoker(endpoint string, client *http.Client) *HTTPInvoker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPInvoker{endpoint: endpoint, client: client}
}

// Invoke posts the event and decodes the response envelope.
func (h *HTTPInvoker) Invoke(ctx context.Context, event Event) (Event, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return Event{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return Event{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return Event{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Event{}, fmt.Errorf("handler returned %d: %s", resp.StatusCode, data)
	}
	var out Event
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Event{}, fmt.Errorf("decode handler response: %w", err)
	}
	return out, nil
}
