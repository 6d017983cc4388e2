package triggers

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cognito-emulator/internal/clock"
)

// HandlerConfig declares one hook binding in the trigger configuration
// document. Kind selects the invoker: "rego" (Module inline or File on
// disk) or "http" (Endpoint).
type HandlerConfig struct {
	Kind     string `json:"kind"`
	Module   string `json:"module,omitempty"`
	File     string `json:"file,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

// Config is the trigger configuration document: hooks per pool.
type Config struct {
	Pools map[string]map[Hook]HandlerConfig `json:"pools"`
}

// LoadConfig reads the configuration document at path and builds a runtime
// with all handlers compiled. An empty path yields a runtime with no
// bindings.
func LoadConfig(path string, clk clock.Clock) (*Runtime, error) {
	rt := NewRuntime(clk)
	if path == "" {
		return rt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("triggers: read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("triggers: parse config: %w", err)
	}
	for poolID, hooks := range cfg.Pools {
		for hook, hc := range hooks {
			inv, err := buildInvoker(hc)
			if err != nil {
				return nil, fmt.Errorf("triggers: %s/%s: %w", poolID, hook, err)
			}
			var timeout time.Duration
			if hc.Timeout != "" {
				timeout, err = time.ParseDuration(hc.Timeout)
				if err != nil {
					return nil, fmt.Errorf("triggers: %s/%s: timeout: %w", poolID, hook, err)
				}
			}
			rt.Bind(poolID, hook, inv, timeout)
		}
	}
	return rt, nil
}

func buildInvoker(hc HandlerConfig) (Invoker, error) {
	switch hc.Kind {
	case "rego":
		module := hc.Module
		if module == "" && hc.File != "" {
			data, err := os.ReadFile(hc.File)
			if err != nil {
				return nil, err
			}
			module = string(data)
		}
		if module == "" {
			return nil, fmt.Errorf("rego handler needs module or file")
		}
		return NewRegoInvoker(module)
	case "http":
		if hc.Endpoint == "" {
			return nil, fmt.Errorf("http handler needs endpoint")
		}
		return NewHTTPInvoker(hc.Endpoint, nil), nil
	default:
		return nil, fmt.Errorf("unknown handler kind %q", hc.Kind)
	}
}
