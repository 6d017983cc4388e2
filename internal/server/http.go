package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/keys"
	"cognito-emulator/internal/storage"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP front.
type Options struct {
	Registry   Registry
	Keys       *keys.Store
	Backend    storage.Backend
	Cognito    *cognito.Service
	IssuerBase string
	Logger     zerolog.Logger
	// DevRoutes exposes /dev/otp; never enable in anything user-facing.
	DevRoutes bool
}

// Router builds the emulator's HTTP handler: the single-path target
// dispatcher plus the JWKS, discovery, health, and optional dev routes.
func Router(opts Options) http.Handler {
	s := &httpServer{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/", s.dispatch)
	r.Get("/health", s.health)
	r.Get("/{poolID}/.well-known/jwks.json", s.jwks)
	r.Get("/{poolID}/.well-known/openid-configuration", s.openIDConfiguration)
	if opts.DevRoutes {
		r.Get("/dev/otp", s.devOTP)
	}
	return r
}

type httpServer struct {
	opts Options
}

// dispatch routes a POST / request by its X-Amz-Target header.
func (s *httpServer) dispatch(w http.ResponseWriter, r *http.Request) {
	op, ok := targetOperation(r.Header.Get("X-Amz-Target"))
	if !ok {
		s.writeError(w, apperr.InvalidParameter("Missing or malformed X-Amz-Target header"))
		return
	}
	h, ok := s.opts.Registry[op]
	if !ok {
		s.writeError(w, apperr.Unsupported("operation "+op))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, apperr.InvalidParameter("Unreadable request body"))
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	ctx, span := otel.Tracer("cognito-emulator/server").Start(r.Context(), op)
	defer span.End()
	span.SetAttributes(attribute.String("cognito.operation", op))

	resp, err := h(ctx, json.RawMessage(body))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, err)
		return
	}
	if resp == nil {
		resp = struct{}{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// targetOperation extracts the operation name from an X-Amz-Target value.
func targetOperation(header string) (string, bool) {
	prefix := Target + "."
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	op := header[len(prefix):]
	return op, op != ""
}

func (s *httpServer) writeError(w http.ResponseWriter, err error) {
	status, typ, msg := apperr.Wire(err)
	if status >= 500 {
		s.opts.Logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"__type": typ, "message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/x-amz-json-1.1")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// health reports liveness and backend reachability.
func (s *httpServer) health(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Backend.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jwks serves the signing key set. The pool id is part of the path for SDK
// compatibility but every pool shares the process key.
func (s *httpServer) jwks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.opts.Keys.JWKS())
}

func (s *httpServer) openIDConfiguration(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	issuer := strings.TrimRight(s.opts.IssuerBase, "/") + "/" + poolID
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":   issuer,
		"jwks_uri": issuer + "/.well-known/jwks.json",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

// devOTP exposes a user's pending codes for local debugging.
func (s *httpServer) devOTP(w http.ResponseWriter, r *http.Request) {
	poolID := r.URL.Query().Get("userPoolId")
	username := r.URL.Query().Get("username")
	if poolID == "" || username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userPoolId and username are required"})
		return
	}
	st, err := s.opts.Cognito.GetUserPool(r.Context(), poolID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user pool not found"})
		return
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username":         user.Username,
		"confirmationCode": user.ConfirmationCode,
		"mfaCode":          user.MFACode,
	})
}

// logRequests is the zerolog access-log middleware.
func (s *httpServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.opts.Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("target", r.Header.Get("X-Amz-Target")).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
