// Package token mints and verifies the emulator's JWTs.
package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/keys"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/triggers"
)

// The fixed access-token scope. The emulator does not model OAuth scopes
// beyond the admin scope Cognito grants on user-pool auth flows.
const adminScope = "aws.cognito.signin.user.admin"

// ErrInvalidToken is returned by Verify for tokens that do not parse, are
// expired, or were not minted by this key.
var ErrInvalidToken = errors.New("token: invalid token")

// Set is the token triple returned by a successful authentication.
type Set struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int
}

// Generator mints access, ID, and refresh tokens for a pool's users.
type Generator struct {
	keys    *keys.Store
	clock   clock.Clock
	ids     clock.IDSource
	runtime *triggers.Runtime
	issuer  string
}

// New returns a Generator. issuerBase is the external base URL of the
// emulator; the per-pool issuer is issuerBase + "/" + poolID.
func New(ks *keys.Store, clk clock.Clock, ids clock.IDSource, runtime *triggers.Runtime, issuerBase string) *Generator {
	return &Generator{
		keys:    ks,
		clock:   clk,
		ids:     ids,
		runtime: runtime,
		issuer:  strings.TrimRight(issuerBase, "/"),
	}
}

// Issuer returns the iss claim value for poolID.
func (g *Generator) Issuer(poolID string) string {
	return g.issuer + "/" + poolID
}

// Generate mints a full token set for user. groups is the user's group
// membership in precedence order. source is the PreTokenGeneration trigger
// source (TokenGeneration_Authentication or TokenGeneration_RefreshTokens).
func (g *Generator) Generate(ctx context.Context, pool *domain.UserPool, client *domain.AppClient, user *domain.User, groups []string, source string) (*Set, error) {
	override, err := g.tokenOverride(ctx, pool, client, user, groups, source)
	if err != nil {
		return nil, err
	}
	if override != nil && override.HasGroupOverride {
		groups = override.GroupsToOverride
	}

	now := g.clock.Now()
	originJTI := g.ids.NewID()
	eventID := g.ids.NewID()
	authTime := now.Unix()

	accessSeconds := client.AccessValidity(pool)
	access := jwt.MapClaims{
		"sub":        user.Sub(),
		"iss":        g.Issuer(pool.ID),
		"client_id":  client.ClientID,
		"origin_jti": originJTI,
		"event_id":   eventID,
		"token_use":  "access",
		"scope":      adminScope,
		"auth_time":  authTime,
		"iat":        now.Unix(),
		"exp":        now.Add(time.Duration(accessSeconds) * time.Second).Unix(),
		"jti":        g.ids.NewID(),
		"username":   user.Username,
	}
	if len(groups) > 0 {
		access["cognito:groups"] = groups
	}

	id := jwt.MapClaims{
		"sub":              user.Sub(),
		"iss":              g.Issuer(pool.ID),
		"aud":              client.ClientID,
		"origin_jti":       originJTI,
		"event_id":         eventID,
		"token_use":        "id",
		"auth_time":        authTime,
		"iat":              now.Unix(),
		"exp":              now.Add(time.Duration(client.IDValidity(pool)) * time.Second).Unix(),
		"jti":              g.ids.NewID(),
		"cognito:username": user.Username,
	}
	if len(groups) > 0 {
		id["cognito:groups"] = groups
	}
	for _, attr := range user.Attributes {
		switch attr.Name {
		case domain.AttrSub:
			// sub is already set from User.Sub.
		case domain.AttrEmailVerified, domain.AttrPhoneNumberVerified:
			id[attr.Name] = attr.Value == "true"
		default:
			id[attr.Name] = attr.Value
		}
	}

	applyOverride(access, override)
	applyOverride(id, override)

	accessToken, err := g.sign(access)
	if err != nil {
		return nil, err
	}
	idToken, err := g.sign(id)
	if err != nil {
		return nil, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	return &Set{
		AccessToken:  accessToken,
		IDToken:      idToken,
		RefreshToken: refresh,
		ExpiresIn:    accessSeconds,
	}, nil
}

// tokenOverride consults the PreTokenGeneration trigger. ErrNotBound means
// no handler; any other failure aborts token issuance.
func (g *Generator) tokenOverride(ctx context.Context, pool *domain.UserPool, client *domain.AppClient, user *domain.User, groups []string, source string) (*triggers.ClaimsOverride, error) {
	if g.runtime == nil {
		return nil, nil
	}
	override, err := g.runtime.InvokePreTokenGeneration(ctx, pool.ID, client.ClientID, user.Username, source, user.Attributes, groups)
	if errors.Is(err, triggers.ErrNotBound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return override, nil
}

func (g *Generator) sign(claims jwt.MapClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = g.keys.KID()
	signed, err := tok.SignedString(g.keys.Signer())
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// applyOverride folds a PreTokenGeneration override into claims. Protected
// claims cannot be suppressed or overridden.
func applyOverride(claims jwt.MapClaims, override *triggers.ClaimsOverride) {
	if override == nil {
		return
	}
	for name, value := range override.ClaimsToAddOrOverride {
		if protectedClaim(name) {
			continue
		}
		claims[name] = value
	}
	for _, name := range override.ClaimsToSuppress {
		if protectedClaim(name) {
			continue
		}
		delete(claims, name)
	}
}

func protectedClaim(name string) bool {
	switch name {
	case "sub", "iss", "aud", "exp", "iat", "token_use", "client_id", "jti", "origin_jti", "auth_time":
		return true
	}
	return false
}

// AccessClaims is the subset of access-token claims the service reads back
// when a caller authenticates with a bearer token.
type AccessClaims struct {
	Sub       string
	Username  string
	ClientID  string
	Issuer    string
	OriginJTI string
}

// Verify parses and validates an access token minted by this generator.
func (g *Generator) Verify(tokenString string) (*AccessClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return &g.keys.Signer().PublicKey, nil
	}, jwt.WithTimeFunc(g.clock.Now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if use, _ := claims["token_use"].(string); use != "access" {
		return nil, ErrInvalidToken
	}
	out := &AccessClaims{}
	out.Sub, _ = claims["sub"].(string)
	out.Username, _ = claims["username"].(string)
	out.ClientID, _ = claims["client_id"].(string)
	out.Issuer, _ = claims["iss"].(string)
	out.OriginJTI, _ = claims["origin_jti"].(string)
	if out.Sub == "" || out.Username == "" {
		return nil, ErrInvalidToken
	}
	return out, nil
}

// newRefreshToken returns an opaque 256-bit random token.
func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
