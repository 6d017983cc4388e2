package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/keys"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/triggers"
)

var (
	keyOnce   sync.Once
	testKeys  *keys.Store
	keysError error
)

func testKeyStore(t *testing.T) *keys.Store {
	t.Helper()
	keyOnce.Do(func() {
		testKeys, keysError = keys.Load("", t.TempDir())
	})
	if keysError != nil {
		t.Fatalf("keys.Load: %v", keysError)
	}
	return testKeys
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testGenerator(t *testing.T, rt *triggers.Runtime) *Generator {
	t.Helper()
	clk := clock.Fixed{T: testNow}
	ids := &clock.SequenceIDs{IDs: []string{"origin-jti", "event-id", "jti-access", "jti-id"}}
	return New(testKeyStore(t), clk, ids, rt, "http://localhost:9229/")
}

func testPool() *domain.UserPool {
	return &domain.UserPool{ID: "local_a", AccessTokenValidity: 3600, IDTokenValidity: 1800}
}

func testClient() *domain.AppClient {
	return &domain.AppClient{ClientID: "client-1", UserPoolID: "local_a"}
}

func tokenUser() *domain.User {
	return &domain.User{
		Username: "alice",
		Attributes: domain.Attributes{
			{Name: domain.AttrSub, Value: "sub-1"},
			{Name: domain.AttrEmail, Value: "alice@example.com"},
			{Name: domain.AttrEmailVerified, Value: "true"},
			{Name: "custom:tier", Value: "gold"},
		},
		Status:  domain.UserStatusConfirmed,
		Enabled: true,
	}
}

func decodeClaims(t *testing.T, jwtString string) map[string]any {
	t.Helper()
	parts := strings.Split(jwtString, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("unmarshal claims: %v", err)
	}
	return claims
}

func TestGenerate_AccessClaims(t *testing.T) {
	g := testGenerator(t, nil)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		[]string{"admins"}, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims := decodeClaims(t, set.AccessToken)
	if claims["sub"] != "sub-1" {
		t.Errorf("sub = %v", claims["sub"])
	}
	if claims["iss"] != "http://localhost:9229/local_a" {
		t.Errorf("iss = %v", claims["iss"])
	}
	if claims["client_id"] != "client-1" {
		t.Errorf("client_id = %v", claims["client_id"])
	}
	if claims["token_use"] != "access" {
		t.Errorf("token_use = %v", claims["token_use"])
	}
	if claims["scope"] != "aws.cognito.signin.user.admin" {
		t.Errorf("scope = %v", claims["scope"])
	}
	if claims["username"] != "alice" {
		t.Errorf("username = %v", claims["username"])
	}
	iat, exp := int64(claims["iat"].(float64)), int64(claims["exp"].(float64))
	if iat != testNow.Unix() {
		t.Errorf("iat = %d, want %d", iat, testNow.Unix())
	}
	if exp-iat != 3600 {
		t.Errorf("exp-iat = %d, want 3600", exp-iat)
	}
	groups, ok := claims["cognito:groups"].([]any)
	if !ok || len(groups) != 1 || groups[0] != "admins" {
		t.Errorf("cognito:groups = %v", claims["cognito:groups"])
	}
	if set.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d", set.ExpiresIn)
	}
}

func TestGenerate_IDClaims(t *testing.T) {
	g := testGenerator(t, nil)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		nil, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims := decodeClaims(t, set.IDToken)
	if claims["aud"] != "client-1" {
		t.Errorf("aud = %v", claims["aud"])
	}
	if claims["token_use"] != "id" {
		t.Errorf("token_use = %v", claims["token_use"])
	}
	if claims["cognito:username"] != "alice" {
		t.Errorf("cognito:username = %v", claims["cognito:username"])
	}
	if claims["email"] != "alice@example.com" {
		t.Errorf("email = %v", claims["email"])
	}
	// Verified flags become JSON booleans.
	if claims["email_verified"] != true {
		t.Errorf("email_verified = %v (%T)", claims["email_verified"], claims["email_verified"])
	}
	if claims["custom:tier"] != "gold" {
		t.Errorf("custom:tier = %v", claims["custom:tier"])
	}
	iat, exp := int64(claims["iat"].(float64)), int64(claims["exp"].(float64))
	if exp-iat != 1800 {
		t.Errorf("exp-iat = %d, want 1800", exp-iat)
	}
	if _, present := claims["cognito:groups"]; present {
		t.Error("cognito:groups should be absent for a user with no groups")
	}
}

func TestGenerate_SharedIdentifiers(t *testing.T) {
	g := testGenerator(t, nil)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		nil, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	access := decodeClaims(t, set.AccessToken)
	id := decodeClaims(t, set.IDToken)
	if access["origin_jti"] != id["origin_jti"] {
		t.Error("origin_jti differs between tokens")
	}
	if access["event_id"] != id["event_id"] {
		t.Error("event_id differs between tokens")
	}
	if access["jti"] == id["jti"] {
		t.Error("jti should differ between tokens")
	}
}

func TestGenerate_RefreshTokenOpaque(t *testing.T) {
	g := testGenerator(t, nil)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		nil, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(set.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token is not raw-url base64: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("refresh token is %d bytes, want 32", len(raw))
	}
}

type overrideInvoker struct {
	response map[string]any
}

func (o overrideInvoker) Invoke(_ context.Context, event triggers.Event) (triggers.Event, error) {
	event.Response = o.response
	return event, nil
}

func TestGenerate_PreTokenGenerationOverride(t *testing.T) {
	rt := triggers.NewRuntime(clock.Fixed{T: testNow})
	rt.Bind("local_a", triggers.PreTokenGeneration, overrideInvoker{response: map[string]any{
		"claimsAndScopeOverrideDetails": map[string]any{
			"claimsToAddOrOverride": map[string]any{
				"tenant": "acme",
				"sub":    "evil", // protected, must not apply
			},
			"claimsToSuppress": []any{"email", "iss"}, // iss is protected
			"groupOverrideDetails": map[string]any{
				"groupsToOverride": []any{"ops"},
			},
		},
	}}, 0)

	g := testGenerator(t, rt)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		[]string{"admins"}, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	access := decodeClaims(t, set.AccessToken)
	id := decodeClaims(t, set.IDToken)

	// Added claims land in both tokens.
	if access["tenant"] != "acme" || id["tenant"] != "acme" {
		t.Errorf("tenant: access=%v id=%v", access["tenant"], id["tenant"])
	}
	// Protected claims survive both override and suppression.
	if access["sub"] != "sub-1" || id["sub"] != "sub-1" {
		t.Errorf("sub was overridden: access=%v id=%v", access["sub"], id["sub"])
	}
	if access["iss"] == nil || id["iss"] == nil {
		t.Error("iss was suppressed")
	}
	// email exists only on the ID token; suppression removes it there.
	if _, present := id["email"]; present {
		t.Error("email not suppressed on ID token")
	}
	// The group override replaces the membership list in both tokens.
	groups, _ := access["cognito:groups"].([]any)
	if len(groups) != 1 || groups[0] != "ops" {
		t.Errorf("access cognito:groups = %v", access["cognito:groups"])
	}
}

func TestVerify(t *testing.T) {
	g := testGenerator(t, nil)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		nil, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := g.Verify(set.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub != "sub-1" || claims.Username != "alice" || claims.ClientID != "client-1" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "http://localhost:9229/local_a" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}

	// ID tokens are not bearer credentials.
	if _, err := g.Verify(set.IDToken); err == nil {
		t.Error("Verify should reject an ID token")
	}
	if _, err := g.Verify("not.a.jwt"); err == nil {
		t.Error("Verify should reject garbage")
	}
}

func TestVerify_Expired(t *testing.T) {
	g := testGenerator(t, nil)
	set, err := g.Generate(context.Background(), testPool(), testClient(), tokenUser(),
		nil, triggers.SourceTokenAuthentication)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	late := New(testKeyStore(t), clock.Fixed{T: testNow.Add(2 * time.Hour)}, clock.UUIDSource{}, nil, "http://localhost:9229")
	if _, err := late.Verify(set.AccessToken); err == nil {
		t.Error("Verify should reject an expired token")
	}
}
