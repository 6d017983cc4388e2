// Package keys holds the process-wide RSA signing key used to mint JWTs and
// exposes its public half as a JWKS document.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ErrInvalidKey is returned when PEM content or the key type is invalid.
var ErrInvalidKey = errors.New("keys: invalid key")

const keyBits = 2048

// Store is the singleton signing-key holder. The key is immutable after
// construction, so reads need no locking.
type Store struct {
	key  *rsa.PrivateKey
	kid  string
	jwks []byte
}

// Load builds a Store from pemOrPath (inline PEM or a file path). When
// pemOrPath is empty the key is loaded from dataDir/signing-key.pem, or
// generated and written there on first use.
func Load(pemOrPath, dataDir string) (*Store, error) {
	if strings.TrimSpace(pemOrPath) != "" {
		key, err := parsePrivateKey(pemOrPath)
		if err != nil {
			return nil, err
		}
		return newStore(key)
	}
	path := filepath.Join(dataDir, "signing-key.pem")
	if _, err := os.Stat(path); err == nil {
		key, err := parsePrivateKey(path)
		if err != nil {
			return nil, err
		}
		return newStore(key)
	}
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, err
	}
	if err := writeKey(path, key); err != nil {
		return nil, err
	}
	return newStore(key)
}

func newStore(key *rsa.PrivateKey) (*Store, error) {
	kid := keyID(&key.PublicKey)
	jwks, err := buildJWKS(&key.PublicKey, kid)
	if err != nil {
		return nil, err
	}
	return &Store{key: key, kid: kid, jwks: jwks}, nil
}

// Signer returns the private signing key.
func (s *Store) Signer() *rsa.PrivateKey { return s.key }

// KID returns the key id carried in JWT headers and the JWKS document.
func (s *Store) KID() string { return s.kid }

// JWKS returns the serialized JSON Web Key Set for the public key.
func (s *Store) JWKS() []byte { return s.jwks }

// keyID derives a stable key id from the public key fingerprint.
func keyID(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "cognito-emulator-key"
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:8])
}

func buildJWKS(pub *rsa.PublicKey, kid string) ([]byte, error) {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		return nil, fmt.Errorf("keys: jwk: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.AlgorithmKey, "RS256"); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, err
	}
	return json.Marshal(set)
}

// loadPEM reads content from path if s does not look like inline PEM;
// otherwise returns s as bytes.
func loadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	return os.ReadFile(s)
}

// parsePrivateKey parses a PEM-encoded RSA private key. s may be inline PEM
// or a file path.
func parsePrivateKey(s string) (*rsa.PrivateKey, error) {
	pemBytes, err := loadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrInvalidKey
		}
		return rsaKey, nil
	default:
		return nil, ErrInvalidKey
	}
}

func writeKey(path string, key *rsa.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}
