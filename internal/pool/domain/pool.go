// Package domain holds the user-pool aggregate types: pools, users, groups,
// and app clients. The pool owns all tables; secondary indexes are derived
// on load and never persisted.
package domain

import "time"

// MFAConfiguration is the pool-level MFA mode.
type MFAConfiguration string

// Pool MFA modes.
const (
	MFAOff      MFAConfiguration = "OFF"
	MFAOptional MFAConfiguration = "OPTIONAL"
	MFAOn       MFAConfiguration = "ON"
)

// PasswordPolicy is the pool password policy: minimum length plus required
// character classes.
type PasswordPolicy struct {
	MinimumLength    int  `json:"MinimumLength"`
	RequireUppercase bool `json:"RequireUppercase"`
	RequireLowercase bool `json:"RequireLowercase"`
	RequireNumbers   bool `json:"RequireNumbers"`
	RequireSymbols   bool `json:"RequireSymbols"`
}

// Check returns an empty string if password satisfies the policy, otherwise
// a human-readable description of the first failed requirement.
func (p PasswordPolicy) Check(password string) string {
	minLen := p.MinimumLength
	if minLen <= 0 {
		minLen = 8
	}
	if len(password) < minLen {
		return "Password did not conform with policy: Password not long enough"
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	switch {
	case p.RequireUppercase && !hasUpper:
		return "Password did not conform with policy: Password must have uppercase characters"
	case p.RequireLowercase && !hasLower:
		return "Password did not conform with policy: Password must have lowercase characters"
	case p.RequireNumbers && !hasNumber:
		return "Password did not conform with policy: Password must have numeric characters"
	case p.RequireSymbols && !hasSymbol:
		return "Password did not conform with policy: Password must have symbol characters"
	}
	return ""
}

// SchemaAttribute describes one attribute in the pool schema.
type SchemaAttribute struct {
	Name              string `json:"Name"`
	AttributeDataType string `json:"AttributeDataType"`
	Mutable           bool   `json:"Mutable"`
	Required          bool   `json:"Required"`
}

// UserPool is the unit of isolation: a namespace of users, groups, clients,
// and configuration. Token validities are in seconds.
type UserPool struct {
	ID                     string            `json:"Id"`
	Name                   string            `json:"Name"`
	MFAConfiguration       MFAConfiguration  `json:"MfaConfiguration"`
	Policy                 PasswordPolicy    `json:"Policy"`
	AutoVerifiedAttributes []string          `json:"AutoVerifiedAttributes"`
	Schema                 []SchemaAttribute `json:"SchemaAttributes"`
	AccessTokenValidity    int               `json:"AccessTokenValidity"`
	IDTokenValidity        int               `json:"IdTokenValidity"`
	RefreshTokenValidity   int               `json:"RefreshTokenValidity"`
	CreatedAt              time.Time         `json:"CreationDate"`
	UpdatedAt              time.Time         `json:"LastModifiedDate"`
}

// Defaults when the pool does not configure validities.
const (
	DefaultAccessTokenValidity  = 24 * 60 * 60
	DefaultIDTokenValidity      = 24 * 60 * 60
	DefaultRefreshTokenValidity = 30 * 24 * 60 * 60
)

// AccessValidity returns the access-token lifetime in seconds, defaulted.
func (p *UserPool) AccessValidity() int {
	if p.AccessTokenValidity > 0 {
		return p.AccessTokenValidity
	}
	return DefaultAccessTokenValidity
}

// IDValidity returns the ID-token lifetime in seconds, defaulted.
func (p *UserPool) IDValidity() int {
	if p.IDTokenValidity > 0 {
		return p.IDTokenValidity
	}
	return DefaultIDTokenValidity
}

// RefreshValidity returns the refresh-token lifetime in seconds, defaulted.
func (p *UserPool) RefreshValidity() int {
	if p.RefreshTokenValidity > 0 {
		return p.RefreshTokenValidity
	}
	return DefaultRefreshTokenValidity
}

// SchemaFor returns the schema attribute with the given name, or nil.
// Standard attributes absent from the schema are treated as mutable strings.
func (p *UserPool) SchemaFor(name string) *SchemaAttribute {
	for i := range p.Schema {
		if p.Schema[i].Name == name {
			return &p.Schema[i]
		}
	}
	return nil
}

// AutoVerifies reports whether the pool auto-verifies the given attribute
// ("email" or "phone_number").
func (p *UserPool) AutoVerifies(attr string) bool {
	for _, a := range p.AutoVerifiedAttributes {
		if a == attr {
			return true
		}
	}
	return false
}
