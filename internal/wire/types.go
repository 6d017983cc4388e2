// Package wire defines the AWS Cognito Identity Provider JSON-1.1 request
// and response shapes served by the emulator. Field names match the wire
// member names; timestamps are epoch seconds.
package wire

import (
	"strconv"
	"time"
)

// Time marshals as fractional epoch seconds, the AWS JSON timestamp format.
type Time struct {
	time.Time
}

// NewTime wraps t for wire serialization.
func NewTime(t time.Time) Time { return Time{t} }

// MarshalJSON encodes the timestamp as fractional epoch seconds.
func (t Time) MarshalJSON() ([]byte, error) {
	sec := float64(t.UnixMilli()) / 1000.0
	return []byte(strconv.FormatFloat(sec, 'f', 3, 64)), nil
}

// UnmarshalJSON accepts epoch seconds (integer or fractional).
func (t *Time) UnmarshalJSON(data []byte) error {
	sec, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(int64(sec * 1000)).UTC()
	return nil
}

// AttributeType is one user attribute name/value pair.
type AttributeType struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// MFAOptionType is one registered second factor.
type MFAOptionType struct {
	DeliveryMedium string `json:"DeliveryMedium,omitempty"`
	AttributeName  string `json:"AttributeName,omitempty"`
}

// AuthenticationResultType carries the issued tokens.
type AuthenticationResultType struct {
	AccessToken  string `json:"AccessToken,omitempty"`
	IdToken      string `json:"IdToken,omitempty"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	ExpiresIn    int    `json:"ExpiresIn,omitempty"`
	TokenType    string `json:"TokenType,omitempty"`
}

// CodeDeliveryDetailsType describes where a code was sent.
type CodeDeliveryDetailsType struct {
	Destination    string `json:"Destination,omitempty"`
	DeliveryMedium string `json:"DeliveryMedium,omitempty"`
	AttributeName  string `json:"AttributeName,omitempty"`
}

// UserType is the user shape in list and admin responses.
type UserType struct {
	Username             string          `json:"Username"`
	Attributes           []AttributeType `json:"Attributes,omitempty"`
	UserCreateDate       Time            `json:"UserCreateDate"`
	UserLastModifiedDate Time            `json:"UserLastModifiedDate"`
	Enabled              bool            `json:"Enabled"`
	UserStatus           string          `json:"UserStatus,omitempty"`
	MFAOptions           []MFAOptionType `json:"MFAOptions,omitempty"`
}

// GroupType is the group shape in responses.
type GroupType struct {
	GroupName        string `json:"GroupName"`
	UserPoolId       string `json:"UserPoolId,omitempty"`
	Description      string `json:"Description,omitempty"`
	RoleArn          string `json:"RoleArn,omitempty"`
	Precedence       *int   `json:"Precedence,omitempty"`
	CreationDate     Time   `json:"CreationDate"`
	LastModifiedDate Time   `json:"LastModifiedDate"`
}

// SchemaAttributeType is one schema descriptor in pool responses.
type SchemaAttributeType struct {
	Name              string `json:"Name"`
	AttributeDataType string `json:"AttributeDataType,omitempty"`
	Mutable           bool   `json:"Mutable"`
	Required          bool   `json:"Required"`
}

// PasswordPolicyType is the pool password policy on the wire.
type PasswordPolicyType struct {
	MinimumLength    int  `json:"MinimumLength,omitempty"`
	RequireUppercase bool `json:"RequireUppercase"`
	RequireLowercase bool `json:"RequireLowercase"`
	RequireNumbers   bool `json:"RequireNumbers"`
	RequireSymbols   bool `json:"RequireSymbols"`
}

// UserPoolPolicyType wraps the password policy.
type UserPoolPolicyType struct {
	PasswordPolicy *PasswordPolicyType `json:"PasswordPolicy,omitempty"`
}

// UserPoolType is the full pool shape.
type UserPoolType struct {
	Id                     string                `json:"Id"`
	Name                   string                `json:"Name"`
	MfaConfiguration       string                `json:"MfaConfiguration,omitempty"`
	Policies               *UserPoolPolicyType   `json:"Policies,omitempty"`
	AutoVerifiedAttributes []string              `json:"AutoVerifiedAttributes,omitempty"`
	SchemaAttributes       []SchemaAttributeType `json:"SchemaAttributes,omitempty"`
	CreationDate           Time                  `json:"CreationDate"`
	LastModifiedDate       Time                  `json:"LastModifiedDate"`
}

// UserPoolDescriptionType is the abbreviated pool shape in list responses.
type UserPoolDescriptionType struct {
	Id               string `json:"Id"`
	Name             string `json:"Name"`
	CreationDate     Time   `json:"CreationDate"`
	LastModifiedDate Time   `json:"LastModifiedDate"`
}

// UserPoolClientType is the app client shape.
type UserPoolClientType struct {
	ClientId             string   `json:"ClientId"`
	UserPoolId           string   `json:"UserPoolId"`
	ClientName           string   `json:"ClientName,omitempty"`
	ClientSecret         string   `json:"ClientSecret,omitempty"`
	ExplicitAuthFlows    []string `json:"ExplicitAuthFlows,omitempty"`
	AccessTokenValidity  int      `json:"AccessTokenValidity,omitempty"`
	IdTokenValidity      int      `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity int      `json:"RefreshTokenValidity,omitempty"`
	ReadAttributes       []string `json:"ReadAttributes,omitempty"`
	WriteAttributes      []string `json:"WriteAttributes,omitempty"`
	CreationDate         Time     `json:"CreationDate"`
	LastModifiedDate     Time     `json:"LastModifiedDate"`
}

// UserPoolClientDescription is the abbreviated client shape in lists.
type UserPoolClientDescription struct {
	ClientId   string `json:"ClientId"`
	UserPoolId string `json:"UserPoolId"`
	ClientName string `json:"ClientName,omitempty"`
}

// SMSMfaSettingsType toggles SMS MFA for a user.
type SMSMfaSettingsType struct {
	Enabled      bool `json:"Enabled"`
	PreferredMfa bool `json:"PreferredMfa"`
}

// SoftwareTokenMfaSettingsType toggles TOTP MFA for a user.
type SoftwareTokenMfaSettingsType struct {
	Enabled      bool `json:"Enabled"`
	PreferredMfa bool `json:"PreferredMfa"`
}
