package wire

// GetUserRequest fetches the caller's record by access token.
type GetUserRequest struct {
	AccessToken string `json:"AccessToken"`
}

// GetUserResponse is the caller's record.
type GetUserResponse struct {
	Username            string          `json:"Username"`
	UserAttributes      []AttributeType `json:"UserAttributes,omitempty"`
	MFAOptions          []MFAOptionType `json:"MFAOptions,omitempty"`
	UserMFASettingList  []string        `json:"UserMFASettingList,omitempty"`
	PreferredMfaSetting string          `json:"PreferredMfaSetting,omitempty"`
}

// DeleteUserRequest deletes the caller.
type DeleteUserRequest struct {
	AccessToken string `json:"AccessToken"`
}

// UpdateUserAttributesRequest updates the caller's attributes.
type UpdateUserAttributesRequest struct {
	AccessToken    string            `json:"AccessToken"`
	UserAttributes []AttributeType   `json:"UserAttributes"`
	ClientMetadata map[string]string `json:"ClientMetadata,omitempty"`
}

// UpdateUserAttributesResponse reports any code deliveries triggered by the
// update (re-verification of email or phone).
type UpdateUserAttributesResponse struct {
	CodeDeliveryDetailsList []CodeDeliveryDetailsType `json:"CodeDeliveryDetailsList,omitempty"`
}

// VerifyUserAttributeRequest verifies email or phone with a code.
type VerifyUserAttributeRequest struct {
	AccessToken   string `json:"AccessToken"`
	AttributeName string `json:"AttributeName"`
	Code          string `json:"Code"`
}

// GetUserAttributeVerificationCodeRequest requests a verification code.
type GetUserAttributeVerificationCodeRequest struct {
	AccessToken    string            `json:"AccessToken"`
	AttributeName  string            `json:"AttributeName"`
	ClientMetadata map[string]string `json:"ClientMetadata,omitempty"`
}

// GetUserAttributeVerificationCodeResponse reports code delivery.
type GetUserAttributeVerificationCodeResponse struct {
	CodeDeliveryDetails *CodeDeliveryDetailsType `json:"CodeDeliveryDetails,omitempty"`
}

// SetUserMFAPreferenceRequest updates the caller's MFA settings.
type SetUserMFAPreferenceRequest struct {
	AccessToken              string                        `json:"AccessToken"`
	SMSMfaSettings           *SMSMfaSettingsType           `json:"SMSMfaSettings,omitempty"`
	SoftwareTokenMfaSettings *SoftwareTokenMfaSettingsType `json:"SoftwareTokenMfaSettings,omitempty"`
}

// ListUsersRequest lists pool users with an optional filter.
type ListUsersRequest struct {
	UserPoolId      string   `json:"UserPoolId"`
	AttributesToGet []string `json:"AttributesToGet,omitempty"`
	Limit           int      `json:"Limit,omitempty"`
	PaginationToken string   `json:"PaginationToken,omitempty"`
	Filter          string   `json:"Filter,omitempty"`
}

// ListUsersResponse is one page of users.
type ListUsersResponse struct {
	Users           []UserType `json:"Users,omitempty"`
	PaginationToken string     `json:"PaginationToken,omitempty"`
}
