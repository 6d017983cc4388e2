package wire

// AdminCreateUserRequest creates a user with a temporary password.
type AdminCreateUserRequest struct {
	UserPoolId             string            `json:"UserPoolId"`
	Username               string            `json:"Username"`
	UserAttributes         []AttributeType   `json:"UserAttributes,omitempty"`
	TemporaryPassword      string            `json:"TemporaryPassword,omitempty"`
	MessageAction          string            `json:"MessageAction,omitempty"`
	DesiredDeliveryMediums []string          `json:"DesiredDeliveryMediums,omitempty"`
	ClientMetadata         map[string]string `json:"ClientMetadata,omitempty"`
}

// AdminCreateUserResponse returns the created user.
type AdminCreateUserResponse struct {
	User *UserType `json:"User,omitempty"`
}

// AdminGetUserRequest fetches a user by username.
type AdminGetUserRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
}

// AdminGetUserResponse is the user record, attributes under UserAttributes.
type AdminGetUserResponse struct {
	Username             string          `json:"Username"`
	UserAttributes       []AttributeType `json:"UserAttributes,omitempty"`
	UserCreateDate       Time            `json:"UserCreateDate"`
	UserLastModifiedDate Time            `json:"UserLastModifiedDate"`
	Enabled              bool            `json:"Enabled"`
	UserStatus           string          `json:"UserStatus,omitempty"`
	MFAOptions           []MFAOptionType `json:"MFAOptions,omitempty"`
	UserMFASettingList   []string        `json:"UserMFASettingList,omitempty"`
	PreferredMfaSetting  string          `json:"PreferredMfaSetting,omitempty"`
}

// AdminDeleteUserRequest deletes a user.
type AdminDeleteUserRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
}

// AdminConfirmSignUpRequest confirms a user without a code.
type AdminConfirmSignUpRequest struct {
	UserPoolId     string            `json:"UserPoolId"`
	Username       string            `json:"Username"`
	ClientMetadata map[string]string `json:"ClientMetadata,omitempty"`
}

// AdminSetUserPasswordRequest sets a user's password directly.
type AdminSetUserPasswordRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
	Password   string `json:"Password"`
	Permanent  bool   `json:"Permanent"`
}

// AdminResetUserPasswordRequest forces a password reset.
type AdminResetUserPasswordRequest struct {
	UserPoolId     string            `json:"UserPoolId"`
	Username       string            `json:"Username"`
	ClientMetadata map[string]string `json:"ClientMetadata,omitempty"`
}

// AdminUpdateUserAttributesRequest updates a user's attributes.
type AdminUpdateUserAttributesRequest struct {
	UserPoolId     string            `json:"UserPoolId"`
	Username       string            `json:"Username"`
	UserAttributes []AttributeType   `json:"UserAttributes"`
	ClientMetadata map[string]string `json:"ClientMetadata,omitempty"`
}

// AdminDeleteUserAttributesRequest removes attributes from a user.
type AdminDeleteUserAttributesRequest struct {
	UserPoolId         string   `json:"UserPoolId"`
	Username           string   `json:"Username"`
	UserAttributeNames []string `json:"UserAttributeNames"`
}

// AdminEnableUserRequest enables a user.
type AdminEnableUserRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
}

// AdminDisableUserRequest disables a user.
type AdminDisableUserRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
}

// AdminUserGlobalSignOutRequest revokes all of a user's refresh tokens.
type AdminUserGlobalSignOutRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
}

// AdminSetUserMFAPreferenceRequest updates a user's MFA settings.
type AdminSetUserMFAPreferenceRequest struct {
	UserPoolId               string                        `json:"UserPoolId"`
	Username                 string                        `json:"Username"`
	SMSMfaSettings           *SMSMfaSettingsType           `json:"SMSMfaSettings,omitempty"`
	SoftwareTokenMfaSettings *SoftwareTokenMfaSettingsType `json:"SoftwareTokenMfaSettings,omitempty"`
}

// AdminAddUserToGroupRequest adds a user to a group.
type AdminAddUserToGroupRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
	GroupName  string `json:"GroupName"`
}

// AdminRemoveUserFromGroupRequest removes a user from a group.
type AdminRemoveUserFromGroupRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
	GroupName  string `json:"GroupName"`
}

// AdminListGroupsForUserRequest lists groups a user belongs to.
type AdminListGroupsForUserRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Username   string `json:"Username"`
	Limit      int    `json:"Limit,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

// AdminListGroupsForUserResponse is the user's group memberships.
type AdminListGroupsForUserResponse struct {
	Groups    []GroupType `json:"Groups,omitempty"`
	NextToken string      `json:"NextToken,omitempty"`
}
