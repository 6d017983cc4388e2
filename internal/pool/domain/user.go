package domain

import "time"

// UserStatus is the lifecycle state of a user within its pool.
type UserStatus string

// User statuses.
const (
	UserStatusUnconfirmed         UserStatus = "UNCONFIRMED"
	UserStatusConfirmed           UserStatus = "CONFIRMED"
	UserStatusArchived            UserStatus = "ARCHIVED"
	UserStatusCompromised         UserStatus = "COMPROMISED"
	UserStatusUnknown             UserStatus = "UNKNOWN"
	UserStatusResetRequired       UserStatus = "RESET_REQUIRED"
	UserStatusForceChangePassword UserStatus = "FORCE_CHANGE_PASSWORD"
	UserStatusExternalProvider    UserStatus = "EXTERNAL_PROVIDER"
)

// MFA setting names carried in UserMFASettingList.
const (
	MFASettingSMS           = "SMS_MFA"
	MFASettingSoftwareToken = "SOFTWARE_TOKEN_MFA"
)

// Well-known attribute names.
const (
	AttrSub                 = "sub"
	AttrEmail               = "email"
	AttrEmailVerified       = "email_verified"
	AttrPhoneNumber         = "phone_number"
	AttrPhoneNumberVerified = "phone_number_verified"
)

// MFAPreference is one factor's requested state in a set-MFA-preference
// call. Enabled=false clears the factor; Preferred marks it as the user's
// preferred setting.
type MFAPreference struct {
	Enabled   bool
	Preferred bool
}

// MFAOption is one registered second factor.
type MFAOption struct {
	DeliveryMedium string `json:"DeliveryMedium"`
	AttributeName  string `json:"AttributeName"`
}

// User is a member of a pool, keyed by Username (case-preserving,
// case-insensitive lookup). The password is stored as an opaque plain
// string; the emulator deliberately does not hash it.
type User struct {
	Username            string      `json:"Username"`
	Attributes          Attributes  `json:"Attributes"`
	Password            string      `json:"Password"`
	Status              UserStatus  `json:"UserStatus"`
	Enabled             bool        `json:"Enabled"`
	ConfirmationCode    string      `json:"ConfirmationCode,omitempty"`
	MFACode             string      `json:"MFACode,omitempty"`
	MFAOptions          []MFAOption `json:"MFAOptions,omitempty"`
	UserMFASettingList  []string    `json:"UserMFASettingList,omitempty"`
	PreferredMFASetting string      `json:"PreferredMfaSetting,omitempty"`
	RefreshTokens       []string    `json:"RefreshTokens,omitempty"`
	CreatedAt           time.Time   `json:"UserCreateDate"`
	UpdatedAt           time.Time   `json:"UserLastModifiedDate"`
}

// Sub returns the user's immutable UUID, empty if unset.
func (u *User) Sub() string {
	v, _ := u.Attributes.Get(AttrSub)
	return v
}

// Email returns the user's email attribute, empty if unset.
func (u *User) Email() string {
	v, _ := u.Attributes.Get(AttrEmail)
	return v
}

// PhoneNumber returns the user's phone_number attribute, empty if unset.
func (u *User) PhoneNumber() string {
	v, _ := u.Attributes.Get(AttrPhoneNumber)
	return v
}

// HasMFASetting reports whether setting is in UserMFASettingList.
func (u *User) HasMFASetting(setting string) bool {
	for _, s := range u.UserMFASettingList {
		if s == setting {
			return true
		}
	}
	return false
}

// HasRefreshToken reports whether token is in the user's refresh-token set.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; stores hand out copies so callers can mutate
// freely before saving.
func (u *User) Clone() *User {
	c := *u
	c.Attributes = make(Attributes, len(u.Attributes))
	copy(c.Attributes, u.Attributes)
	c.MFAOptions = append([]MFAOption(nil), u.MFAOptions...)
	c.UserMFASettingList = append([]string(nil), u.UserMFASettingList...)
	c.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	return &c
}
