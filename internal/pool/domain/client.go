package domain

import "time"

// Supported auth flow names for app clients.
const (
	FlowUserPasswordAuth      = "USER_PASSWORD_AUTH"
	FlowAdminUserPasswordAuth = "ADMIN_USER_PASSWORD_AUTH"
	FlowAdminNoSRPAuth        = "ADMIN_NO_SRP_AUTH"
	FlowRefreshToken          = "REFRESH_TOKEN"
	FlowRefreshTokenAuth      = "REFRESH_TOKEN_AUTH"
	FlowUserSRPAuth           = "USER_SRP_AUTH"
	FlowCustomAuth            = "CUSTOM_AUTH"
)

// AppClient is a registered consumer of a pool. ClientID is unique across
// all pools; the facade maintains the reverse index. Validities in seconds
// override the pool's when non-zero.
type AppClient struct {
	ClientID             string    `json:"ClientId"`
	UserPoolID           string    `json:"UserPoolId"`
	Name                 string    `json:"ClientName"`
	Secret               string    `json:"ClientSecret,omitempty"`
	ExplicitAuthFlows    []string  `json:"ExplicitAuthFlows,omitempty"`
	AccessTokenValidity  int       `json:"AccessTokenValidity,omitempty"`
	IDTokenValidity      int       `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity int       `json:"RefreshTokenValidity,omitempty"`
	ReadAttributes       []string  `json:"ReadAttributes,omitempty"`
	WriteAttributes      []string  `json:"WriteAttributes,omitempty"`
	CreatedAt            time.Time `json:"CreationDate"`
	UpdatedAt            time.Time `json:"LastModifiedDate"`
}

// AccessValidity returns the client's access-token lifetime in seconds,
// falling back to the pool's.
func (c *AppClient) AccessValidity(pool *UserPool) int {
	if c.AccessTokenValidity > 0 {
		return c.AccessTokenValidity
	}
	return pool.AccessValidity()
}

// IDValidity returns the client's ID-token lifetime in seconds, falling
// back to the pool's.
func (c *AppClient) IDValidity(pool *UserPool) int {
	if c.IDTokenValidity > 0 {
		return c.IDTokenValidity
	}
	return pool.IDValidity()
}

// AllowsFlow reports whether the client permits the named auth flow. An
// empty ExplicitAuthFlows list permits every flow. Entries match in the
// legacy form ("USER_PASSWORD_AUTH") or the ALLOW_-prefixed form
// ("ALLOW_USER_PASSWORD_AUTH"); REFRESH_TOKEN and REFRESH_TOKEN_AUTH are
// the same flow, and ALLOW_ADMIN_USER_PASSWORD_AUTH also covers the legacy
// ADMIN_NO_SRP_AUTH name.
func (c *AppClient) AllowsFlow(flow string) bool {
	if len(c.ExplicitAuthFlows) == 0 {
		return true
	}
	switch flow {
	case FlowRefreshToken:
		flow = FlowRefreshTokenAuth
	case FlowAdminNoSRPAuth:
		flow = FlowAdminUserPasswordAuth
	}
	for _, f := range c.ExplicitAuthFlows {
		if f == flow || f == "ALLOW_"+flow {
			return true
		}
		if flow == FlowAdminUserPasswordAuth && f == FlowAdminNoSRPAuth {
			return true
		}
	}
	return false
}

// CanWrite reports whether the client may write attr. An empty allow-list
// permits all attributes.
func (c *AppClient) CanWrite(attr string) bool {
	if len(c.WriteAttributes) == 0 {
		return true
	}
	for _, a := range c.WriteAttributes {
		if a == attr {
			return true
		}
	}
	return false
}
