package wire

// CreateUserPoolRequest creates a pool.
type CreateUserPoolRequest struct {
	PoolName               string                `json:"PoolName"`
	MfaConfiguration       string                `json:"MfaConfiguration,omitempty"`
	Policies               *UserPoolPolicyType   `json:"Policies,omitempty"`
	AutoVerifiedAttributes []string              `json:"AutoVerifiedAttributes,omitempty"`
	Schema                 []SchemaAttributeType `json:"Schema,omitempty"`
}

// CreateUserPoolResponse returns the created pool.
type CreateUserPoolResponse struct {
	UserPool *UserPoolType `json:"UserPool,omitempty"`
}

// DescribeUserPoolRequest fetches a pool by id.
type DescribeUserPoolRequest struct {
	UserPoolId string `json:"UserPoolId"`
}

// DescribeUserPoolResponse returns the pool.
type DescribeUserPoolResponse struct {
	UserPool *UserPoolType `json:"UserPool,omitempty"`
}

// DeleteUserPoolRequest deletes a pool.
type DeleteUserPoolRequest struct {
	UserPoolId string `json:"UserPoolId"`
}

// ListUserPoolsRequest lists pools.
type ListUserPoolsRequest struct {
	MaxResults int    `json:"MaxResults,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

// ListUserPoolsResponse is one page of pools.
type ListUserPoolsResponse struct {
	UserPools []UserPoolDescriptionType `json:"UserPools,omitempty"`
	NextToken string                    `json:"NextToken,omitempty"`
}

// CreateUserPoolClientRequest registers an app client.
type CreateUserPoolClientRequest struct {
	UserPoolId           string   `json:"UserPoolId"`
	ClientName           string   `json:"ClientName"`
	GenerateSecret       bool     `json:"GenerateSecret,omitempty"`
	ExplicitAuthFlows    []string `json:"ExplicitAuthFlows,omitempty"`
	AccessTokenValidity  int      `json:"AccessTokenValidity,omitempty"`
	IdTokenValidity      int      `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity int      `json:"RefreshTokenValidity,omitempty"`
	ReadAttributes       []string `json:"ReadAttributes,omitempty"`
	WriteAttributes      []string `json:"WriteAttributes,omitempty"`
}

// CreateUserPoolClientResponse returns the created client.
type CreateUserPoolClientResponse struct {
	UserPoolClient *UserPoolClientType `json:"UserPoolClient,omitempty"`
}

// DescribeUserPoolClientRequest fetches a client.
type DescribeUserPoolClientRequest struct {
	UserPoolId string `json:"UserPoolId"`
	ClientId   string `json:"ClientId"`
}

// DescribeUserPoolClientResponse returns the client.
type DescribeUserPoolClientResponse struct {
	UserPoolClient *UserPoolClientType `json:"UserPoolClient,omitempty"`
}

// UpdateUserPoolClientRequest updates a client.
type UpdateUserPoolClientRequest struct {
	UserPoolId           string   `json:"UserPoolId"`
	ClientId             string   `json:"ClientId"`
	ClientName           string   `json:"ClientName,omitempty"`
	ExplicitAuthFlows    []string `json:"ExplicitAuthFlows,omitempty"`
	AccessTokenValidity  int      `json:"AccessTokenValidity,omitempty"`
	IdTokenValidity      int      `json:"IdTokenValidity,omitempty"`
	RefreshTokenValidity int      `json:"RefreshTokenValidity,omitempty"`
	ReadAttributes       []string `json:"ReadAttributes,omitempty"`
	WriteAttributes      []string `json:"WriteAttributes,omitempty"`
}

// UpdateUserPoolClientResponse returns the updated client.
type UpdateUserPoolClientResponse struct {
	UserPoolClient *UserPoolClientType `json:"UserPoolClient,omitempty"`
}

// DeleteUserPoolClientRequest deletes a client.
type DeleteUserPoolClientRequest struct {
	UserPoolId string `json:"UserPoolId"`
	ClientId   string `json:"ClientId"`
}

// ListUserPoolClientsRequest lists a pool's clients.
type ListUserPoolClientsRequest struct {
	UserPoolId string `json:"UserPoolId"`
	MaxResults int    `json:"MaxResults,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

// ListUserPoolClientsResponse is one page of clients.
type ListUserPoolClientsResponse struct {
	UserPoolClients []UserPoolClientDescription `json:"UserPoolClients,omitempty"`
	NextToken       string                      `json:"NextToken,omitempty"`
}
