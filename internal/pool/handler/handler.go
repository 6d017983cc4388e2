// Package handler exposes the pool and app-client CRUD operations.
package handler

import (
	"context"
	"encoding/json"
	"strings"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/server"
	"cognito-emulator/internal/wire"
)

// Server handles the pool-level wire operations.
type Server struct {
	cognito *cognito.Service
	ids     clock.IDSource
}

// NewServer returns a Server over the pool facade.
func NewServer(c *cognito.Service, ids clock.IDSource) *Server {
	return &Server{cognito: c, ids: ids}
}

// Register adds all pool and client operations to the registry.
func (s *Server) Register(r server.Registry) {
	r.Add("CreateUserPool", s.CreateUserPool)
	r.Add("DescribeUserPool", s.DescribeUserPool)
	r.Add("DeleteUserPool", s.DeleteUserPool)
	r.Add("ListUserPools", s.ListUserPools)
	r.Add("CreateUserPoolClient", s.CreateUserPoolClient)
	r.Add("DescribeUserPoolClient", s.DescribeUserPoolClient)
	r.Add("UpdateUserPoolClient", s.UpdateUserPoolClient)
	r.Add("DeleteUserPoolClient", s.DeleteUserPoolClient)
	r.Add("ListUserPoolClients", s.ListUserPoolClients)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.InvalidParameter("Malformed request body")
	}
	return nil
}

// newPoolID mimics the region_suffix shape of upstream pool ids.
func (s *Server) newPoolID() string {
	suffix := strings.ReplaceAll(s.ids.NewID(), "-", "")[:9]
	return "local_" + suffix
}

// CreateUserPool handles the CreateUserPool operation.
func (s *Server) CreateUserPool(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.CreateUserPoolRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.PoolName == "" {
		return nil, apperr.InvalidParameter("Missing required parameter PoolName")
	}
	pool := domain.UserPool{
		ID:                     s.newPoolID(),
		Name:                   req.PoolName,
		MFAConfiguration:       domain.MFAOff,
		AutoVerifiedAttributes: req.AutoVerifiedAttributes,
	}
	if req.MfaConfiguration != "" {
		pool.MFAConfiguration = domain.MFAConfiguration(req.MfaConfiguration)
	}
	if req.Policies != nil && req.Policies.PasswordPolicy != nil {
		p := req.Policies.PasswordPolicy
		pool.Policy = domain.PasswordPolicy{
			MinimumLength:    p.MinimumLength,
			RequireUppercase: p.RequireUppercase,
			RequireLowercase: p.RequireLowercase,
			RequireNumbers:   p.RequireNumbers,
			RequireSymbols:   p.RequireSymbols,
		}
	}
	for _, sa := range req.Schema {
		pool.Schema = append(pool.Schema, domain.SchemaAttribute{
			Name:              sa.Name,
			AttributeDataType: sa.AttributeDataType,
			Mutable:           sa.Mutable,
			Required:          sa.Required,
		})
	}
	st, err := s.cognito.CreateUserPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	created := st.Pool()
	return &wire.CreateUserPoolResponse{UserPool: wire.FromPool(&created)}, nil
}

// DescribeUserPool handles the DescribeUserPool operation.
func (s *Server) DescribeUserPool(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.DescribeUserPoolRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	pool := st.Pool()
	return &wire.DescribeUserPoolResponse{UserPool: wire.FromPool(&pool)}, nil
}

// DeleteUserPool handles the DeleteUserPool operation.
func (s *Server) DeleteUserPool(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.DeleteUserPoolRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.cognito.DeleteUserPool(ctx, req.UserPoolId); err != nil {
		return nil, err
	}
	return nil, nil
}

// ListUserPools handles the ListUserPools operation.
func (s *Server) ListUserPools(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ListUserPoolsRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	pools, err := s.cognito.ListUserPools(ctx)
	if err != nil {
		return nil, err
	}
	resp := &wire.ListUserPoolsResponse{}
	for _, p := range pools {
		resp.UserPools = append(resp.UserPools, wire.UserPoolDescriptionType{
			Id:               p.ID,
			Name:             p.Name,
			CreationDate:     wire.NewTime(p.CreatedAt),
			LastModifiedDate: wire.NewTime(p.UpdatedAt),
		})
	}
	return resp, nil
}

// CreateUserPoolClient handles the CreateUserPoolClient operation.
func (s *Server) CreateUserPoolClient(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.CreateUserPoolClientRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if _, err := s.cognito.GetUserPool(ctx, req.UserPoolId); err != nil {
		return nil, err
	}
	c := &domain.AppClient{
		ClientID:             strings.ReplaceAll(s.ids.NewID(), "-", ""),
		UserPoolID:           req.UserPoolId,
		Name:                 req.ClientName,
		ExplicitAuthFlows:    req.ExplicitAuthFlows,
		AccessTokenValidity:  req.AccessTokenValidity,
		IDTokenValidity:      req.IdTokenValidity,
		RefreshTokenValidity: req.RefreshTokenValidity,
		ReadAttributes:       req.ReadAttributes,
		WriteAttributes:      req.WriteAttributes,
	}
	if req.GenerateSecret {
		c.Secret = strings.ReplaceAll(s.ids.NewID()+s.ids.NewID(), "-", "")
	}
	if err := s.cognito.RegisterClient(ctx, c); err != nil {
		return nil, err
	}
	return &wire.CreateUserPoolClientResponse{UserPoolClient: wire.FromClient(c)}, nil
}

// DescribeUserPoolClient handles the DescribeUserPoolClient operation.
func (s *Server) DescribeUserPoolClient(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.DescribeUserPoolClientRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	c := st.GetClient(req.ClientId)
	if c == nil {
		return nil, apperr.ResourceNotFound("Client " + req.ClientId)
	}
	return &wire.DescribeUserPoolClientResponse{UserPoolClient: wire.FromClient(c)}, nil
}

// UpdateUserPoolClient handles the UpdateUserPoolClient operation.
func (s *Server) UpdateUserPoolClient(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.UpdateUserPoolClientRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	c := st.GetClient(req.ClientId)
	if c == nil {
		return nil, apperr.ResourceNotFound("Client " + req.ClientId)
	}
	if req.ClientName != "" {
		c.Name = req.ClientName
	}
	if req.ExplicitAuthFlows != nil {
		c.ExplicitAuthFlows = req.ExplicitAuthFlows
	}
	if req.AccessTokenValidity > 0 {
		c.AccessTokenValidity = req.AccessTokenValidity
	}
	if req.IdTokenValidity > 0 {
		c.IDTokenValidity = req.IdTokenValidity
	}
	if req.RefreshTokenValidity > 0 {
		c.RefreshTokenValidity = req.RefreshTokenValidity
	}
	if req.ReadAttributes != nil {
		c.ReadAttributes = req.ReadAttributes
	}
	if req.WriteAttributes != nil {
		c.WriteAttributes = req.WriteAttributes
	}
	if err := st.SaveClient(ctx, c); err != nil {
		return nil, apperr.Internal(err)
	}
	return &wire.UpdateUserPoolClientResponse{UserPoolClient: wire.FromClient(c)}, nil
}

// DeleteUserPoolClient handles the DeleteUserPoolClient operation.
func (s *Server) DeleteUserPoolClient(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.DeleteUserPoolClientRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if st.GetClient(req.ClientId) == nil {
		return nil, apperr.ResourceNotFound("Client " + req.ClientId)
	}
	if err := s.cognito.UnregisterClient(ctx, req.UserPoolId, req.ClientId); err != nil {
		return nil, err
	}
	return nil, nil
}

// ListUserPoolClients handles the ListUserPoolClients operation.
func (s *Server) ListUserPoolClients(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ListUserPoolClientsRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	resp := &wire.ListUserPoolClientsResponse{}
	for _, c := range st.ListClients() {
		resp.UserPoolClients = append(resp.UserPoolClients, wire.UserPoolClientDescription{
			ClientId:   c.ClientID,
			UserPoolId: c.UserPoolID,
			ClientName: c.Name,
		})
	}
	return resp, nil
}
