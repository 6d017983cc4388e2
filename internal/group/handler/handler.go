// Package handler exposes the group CRUD and membership-listing
// operations.
package handler

import (
	"context"
	"encoding/json"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/server"
	"cognito-emulator/internal/wire"
)

// Server handles the group wire operations.
type Server struct {
	cognito *cognito.Service
}

// NewServer returns a Server over the pool facade.
func NewServer(c *cognito.Service) *Server {
	return &Server{cognito: c}
}

// Register adds all group operations to the registry.
func (s *Server) Register(r server.Registry) {
	r.Add("CreateGroup", s.CreateGroup)
	r.Add("GetGroup", s.GetGroup)
	r.Add("UpdateGroup", s.UpdateGroup)
	r.Add("DeleteGroup", s.DeleteGroup)
	r.Add("ListGroups", s.ListGroups)
	r.Add("ListUsersInGroup", s.ListUsersInGroup)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.InvalidParameter("Malformed request body")
	}
	return nil
}

// CreateGroup handles the CreateGroup operation.
func (s *Server) CreateGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.CreateGroupRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.GroupName == "" {
		return nil, apperr.InvalidParameter("Missing required parameter GroupName")
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if st.GetGroup(req.GroupName) != nil {
		return nil, apperr.GroupExists()
	}
	g := &domain.Group{
		Name:        req.GroupName,
		Description: req.Description,
		RoleArn:     req.RoleArn,
		Precedence:  req.Precedence,
	}
	if err := st.SaveGroup(ctx, g); err != nil {
		return nil, apperr.Internal(err)
	}
	out := wire.FromGroup(req.UserPoolId, g)
	return &wire.CreateGroupResponse{Group: &out}, nil
}

// GetGroup handles the GetGroup operation.
func (s *Server) GetGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.GetGroupRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	g := st.GetGroup(req.GroupName)
	if g == nil {
		return nil, apperr.ResourceNotFound("Group " + req.GroupName)
	}
	out := wire.FromGroup(req.UserPoolId, g)
	return &wire.GetGroupResponse{Group: &out}, nil
}

// UpdateGroup handles the UpdateGroup operation.
func (s *Server) UpdateGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.UpdateGroupRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	g := st.GetGroup(req.GroupName)
	if g == nil {
		return nil, apperr.ResourceNotFound("Group " + req.GroupName)
	}
	if req.Description != "" {
		g.Description = req.Description
	}
	if req.RoleArn != "" {
		g.RoleArn = req.RoleArn
	}
	if req.Precedence != nil {
		g.Precedence = req.Precedence
	}
	if err := st.SaveGroup(ctx, g); err != nil {
		return nil, apperr.Internal(err)
	}
	out := wire.FromGroup(req.UserPoolId, g)
	return &wire.UpdateGroupResponse{Group: &out}, nil
}

// DeleteGroup handles the DeleteGroup operation.
func (s *Server) DeleteGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.DeleteGroupRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if st.GetGroup(req.GroupName) == nil {
		return nil, apperr.ResourceNotFound("Group " + req.GroupName)
	}
	if err := st.DeleteGroup(ctx, req.GroupName); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// ListGroups handles the ListGroups operation.
func (s *Server) ListGroups(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ListGroupsRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	resp := &wire.ListGroupsResponse{}
	for _, g := range st.ListGroups() {
		resp.Groups = append(resp.Groups, wire.FromGroup(req.UserPoolId, g))
	}
	return resp, nil
}

// ListUsersInGroup handles the ListUsersInGroup operation.
func (s *Server) ListUsersInGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ListUsersInGroupRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if st.GetGroup(req.GroupName) == nil {
		return nil, apperr.ResourceNotFound("Group " + req.GroupName)
	}
	resp := &wire.ListUsersInGroupResponse{}
	for _, u := range st.ListUsersInGroup(req.GroupName) {
		resp.Users = append(resp.Users, wire.FromUser(u))
	}
	return resp, nil
}
