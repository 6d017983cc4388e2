// Package handler exposes the administrative user operations: create,
// inspect, confirm, password management, enable/disable, sign-out, MFA,
// and group membership.
package handler

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/messages"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/pool/store"
	"cognito-emulator/internal/server"
	"cognito-emulator/internal/triggers"
	"cognito-emulator/internal/wire"
)

// Server handles the Admin* wire operations.
type Server struct {
	cognito *cognito.Service
	runtime *triggers.Runtime
	sender  *messages.Sender
	clock   clock.Clock
	ids     clock.IDSource
	logger  zerolog.Logger
}

// NewServer returns a Server over the given services.
func NewServer(c *cognito.Service, runtime *triggers.Runtime, sender *messages.Sender, clk clock.Clock, ids clock.IDSource, logger zerolog.Logger) *Server {
	return &Server{cognito: c, runtime: runtime, sender: sender, clock: clk, ids: ids, logger: logger}
}

// Register adds all admin operations to the registry.
func (s *Server) Register(r server.Registry) {
	r.Add("AdminCreateUser", s.AdminCreateUser)
	r.Add("AdminGetUser", s.AdminGetUser)
	r.Add("AdminDeleteUser", s.AdminDeleteUser)
	r.Add("AdminConfirmSignUp", s.AdminConfirmSignUp)
	r.Add("AdminSetUserPassword", s.AdminSetUserPassword)
	r.Add("AdminResetUserPassword", s.AdminResetUserPassword)
	r.Add("AdminUpdateUserAttributes", s.AdminUpdateUserAttributes)
	r.Add("AdminDeleteUserAttributes", s.AdminDeleteUserAttributes)
	r.Add("AdminEnableUser", s.AdminEnableUser)
	r.Add("AdminDisableUser", s.AdminDisableUser)
	r.Add("AdminUserGlobalSignOut", s.AdminUserGlobalSignOut)
	r.Add("AdminSetUserMFAPreference", s.AdminSetUserMFAPreference)
	r.Add("AdminAddUserToGroup", s.AdminAddUserToGroup)
	r.Add("AdminRemoveUserFromGroup", s.AdminRemoveUserFromGroup)
	r.Add("AdminListGroupsForUser", s.AdminListGroupsForUser)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.InvalidParameter("Malformed request body")
	}
	return nil
}

func (s *Server) userByName(st *store.Store, username string) (*domain.User, error) {
	user := st.GetUserByUsername(username)
	if user == nil {
		return nil, apperr.UserNotFound()
	}
	return user, nil
}

// AdminCreateUser creates a user in FORCE_CHANGE_PASSWORD state with a
// temporary password and delivers an invitation unless suppressed.
func (s *Server) AdminCreateUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminCreateUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, apperr.InvalidParameter("Missing required parameter Username")
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if st.GetUserByUsername(req.Username) != nil {
		return nil, apperr.UsernameExists()
	}

	password := req.TemporaryPassword
	if password == "" {
		// Random UUIDs carry enough entropy for a throwaway credential.
		password = strings.ReplaceAll(s.ids.NewID(), "-", "")[:12] + "Aa1!"
	}
	now := s.clock.Now()
	user := &domain.User{
		Username:   req.Username,
		Attributes: wire.ToAttributes(req.UserAttributes).Set(domain.AttrSub, s.ids.NewID()),
		Password:   password,
		Status:     domain.UserStatusForceChangePassword,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	if req.MessageAction != "SUPPRESS" {
		pool := st.Pool()
		s.sender.Deliver(ctx, &pool, "", user, "CustomMessage_AdminCreateUser", password)
	}
	u := wire.FromUser(user)
	return &wire.AdminCreateUserResponse{User: &u}, nil
}

// AdminGetUser handles the AdminGetUser operation.
func (s *Server) AdminGetUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminGetUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	return &wire.AdminGetUserResponse{
		Username:             user.Username,
		UserAttributes:       wire.FromAttributes(user.Attributes),
		UserCreateDate:       wire.NewTime(user.CreatedAt),
		UserLastModifiedDate: wire.NewTime(user.UpdatedAt),
		Enabled:              user.Enabled,
		UserStatus:           string(user.Status),
		MFAOptions:           wire.FromMFAOptions(user.MFAOptions),
		UserMFASettingList:   user.UserMFASettingList,
		PreferredMfaSetting:  user.PreferredMFASetting,
	}, nil
}

// AdminDeleteUser handles the AdminDeleteUser operation.
func (s *Server) AdminDeleteUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminDeleteUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if _, err := s.userByName(st, req.Username); err != nil {
		return nil, err
	}
	if err := st.DeleteUser(ctx, req.Username); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminConfirmSignUp confirms a user without a code and fires the
// observational PostConfirmation hook.
func (s *Server) AdminConfirmSignUp(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminConfirmSignUpRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusUnconfirmed {
		return nil, apperr.NotAuthorized("User cannot be confirmed. Current status: " + string(user.Status))
	}
	user.Status = domain.UserStatusConfirmed
	user.ConfirmationCode = ""
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.runtime.InvokePostConfirmation(ctx, req.UserPoolId, "", user.Username, "PostConfirmation_AdminConfirmSignUp", user.Attributes); err != nil {
		s.logger.Warn().Err(err).Str("pool_id", req.UserPoolId).Str("username", user.Username).
			Msg("post confirmation trigger failed")
	}
	return nil, nil
}

// AdminSetUserPassword sets a user's password. Permanent confirms the user;
// otherwise they must change it at next login.
func (s *Server) AdminSetUserPassword(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminSetUserPasswordRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	pool := st.Pool()
	if msg := pool.Policy.Check(req.Password); msg != "" {
		return nil, apperr.PasswordPolicyViolation(msg)
	}
	user.Password = req.Password
	if req.Permanent {
		user.Status = domain.UserStatusConfirmed
		user.ConfirmationCode = ""
	} else {
		user.Status = domain.UserStatusForceChangePassword
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminResetUserPassword forces the user into RESET_REQUIRED: the next
// login fails until the user completes the forgot-password flow.
func (s *Server) AdminResetUserPassword(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminResetUserPasswordRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	user.Status = domain.UserStatusResetRequired
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminUpdateUserAttributes handles the operation of the same name.
func (s *Server) AdminUpdateUserAttributes(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminUpdateUserAttributesRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	for _, a := range req.UserAttributes {
		if a.Name == domain.AttrSub {
			return nil, apperr.InvalidParameter("sub is immutable")
		}
		user.Attributes = user.Attributes.Set(a.Name, a.Value)
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminDeleteUserAttributes handles the operation of the same name.
func (s *Server) AdminDeleteUserAttributes(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminDeleteUserAttributesRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	for _, name := range req.UserAttributeNames {
		if name == domain.AttrSub {
			return nil, apperr.InvalidParameter("sub is immutable")
		}
		user.Attributes = user.Attributes.Remove(name)
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminEnableUser handles the AdminEnableUser operation.
func (s *Server) AdminEnableUser(ctx context.Context, raw json.RawMessage) (any, error) {
	return s.setEnabled(ctx, raw, true)
}

// AdminDisableUser handles the AdminDisableUser operation.
func (s *Server) AdminDisableUser(ctx context.Context, raw json.RawMessage) (any, error) {
	return s.setEnabled(ctx, raw, false)
}

func (s *Server) setEnabled(ctx context.Context, raw json.RawMessage, enabled bool) (any, error) {
	var req wire.AdminEnableUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	user, err := s.userByName(st, req.Username)
	if err != nil {
		return nil, err
	}
	user.Enabled = enabled
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminUserGlobalSignOut revokes all of the user's refresh tokens.
func (s *Server) AdminUserGlobalSignOut(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminUserGlobalSignOutRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if _, err := s.userByName(st, req.Username); err != nil {
		return nil, err
	}
	if err := st.RevokeAllRefreshTokens(ctx, req.Username); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminSetUserMFAPreference handles the operation of the same name.
func (s *Server) AdminSetUserMFAPreference(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminSetUserMFAPreferenceRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if _, err := s.userByName(st, req.Username); err != nil {
		return nil, err
	}
	var sms, software *domain.MFAPreference
	if req.SMSMfaSettings != nil {
		sms = &domain.MFAPreference{Enabled: req.SMSMfaSettings.Enabled, Preferred: req.SMSMfaSettings.PreferredMfa}
	}
	if req.SoftwareTokenMfaSettings != nil {
		software = &domain.MFAPreference{Enabled: req.SoftwareTokenMfaSettings.Enabled, Preferred: req.SoftwareTokenMfaSettings.PreferredMfa}
	}
	if err := st.SetUserMFAPreference(ctx, req.Username, sms, software); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminAddUserToGroup handles the AdminAddUserToGroup operation.
func (s *Server) AdminAddUserToGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminAddUserToGroupRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if _, err := s.userByName(st, req.Username); err != nil {
		return nil, err
	}
	if st.GetGroup(req.GroupName) == nil {
		return nil, apperr.ResourceNotFound("Group " + req.GroupName)
	}
	if err := st.AddUserToGroup(ctx, req.GroupName, req.Username); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminRemoveUserFromGroup handles the AdminRemoveUserFromGroup operation.
func (s *Server) AdminRemoveUserFromGroup(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminRemoveUserFromGroupRequest
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
	if err := st.RemoveUserFromGroup(ctx, req.GroupName, req.Username); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// AdminListGroupsForUser lists the user's groups in precedence order.
func (s *Server) AdminListGroupsForUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminListGroupsForUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	if _, err := s.userByName(st, req.Username); err != nil {
		return nil, err
	}
	resp := &wire.AdminListGroupsForUserResponse{}
	for _, g := range st.ListGroupsForUser(req.Username) {
		resp.Groups = append(resp.Groups, wire.FromGroup(req.UserPoolId, g))
	}
	return resp, nil
}
