// Package handler exposes the user self-service operations: profile reads,
// attribute updates and verification, MFA preference, and user listing.
package handler

import (
	"context"
	"encoding/json"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/auth"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/messages"
	"cognito-emulator/internal/otp"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/server"
	"cognito-emulator/internal/wire"
)

// Server handles the user-level wire operations. All but ListUsers
// authenticate with the caller's access token.
type Server struct {
	auth    *auth.Service
	cognito *cognito.Service
	otp     *otp.Service
	sender  *messages.Sender
}

// NewServer returns a Server over the given services.
func NewServer(authSvc *auth.Service, c *cognito.Service, codes *otp.Service, sender *messages.Sender) *Server {
	return &Server{auth: authSvc, cognito: c, otp: codes, sender: sender}
}

// Register adds all user operations to the registry.
func (s *Server) Register(r server.Registry) {
	r.Add("GetUser", s.GetUser)
	r.Add("DeleteUser", s.DeleteUser)
	r.Add("UpdateUserAttributes", s.UpdateUserAttributes)
	r.Add("VerifyUserAttribute", s.VerifyUserAttribute)
	r.Add("GetUserAttributeVerificationCode", s.GetUserAttributeVerificationCode)
	r.Add("SetUserMFAPreference", s.SetUserMFAPreference)
	r.Add("ListUsers", s.ListUsers)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.InvalidParameter("Malformed request body")
	}
	return nil
}

// GetUser handles the GetUser operation.
func (s *Server) GetUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.GetUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	_, user, err := s.auth.UserFromAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	return &wire.GetUserResponse{
		Username:            user.Username,
		UserAttributes:      wire.FromAttributes(user.Attributes),
		MFAOptions:          wire.FromMFAOptions(user.MFAOptions),
		UserMFASettingList:  user.UserMFASettingList,
		PreferredMfaSetting: user.PreferredMFASetting,
	}, nil
}

// DeleteUser handles the DeleteUser operation.
func (s *Server) DeleteUser(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.DeleteUserRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, user, err := s.auth.UserFromAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := st.DeleteUser(ctx, user.Username); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// UpdateUserAttributes handles the UpdateUserAttributes operation. Updating
// email or phone_number resets its verified flag; when the pool
// auto-verifies the attribute a fresh verification code is delivered.
func (s *Server) UpdateUserAttributes(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.UpdateUserAttributesRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, user, err := s.auth.UserFromAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	pool := st.Pool()

	needsCode := false
	for _, a := range req.UserAttributes {
		if a.Name == domain.AttrSub {
			return nil, apperr.InvalidParameter("sub is immutable")
		}
		if sa := pool.SchemaFor(a.Name); sa != nil && !sa.Mutable {
			return nil, apperr.InvalidParameter("Attribute %s is not mutable", a.Name)
		}
		user.Attributes = user.Attributes.Set(a.Name, a.Value)
		switch a.Name {
		case domain.AttrEmail:
			user.Attributes = user.Attributes.Set(domain.AttrEmailVerified, "false")
			needsCode = needsCode || pool.AutoVerifies(domain.AttrEmail)
		case domain.AttrPhoneNumber:
			user.Attributes = user.Attributes.Set(domain.AttrPhoneNumberVerified, "false")
			needsCode = needsCode || pool.AutoVerifies(domain.AttrPhoneNumber)
		}
	}

	resp := &wire.UpdateUserAttributesResponse{}
	if needsCode {
		code, err := s.otp.Code()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		user.ConfirmationCode = code
		if d := s.sender.Deliver(ctx, &pool, "", user, "CustomMessage_UpdateUserAttribute", code); d != nil {
			resp.CodeDeliveryDetailsList = []wire.CodeDeliveryDetailsType{{
				Destination:    d.Destination,
				DeliveryMedium: d.Medium,
				AttributeName:  d.AttributeName,
			}}
		}
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return resp, nil
}

// VerifyUserAttribute handles the VerifyUserAttribute operation.
func (s *Server) VerifyUserAttribute(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.VerifyUserAttributeRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, user, err := s.auth.UserFromAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	if req.Code == "" || req.Code != user.ConfirmationCode {
		return nil, apperr.CodeMismatch()
	}
	switch req.AttributeName {
	case domain.AttrEmail:
		user.Attributes = user.Attributes.Set(domain.AttrEmailVerified, "true")
	case domain.AttrPhoneNumber:
		user.Attributes = user.Attributes.Set(domain.AttrPhoneNumberVerified, "true")
	default:
		return nil, apperr.InvalidParameter("Attribute %s cannot be verified", req.AttributeName)
	}
	user.ConfirmationCode = ""
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

// GetUserAttributeVerificationCode handles the operation of the same name.
func (s *Server) GetUserAttributeVerificationCode(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.GetUserAttributeVerificationCodeRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, user, err := s.auth.UserFromAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	if req.AttributeName != domain.AttrEmail && req.AttributeName != domain.AttrPhoneNumber {
		return nil, apperr.InvalidParameter("Attribute %s cannot be verified", req.AttributeName)
	}
	code, err := s.otp.Code()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user.ConfirmationCode = code
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	pool := st.Pool()
	d := s.sender.Deliver(ctx, &pool, "", user, "CustomMessage_VerifyUserAttribute", code)
	if d == nil {
		return nil, apperr.InvalidParameter("User has no delivery destination for the code")
	}
	return &wire.GetUserAttributeVerificationCodeResponse{CodeDeliveryDetails: &wire.CodeDeliveryDetailsType{
		Destination:    d.Destination,
		DeliveryMedium: d.Medium,
		AttributeName:  d.AttributeName,
	}}, nil
}

// SetUserMFAPreference handles the SetUserMFAPreference operation.
func (s *Server) SetUserMFAPreference(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.SetUserMFAPreferenceRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, user, err := s.auth.UserFromAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}
	sms, software := mfaPreferences(req.SMSMfaSettings, req.SoftwareTokenMfaSettings)
	if err := st.SetUserMFAPreference(ctx, user.Username, sms, software); err != nil {
		return nil, apperr.Internal(err)
	}
	return nil, nil
}

func mfaPreferences(sms *wire.SMSMfaSettingsType, software *wire.SoftwareTokenMfaSettingsType) (*domain.MFAPreference, *domain.MFAPreference) {
	var smsPref, softwarePref *domain.MFAPreference
	if sms != nil {
		smsPref = &domain.MFAPreference{Enabled: sms.Enabled, Preferred: sms.PreferredMfa}
	}
	if software != nil {
		softwarePref = &domain.MFAPreference{Enabled: software.Enabled, Preferred: software.PreferredMfa}
	}
	return smsPref, softwarePref
}

// ListUsers handles the ListUsers operation.
func (s *Server) ListUsers(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ListUsersRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	st, err := s.cognito.GetUserPool(ctx, req.UserPoolId)
	if err != nil {
		return nil, err
	}
	users, next, err := st.ListUsers(req.Filter, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, err
	}
	resp := &wire.ListUsersResponse{PaginationToken: next}
	for _, u := range users {
		wu := wire.FromUser(u)
		if len(req.AttributesToGet) > 0 {
			wu.Attributes = filterAttributes(wu.Attributes, req.AttributesToGet)
		}
		resp.Users = append(resp.Users, wu)
	}
	return resp, nil
}

func filterAttributes(attrs []wire.AttributeType, names []string) []wire.AttributeType {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	out := attrs[:0]
	for _, a := range attrs {
		if keep[a.Name] {
			out = append(out, a)
		}
	}
	return out
}
