// Package handler exposes the authentication operations on the wire
// registry: the auth flows, challenges, sign-up, and account recovery.
package handler

import (
	"context"
	"encoding/json"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/auth"
	"cognito-emulator/internal/messages"
	"cognito-emulator/internal/server"
	"cognito-emulator/internal/wire"
)

// Server handles the auth-related wire operations.
type Server struct {
	svc *auth.Service
}

// NewServer returns a Server over the auth service.
func NewServer(svc *auth.Service) *Server {
	return &Server{svc: svc}
}

// Register adds all auth operations to the registry.
func (s *Server) Register(r server.Registry) {
	r.Add("InitiateAuth", s.InitiateAuth)
	r.Add("AdminInitiateAuth", s.AdminInitiateAuth)
	r.Add("RespondToAuthChallenge", s.RespondToAuthChallenge)
	r.Add("AdminRespondToAuthChallenge", s.AdminRespondToAuthChallenge)
	r.Add("SignUp", s.SignUp)
	r.Add("ConfirmSignUp", s.ConfirmSignUp)
	r.Add("ResendConfirmationCode", s.ResendConfirmationCode)
	r.Add("ForgotPassword", s.ForgotPassword)
	r.Add("ConfirmForgotPassword", s.ConfirmForgotPassword)
	r.Add("ChangePassword", s.ChangePassword)
	r.Add("GlobalSignOut", s.GlobalSignOut)
	r.Add("RevokeToken", s.RevokeToken)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.InvalidParameter("Malformed request body")
	}
	return nil
}

func authResponse(res *auth.Result) *wire.InitiateAuthResponse {
	if res.Challenge != nil {
		return &wire.InitiateAuthResponse{
			ChallengeName:       res.Challenge.Name,
			ChallengeParameters: res.Challenge.Parameters,
			Session:             res.Challenge.Session,
		}
	}
	return &wire.InitiateAuthResponse{
		AuthenticationResult: &wire.AuthenticationResultType{
			AccessToken:  res.Tokens.AccessToken,
			IdToken:      res.Tokens.IDToken,
			RefreshToken: res.Tokens.RefreshToken,
			ExpiresIn:    res.Tokens.ExpiresIn,
			TokenType:    "Bearer",
		},
	}
}

func deliveryDetails(d *messages.Details) *wire.CodeDeliveryDetailsType {
	if d == nil {
		return nil
	}
	return &wire.CodeDeliveryDetailsType{
		Destination:    d.Destination,
		DeliveryMedium: d.Medium,
		AttributeName:  d.AttributeName,
	}
}

// InitiateAuth handles the InitiateAuth operation.
func (s *Server) InitiateAuth(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.InitiateAuthRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.InitiateAuth(ctx, req.ClientId, req.AuthFlow, req.AuthParameters)
	if err != nil {
		return nil, err
	}
	return authResponse(res), nil
}

// AdminInitiateAuth handles the AdminInitiateAuth operation.
func (s *Server) AdminInitiateAuth(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminInitiateAuthRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.AdminInitiateAuth(ctx, req.UserPoolId, req.ClientId, req.AuthFlow, req.AuthParameters)
	if err != nil {
		return nil, err
	}
	return authResponse(res), nil
}

// RespondToAuthChallenge handles the RespondToAuthChallenge operation.
func (s *Server) RespondToAuthChallenge(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.RespondToAuthChallengeRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.RespondToAuthChallenge(ctx, req.ClientId, req.ChallengeName, req.Session, req.ChallengeResponses)
	if err != nil {
		return nil, err
	}
	return authResponse(res), nil
}

// AdminRespondToAuthChallenge handles the admin variant; the emulator
// shares the challenge sessions between the two entry points.
func (s *Server) AdminRespondToAuthChallenge(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.AdminRespondToAuthChallengeRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.RespondToAuthChallenge(ctx, req.ClientId, req.ChallengeName, req.Session, req.ChallengeResponses)
	if err != nil {
		return nil, err
	}
	return authResponse(res), nil
}

// SignUp handles the SignUp operation.
func (s *Server) SignUp(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.SignUpRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.SignUp(ctx, req.ClientId, req.Username, req.Password, wire.ToAttributes(req.UserAttributes))
	if err != nil {
		return nil, err
	}
	return &wire.SignUpResponse{
		UserConfirmed:       res.Confirmed,
		UserSub:             res.Sub,
		CodeDeliveryDetails: deliveryDetails(res.Delivery),
	}, nil
}

// ConfirmSignUp handles the ConfirmSignUp operation.
func (s *Server) ConfirmSignUp(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ConfirmSignUpRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.svc.ConfirmSignUp(ctx, req.ClientId, req.Username, req.ConfirmationCode); err != nil {
		return nil, err
	}
	return nil, nil
}

// ResendConfirmationCode handles the ResendConfirmationCode operation.
func (s *Server) ResendConfirmationCode(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ResendConfirmationCodeRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	details, err := s.svc.ResendConfirmationCode(ctx, req.ClientId, req.Username)
	if err != nil {
		return nil, err
	}
	return &wire.ResendConfirmationCodeResponse{CodeDeliveryDetails: deliveryDetails(details)}, nil
}

// ForgotPassword handles the ForgotPassword operation.
func (s *Server) ForgotPassword(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ForgotPasswordRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	details, err := s.svc.ForgotPassword(ctx, req.ClientId, req.Username)
	if err != nil {
		return nil, err
	}
	return &wire.ForgotPasswordResponse{CodeDeliveryDetails: deliveryDetails(details)}, nil
}

// ConfirmForgotPassword handles the ConfirmForgotPassword operation.
func (s *Server) ConfirmForgotPassword(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ConfirmForgotPasswordRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.svc.ConfirmForgotPassword(ctx, req.ClientId, req.Username, req.ConfirmationCode, req.Password); err != nil {
		return nil, err
	}
	return nil, nil
}

// ChangePassword handles the ChangePassword operation.
func (s *Server) ChangePassword(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.ChangePasswordRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.svc.ChangePassword(ctx, req.AccessToken, req.PreviousPassword, req.ProposedPassword); err != nil {
		return nil, err
	}
	return nil, nil
}

// GlobalSignOut handles the GlobalSignOut operation.
func (s *Server) GlobalSignOut(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.GlobalSignOutRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.svc.GlobalSignOut(ctx, req.AccessToken); err != nil {
		return nil, err
	}
	return nil, nil
}

// RevokeToken handles the RevokeToken operation.
func (s *Server) RevokeToken(ctx context.Context, raw json.RawMessage) (any, error) {
	var req wire.RevokeTokenRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.svc.RevokeToken(ctx, req.ClientId, req.Token); err != nil {
		return nil, err
	}
	return nil, nil
}
