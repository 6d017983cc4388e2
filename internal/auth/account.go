package auth

import (
	"context"
	"strings"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/pool/store"
)

// UserFromAccessToken verifies an access token and resolves the calling
// user and pool. Disabled users fail with NotAuthorized even when their
// token is otherwise valid.
func (s *Service) UserFromAccessToken(ctx context.Context, accessToken string) (*store.Store, *domain.User, error) {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, nil, apperr.NotAuthorized("Invalid Access Token")
	}
	poolID := claims.Issuer[strings.LastIndexByte(claims.Issuer, '/')+1:]
	st, err := s.cognito.GetUserPool(ctx, poolID)
	if err != nil {
		return nil, nil, apperr.NotAuthorized("Invalid Access Token")
	}
	user := st.GetUserByUsername(claims.Username)
	if user == nil {
		return nil, nil, apperr.UserNotFound()
	}
	if !user.Enabled {
		return nil, nil, apperr.NotAuthorized("User is disabled.")
	}
	return st, user, nil
}

// ChangePassword rotates the calling user's password after re-checking the
// previous one.
func (s *Service) ChangePassword(ctx context.Context, accessToken, previous, proposed string) error {
	st, user, err := s.UserFromAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}
	if user.Password != previous {
		return apperr.InvalidPassword()
	}
	pool := st.Pool()
	if msg := pool.Policy.Check(proposed); msg != "" {
		return apperr.PasswordPolicyViolation(msg)
	}
	user.Password = proposed
	if err := st.SaveUser(ctx, user); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// GlobalSignOut revokes every refresh token of the calling user.
func (s *Service) GlobalSignOut(ctx context.Context, accessToken string) error {
	st, user, err := s.UserFromAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := st.RevokeAllRefreshTokens(ctx, user.Username); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// RevokeToken revokes a single refresh token issued to the given client.
// Revoking an unknown token is a no-op, matching upstream.
func (s *Service) RevokeToken(ctx context.Context, clientID, refreshToken string) error {
	if refreshToken == "" {
		return apperr.InvalidParameter("Missing required parameter Token")
	}
	_, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return err
	}
	if st.GetUserByRefreshToken(refreshToken) == nil {
		return nil
	}
	if err := st.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
