package auth

import (
	"context"
	"errors"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/messages"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/pool/store"
	"cognito-emulator/internal/triggers"
)

// SignUpResult reports the new user's sub, whether sign-up auto-confirmed,
// and where the confirmation code went.
type SignUpResult struct {
	Sub       string
	Confirmed bool
	Delivery  *messages.Details
}

// SignUp registers a new unconfirmed user and sends a confirmation code.
// The PreSignUp hook may auto-confirm or auto-verify; its failure aborts
// the sign-up.
func (s *Service) SignUp(ctx context.Context, clientID, username, password string, attrs domain.Attributes) (*SignUpResult, error) {
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if username == "" || password == "" {
		return nil, apperr.InvalidParameter("Missing required parameter Username or Password")
	}
	if st.GetUserByUsername(username) != nil {
		return nil, apperr.UsernameExists()
	}
	pool := st.Pool()
	if msg := pool.Policy.Check(password); msg != "" {
		return nil, apperr.PasswordPolicyViolation(msg)
	}

	attrs = attrs.Set(domain.AttrSub, s.ids.NewID())
	pre, err := s.runtime.InvokePreSignUp(ctx, pool.ID, clientID, username, attrs)
	if err != nil && !errors.Is(err, triggers.ErrNotBound) {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		Username:   username,
		Attributes: attrs,
		Password:   password,
		Status:     domain.UserStatusUnconfirmed,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pre != nil {
		if pre.AutoConfirmUser {
			user.Status = domain.UserStatusConfirmed
		}
		if pre.AutoVerifyEmail && user.Email() != "" {
			user.Attributes = user.Attributes.Set(domain.AttrEmailVerified, "true")
		}
		if pre.AutoVerifyPhone && user.PhoneNumber() != "" {
			user.Attributes = user.Attributes.Set(domain.AttrPhoneNumberVerified, "true")
		}
	}

	var delivery *messages.Details
	if user.Status == domain.UserStatusUnconfirmed {
		code, err := s.otp.Code()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		user.ConfirmationCode = code
		delivery = s.sender.Deliver(ctx, &pool, client.ClientID, user, "CustomMessage_SignUp", code)
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return &SignUpResult{
		Sub:       user.Sub(),
		Confirmed: user.Status == domain.UserStatusConfirmed,
		Delivery:  delivery,
	}, nil
}

// ConfirmSignUp confirms an unconfirmed user with the delivered code and
// fires the observational PostConfirmation hook.
func (s *Service) ConfirmSignUp(ctx context.Context, clientID, username, code string) error {
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return err
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		return apperr.UserNotFound()
	}
	if user.Status != domain.UserStatusUnconfirmed {
		return apperr.NotAuthorized("User cannot be confirmed. Current status: " + string(user.Status))
	}
	if code == "" || code != user.ConfirmationCode {
		return apperr.CodeMismatch()
	}
	pool := st.Pool()
	user.Status = domain.UserStatusConfirmed
	user.ConfirmationCode = ""
	if pool.AutoVerifies(domain.AttrEmail) && user.Email() != "" {
		user.Attributes = user.Attributes.Set(domain.AttrEmailVerified, "true")
	}
	if pool.AutoVerifies(domain.AttrPhoneNumber) && user.PhoneNumber() != "" {
		user.Attributes = user.Attributes.Set(domain.AttrPhoneNumberVerified, "true")
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return apperr.Internal(err)
	}
	s.postConfirmation(ctx, pool.ID, client.ClientID, user, "PostConfirmation_ConfirmSignUp")
	return nil
}

// ResendConfirmationCode regenerates and re-delivers the confirmation code
// for an unconfirmed user.
func (s *Service) ResendConfirmationCode(ctx context.Context, clientID, username string) (*messages.Details, error) {
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		return nil, apperr.UserNotFound()
	}
	if user.Status != domain.UserStatusUnconfirmed {
		return nil, apperr.InvalidParameter("User is already confirmed")
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
	return s.sender.Deliver(ctx, &pool, client.ClientID, user, "CustomMessage_ResendCode", code), nil
}

// ForgotPassword starts account recovery: a reset code is stored on the
// user and delivered. An absent user may still be created through the
// UserMigration hook.
func (s *Service) ForgotPassword(ctx context.Context, clientID, username string) (*messages.Details, error) {
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		user, err = s.migrateForRecovery(ctx, st, client, username)
		if err != nil {
			return nil, err
		}
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
	delivery := s.sender.Deliver(ctx, &pool, client.ClientID, user, "CustomMessage_ForgotPassword", code)
	if delivery == nil {
		return nil, apperr.InvalidParameter("User has no delivery destination for the reset code")
	}
	return delivery, nil
}

func (s *Service) migrateForRecovery(ctx context.Context, st *store.Store, client *domain.AppClient, username string) (*domain.User, error) {
	user, err := s.migrateUser(ctx, st, client, username, "", "UserMigration_ForgotPassword")
	if err != nil {
		if errors.Is(err, apperr.ErrNotAuthorized) {
			return nil, apperr.UserNotFound()
		}
		return nil, err
	}
	return user, nil
}

// ConfirmForgotPassword completes recovery: the code must match and the
// new password must satisfy the pool policy.
func (s *Service) ConfirmForgotPassword(ctx context.Context, clientID, username, code, newPassword string) error {
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return err
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		return apperr.UserNotFound()
	}
	if code == "" || code != user.ConfirmationCode {
		return apperr.CodeMismatch()
	}
	pool := st.Pool()
	if msg := pool.Policy.Check(newPassword); msg != "" {
		return apperr.PasswordPolicyViolation(msg)
	}
	user.Password = newPassword
	user.ConfirmationCode = ""
	user.Status = domain.UserStatusConfirmed
	if err := st.SaveUser(ctx, user); err != nil {
		return apperr.Internal(err)
	}
	s.postConfirmation(ctx, pool.ID, client.ClientID, user, "PostConfirmation_ConfirmForgotPassword")
	return nil
}

// postConfirmation fires the observational hook. Failures are logged and
// never surface to the caller.
func (s *Service) postConfirmation(ctx context.Context, poolID, clientID string, user *domain.User, source string) {
	if err := s.runtime.InvokePostConfirmation(ctx, poolID, clientID, user.Username, source, user.Attributes); err != nil {
		s.logger.Warn().Err(err).Str("pool_id", poolID).Str("username", user.Username).
			Str("trigger_source", source).Msg("post confirmation trigger failed")
	}
}
