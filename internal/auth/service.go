// Package auth implements the authentication state machine: password and
// refresh flows, challenges, sign-up, and account recovery.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/cognito"
	"cognito-emulator/internal/messages"
	"cognito-emulator/internal/otp"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/pool/store"
	"cognito-emulator/internal/token"
	"cognito-emulator/internal/triggers"
)

// Auth flow parameter and challenge response keys on the wire.
const (
	paramUsername     = "USERNAME"
	paramPassword     = "PASSWORD"
	paramNewPassword  = "NEW_PASSWORD"
	paramRefreshToken = "REFRESH_TOKEN"
	paramUserIDForSRP = "USER_ID_FOR_SRP"
	paramSMSCode      = "SMS_MFA_CODE"
	paramSoftwareCode = "SOFTWARE_TOKEN_MFA_CODE"
)

// Challenge names.
const (
	ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"
	ChallengeSMSMFA              = "SMS_MFA"
	ChallengeSoftwareTokenMFA    = "SOFTWARE_TOKEN_MFA"
	ChallengePasswordVerifier    = "PASSWORD_VERIFIER"
)

// Pending challenge sessions expire after this long.
const sessionTTL = 5 * time.Minute

// Challenge is a pending auth step the client must complete.
type Challenge struct {
	Name       string
	Parameters map[string]string
	Session    string
}

// Result is the outcome of an auth step: either a token set or a pending
// challenge, never both.
type Result struct {
	Tokens    *token.Set
	Challenge *Challenge
}

type challengeSession struct {
	challenge string
	poolID    string
	clientID  string
	username  string
	expires   time.Time
}

// Service drives the login state machine over the pool stores.
type Service struct {
	cognito *cognito.Service
	tokens  *token.Generator
	runtime *triggers.Runtime
	otp     *otp.Service
	sender  *messages.Sender
	clock   clock.Clock
	ids     clock.IDSource
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]challengeSession
}

// New wires the auth service.
func New(c *cognito.Service, tokens *token.Generator, runtime *triggers.Runtime, codes *otp.Service, sender *messages.Sender, clk clock.Clock, ids clock.IDSource, logger zerolog.Logger) *Service {
	return &Service{
		cognito:  c,
		tokens:   tokens,
		runtime:  runtime,
		otp:      codes,
		sender:   sender,
		clock:    clk,
		ids:      ids,
		logger:   logger,
		sessions: make(map[string]challengeSession),
	}
}

// InitiateAuth is the entry point of the login state machine.
func (s *Service) InitiateAuth(ctx context.Context, clientID, flow string, params map[string]string) (*Result, error) {
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return nil, apperr.NotAuthorized("Client is not enabled for this flow")
	}
	if !client.AllowsFlow(flow) {
		return nil, apperr.InvalidParameter("Initiate Auth method not supported")
	}
	switch flow {
	case domain.FlowUserPasswordAuth:
		return s.passwordAuth(ctx, st, client, params)
	case domain.FlowRefreshToken, domain.FlowRefreshTokenAuth:
		return s.refreshAuth(ctx, st, client, params)
	case domain.FlowUserSRPAuth:
		return s.srpChallenge(st, client), nil
	default:
		return nil, apperr.Unsupported("auth flow " + flow)
	}
}

// AdminInitiateAuth is the server-side entry point: the pool is named
// explicitly and the admin password flows are allowed.
func (s *Service) AdminInitiateAuth(ctx context.Context, poolID, clientID, flow string, params map[string]string) (*Result, error) {
	st, err := s.cognito.GetUserPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	client := st.GetClient(clientID)
	if client == nil {
		return nil, apperr.ResourceNotFound("Client " + clientID)
	}
	if !client.AllowsFlow(flow) {
		return nil, apperr.InvalidParameter("Initiate Auth method not supported")
	}
	switch flow {
	case domain.FlowAdminUserPasswordAuth, domain.FlowAdminNoSRPAuth, domain.FlowUserPasswordAuth:
		return s.passwordAuth(ctx, st, client, params)
	case domain.FlowRefreshToken, domain.FlowRefreshTokenAuth:
		return s.refreshAuth(ctx, st, client, params)
	default:
		return nil, apperr.Unsupported("auth flow " + flow)
	}
}

// passwordAuth runs the USER_PASSWORD_AUTH pipeline: migration, status
// branching, password check, MFA gate, token issuance.
func (s *Service) passwordAuth(ctx context.Context, st *store.Store, client *domain.AppClient, params map[string]string) (*Result, error) {
	username, password := params[paramUsername], params[paramPassword]
	if username == "" || password == "" {
		return nil, apperr.InvalidParameter("Missing required parameter USERNAME or PASSWORD")
	}
	pool := st.Pool()

	user := st.GetUserByUsername(username)
	if user == nil {
		migrated, err := s.migrateUser(ctx, st, client, username, password, "UserMigration_Authentication")
		if err != nil {
			return nil, err
		}
		user = migrated
	}

	if err := s.runtime.InvokePreAuthentication(ctx, pool.ID, client.ClientID, user.Username, user.Attributes); err != nil {
		return nil, err
	}

	switch user.Status {
	case domain.UserStatusResetRequired:
		return nil, apperr.PasswordResetRequired()
	case domain.UserStatusForceChangePassword:
		return s.newPasswordChallenge(pool.ID, client.ClientID, user), nil
	}
	if !user.Enabled {
		return nil, apperr.NotAuthorized("User is disabled.")
	}
	if user.Password != password {
		return nil, apperr.InvalidPassword()
	}
	if user.Status == domain.UserStatusUnconfirmed {
		return nil, apperr.UserNotConfirmed()
	}
	return s.finishPasswordAuth(ctx, st, client, user)
}

// finishPasswordAuth is the post-password path: the MFA gate, then the
// PostAuthentication hook, then token issuance.
func (s *Service) finishPasswordAuth(ctx context.Context, st *store.Store, client *domain.AppClient, user *domain.User) (*Result, error) {
	pool := st.Pool()
	mfaRequired := pool.MFAConfiguration == domain.MFAOn ||
		(pool.MFAConfiguration == domain.MFAOptional && len(user.MFAOptions) > 0)
	if mfaRequired {
		return s.mfaChallenge(ctx, st, client, user)
	}

	if err := s.runtime.InvokePostAuthentication(ctx, pool.ID, client.ClientID, user.Username, user.Attributes); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, st, client, user, triggers.SourceTokenAuthentication, "")
}

// mfaChallenge starts the MFA sub-flow for user and stores the pending
// session.
func (s *Service) mfaChallenge(ctx context.Context, st *store.Store, client *domain.AppClient, user *domain.User) (*Result, error) {
	if len(user.UserMFASettingList) == 0 {
		return nil, apperr.NotAuthorized("User does not have an MFA method configured")
	}
	if !user.HasMFASetting(domain.MFASettingSoftwareToken) {
		return nil, apperr.Unsupported("MFA challenge without SOFTWARE_TOKEN")
	}
	code, err := s.otp.Code()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user.MFACode = code
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	pool := st.Pool()
	session := s.newSession(ChallengeSoftwareTokenMFA, pool.ID, client.ClientID, user.Username)
	return &Result{Challenge: &Challenge{
		Name:       ChallengeSoftwareTokenMFA,
		Parameters: map[string]string{paramUserIDForSRP: user.Username},
		Session:    session,
	}}, nil
}

// newPasswordChallenge builds the NEW_PASSWORD_REQUIRED challenge for a
// user in FORCE_CHANGE_PASSWORD state.
func (s *Service) newPasswordChallenge(poolID, clientID string, user *domain.User) *Result {
	attrs, _ := json.Marshal(user.Attributes.Map())
	session := s.newSession(ChallengeNewPasswordRequired, poolID, clientID, user.Username)
	return &Result{Challenge: &Challenge{
		Name: ChallengeNewPasswordRequired,
		Parameters: map[string]string{
			paramUserIDForSRP:    user.Username,
			"requiredAttributes": "[]",
			"userAttributes":     string(attrs),
		},
		Session: session,
	}}
}

// refreshAuth re-issues access and ID tokens. The refresh token is returned
// unchanged; the emulator does not rotate.
func (s *Service) refreshAuth(ctx context.Context, st *store.Store, client *domain.AppClient, params map[string]string) (*Result, error) {
	refresh := params[paramRefreshToken]
	if refresh == "" {
		return nil, apperr.InvalidParameter("Missing required parameter REFRESH_TOKEN")
	}
	user := st.GetUserByRefreshToken(refresh)
	if user == nil {
		return nil, apperr.NotAuthorized("Refresh Token has been revoked")
	}
	if !user.Enabled {
		return nil, apperr.NotAuthorized("User is disabled.")
	}
	pool := st.Pool()
	groups := st.GroupNamesForUser(user.Username)
	set, err := s.tokens.Generate(ctx, &pool, client, user, groups, triggers.SourceTokenRefresh)
	if err != nil {
		return nil, err
	}
	set.RefreshToken = refresh
	return &Result{Tokens: set}, nil
}

// srpChallenge short-circuits SRP: the follow-up PASSWORD_VERIFIER response
// carries the plain password.
func (s *Service) srpChallenge(st *store.Store, client *domain.AppClient) *Result {
	pool := st.Pool()
	session := s.newSession(ChallengePasswordVerifier, pool.ID, client.ClientID, "")
	return &Result{Challenge: &Challenge{
		Name:       ChallengePasswordVerifier,
		Parameters: map[string]string{},
		Session:    session,
	}}
}

// RespondToAuthChallenge completes a pending challenge session.
func (s *Service) RespondToAuthChallenge(ctx context.Context, clientID, challengeName, session string, responses map[string]string) (*Result, error) {
	sess, ok := s.takeSession(session, challengeName, clientID)
	if !ok {
		return nil, apperr.NotAuthorized("Invalid session for the challenge")
	}
	client, st, err := s.cognito.GetAppClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	username := sess.username
	if username == "" {
		username = responses[paramUsername]
	}

	switch challengeName {
	case ChallengeNewPasswordRequired:
		return s.respondNewPassword(ctx, st, client, username, responses)
	case ChallengeSMSMFA, ChallengeSoftwareTokenMFA:
		res, err := s.respondMFA(ctx, st, client, username, challengeName, responses)
		if err != nil {
			// Keep the session alive so the client can retry the code.
			s.putSession(session, sess)
			return nil, err
		}
		return res, nil
	case ChallengePasswordVerifier:
		return s.passwordAuth(ctx, st, client, responses)
	default:
		return nil, apperr.Unsupported("challenge " + challengeName)
	}
}

func (s *Service) respondNewPassword(ctx context.Context, st *store.Store, client *domain.AppClient, username string, responses map[string]string) (*Result, error) {
	newPassword := responses[paramNewPassword]
	if username == "" || newPassword == "" {
		return nil, apperr.InvalidParameter("Missing required parameter NEW_PASSWORD")
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		return nil, apperr.UserNotFound()
	}
	pool := st.Pool()
	if msg := pool.Policy.Check(newPassword); msg != "" {
		return nil, apperr.PasswordPolicyViolation(msg)
	}
	user.Password = newPassword
	user.Status = domain.UserStatusConfirmed
	user.ConfirmationCode = ""
	for name, value := range responses {
		const prefix = "userAttributes."
		if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		attr := name[len(prefix):]
		if sa := pool.SchemaFor(attr); sa != nil && !sa.Mutable {
			continue
		}
		if !client.CanWrite(attr) {
			continue
		}
		user.Attributes = user.Attributes.Set(attr, value)
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.issueTokens(ctx, st, client, user, triggers.SourceTokenAuthentication, "")
}

func (s *Service) respondMFA(ctx context.Context, st *store.Store, client *domain.AppClient, username, challengeName string, responses map[string]string) (*Result, error) {
	code := responses[paramSoftwareCode]
	if challengeName == ChallengeSMSMFA {
		code = responses[paramSMSCode]
	}
	user := st.GetUserByUsername(username)
	if user == nil {
		return nil, apperr.UserNotFound()
	}
	if code == "" || user.MFACode == "" || code != user.MFACode {
		return nil, apperr.CodeMismatch()
	}
	user.MFACode = ""
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.issueTokens(ctx, st, client, user, triggers.SourceTokenAuthentication, "")
}

// issueTokens generates the token set and persists the new refresh token.
// refreshOverride, when set, replaces the generated refresh token and skips
// persistence (the refresh flow).
func (s *Service) issueTokens(ctx context.Context, st *store.Store, client *domain.AppClient, user *domain.User, source, refreshOverride string) (*Result, error) {
	pool := st.Pool()
	groups := st.GroupNamesForUser(user.Username)
	set, err := s.tokens.Generate(ctx, &pool, client, user, groups, source)
	if err != nil {
		return nil, err
	}
	if refreshOverride != "" {
		set.RefreshToken = refreshOverride
		return &Result{Tokens: set}, nil
	}
	if err := st.StoreRefreshToken(ctx, set.RefreshToken, user.Username); err != nil {
		return nil, apperr.Internal(err)
	}
	return &Result{Tokens: set}, nil
}

// migrateUser invokes the UserMigration hook for an absent user and
// persists the returned record. No binding or a declined migration means
// the user stays absent.
func (s *Service) migrateUser(ctx context.Context, st *store.Store, client *domain.AppClient, username, password, source string) (*domain.User, error) {
	pool := st.Pool()
	migrated, err := s.runtime.InvokeUserMigration(ctx, pool.ID, client.ClientID, username, password, source)
	if errors.Is(err, triggers.ErrNotBound) {
		return nil, apperr.NotAuthorized("Incorrect username or password.")
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("pool_id", pool.ID).Str("username", username).
			Msg("user migration trigger failed")
		return nil, apperr.NotAuthorized("Incorrect username or password.")
	}
	if migrated == nil {
		return nil, apperr.NotAuthorized("Incorrect username or password.")
	}

	now := s.clock.Now()
	user := &domain.User{
		Username:   username,
		Attributes: migrated.Attributes,
		Password:   password,
		Status:     domain.UserStatusConfirmed,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if migrated.FinalUserStatus != "" {
		user.Status = migrated.FinalUserStatus
	}
	if user.Sub() == "" {
		user.Attributes = user.Attributes.Set(domain.AttrSub, s.ids.NewID())
	}
	if err := st.SaveUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// newSession records a pending challenge and returns its id.
func (s *Service) newSession(challenge, poolID, clientID, username string) string {
	id := s.ids.NewID()
	s.putSession(id, challengeSession{
		challenge: challenge,
		poolID:    poolID,
		clientID:  clientID,
		username:  username,
		expires:   s.clock.Now().Add(sessionTTL),
	})
	return id
}

// putSession stores a pending session and sweeps out expired ones so
// abandoned challenges do not accumulate.
func (s *Service) putSession(id string, sess challengeSession) {
	s.mu.Lock()
	now := s.clock.Now()
	for k, v := range s.sessions {
		if now.After(v.expires) {
			delete(s.sessions, k)
		}
	}
	s.sessions[id] = sess
	s.mu.Unlock()
}

// takeSession removes and returns the session if it exists, matches, and
// has not expired.
func (s *Service) takeSession(id, challenge, clientID string) (challengeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return challengeSession{}, false
	}
	delete(s.sessions, id)
	if sess.challenge != challenge || sess.clientID != clientID || s.clock.Now().After(sess.expires) {
		return challengeSession{}, false
	}
	return sess, true
}
