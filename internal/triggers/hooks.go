package triggers

import (
	"context"
	"errors"

	"cognito-emulator/internal/pool/domain"
)

// MigratedUser is the synthetic user record a UserMigration handler may
// return.
type MigratedUser struct {
	Attributes      domain.Attributes
	FinalUserStatus domain.UserStatus
	MessageAction   string
}

// InvokeUserMigration runs the UserMigration hook for an absent user.
// A nil result with nil error means the handler declined to migrate.
func (r *Runtime) InvokeUserMigration(ctx context.Context, poolID, clientID, username, password, source string) (*MigratedUser, error) {
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"password":       password,
			"validationData": map[string]any{},
		},
	}
	out, err := r.Invoke(ctx, poolID, UserMigration, source, event)
	if err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, ErrNotBound
		}
		return nil, err
	}
	attrs, ok := out.Response["userAttributes"].(map[string]any)
	if !ok {
		return nil, nil
	}
	m := &MigratedUser{}
	for name, v := range attrs {
		if s, ok := v.(string); ok {
			m.Attributes = m.Attributes.Set(name, s)
		}
	}
	if s, ok := out.Response["finalUserStatus"].(string); ok {
		m.FinalUserStatus = domain.UserStatus(s)
	}
	if s, ok := out.Response["messageAction"].(string); ok {
		m.MessageAction = s
	}
	return m, nil
}

// PreSignUpResult carries the auto-confirm and auto-verify decisions of a
// PreSignUp handler.
type PreSignUpResult struct {
	AutoConfirmUser bool
	AutoVerifyEmail bool
	AutoVerifyPhone bool
}

// InvokePreSignUp runs the PreSignUp hook. Handler failure aborts sign-up.
func (r *Runtime) InvokePreSignUp(ctx context.Context, poolID, clientID, username string, attributes domain.Attributes) (*PreSignUpResult, error) {
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"userAttributes": attributesMap(attributes),
		},
	}
	out, err := r.Invoke(ctx, poolID, PreSignUp, "PreSignUp_SignUp", event)
	if err != nil {
		return nil, err
	}
	res := &PreSignUpResult{}
	res.AutoConfirmUser, _ = out.Response["autoConfirmUser"].(bool)
	res.AutoVerifyEmail, _ = out.Response["autoVerifyEmail"].(bool)
	res.AutoVerifyPhone, _ = out.Response["autoVerifyPhone"].(bool)
	return res, nil
}

// InvokePreAuthentication runs the PreAuthentication hook before the
// password check. Handler failure aborts the login.
func (r *Runtime) InvokePreAuthentication(ctx context.Context, poolID, clientID, username string, attributes domain.Attributes) error {
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"userAttributes": attributesMap(attributes),
		},
	}
	_, err := r.Invoke(ctx, poolID, PreAuthentication, "PreAuthentication_Authentication", event)
	if errors.Is(err, ErrNotBound) {
		return nil
	}
	return err
}

// InvokePostAuthentication runs the PostAuthentication hook after a
// successful login. Handler failure aborts the login.
func (r *Runtime) InvokePostAuthentication(ctx context.Context, poolID, clientID, username string, attributes domain.Attributes) error {
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"userAttributes": attributesMap(attributes),
			"newDeviceUsed":  false,
		},
	}
	_, err := r.Invoke(ctx, poolID, PostAuthentication, "PostAuthentication_Authentication", event)
	if errors.Is(err, ErrNotBound) {
		return nil
	}
	return err
}

// InvokePostConfirmation runs the observational PostConfirmation hook.
// Errors are returned for the caller to log; they must not fail the call.
func (r *Runtime) InvokePostConfirmation(ctx context.Context, poolID, clientID, username, source string, attributes domain.Attributes) error {
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"userAttributes": attributesMap(attributes),
		},
	}
	_, err := r.Invoke(ctx, poolID, PostConfirmation, source, event)
	if errors.Is(err, ErrNotBound) {
		return nil
	}
	return err
}

// ClaimsOverride is the v2 PreTokenGeneration contract: claims to add or
// override, claims to suppress, and an optional group override. Overrides
// apply to both the access and ID tokens.
type ClaimsOverride struct {
	ClaimsToAddOrOverride map[string]any
	ClaimsToSuppress      []string
	GroupsToOverride      []string
	HasGroupOverride      bool
}

// InvokePreTokenGeneration runs the PreTokenGeneration hook before the
// JWTs are signed. Handler failure aborts token issuance.
func (r *Runtime) InvokePreTokenGeneration(ctx context.Context, poolID, clientID, username, source string, attributes domain.Attributes, groups []string) (*ClaimsOverride, error) {
	groupConfig := map[string]any{"groupsToOverride": toAny(groups)}
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"userAttributes":     attributesMap(attributes),
			"groupConfiguration": groupConfig,
		},
	}
	out, err := r.Invoke(ctx, poolID, PreTokenGeneration, source, event)
	if err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, ErrNotBound
		}
		return nil, err
	}
	details, ok := out.Response["claimsAndScopeOverrideDetails"].(map[string]any)
	if !ok {
		// v1 contract fallback.
		details, ok = out.Response["claimsOverrideDetails"].(map[string]any)
		if !ok {
			return &ClaimsOverride{}, nil
		}
	}
	ov := &ClaimsOverride{}
	if add, ok := details["claimsToAddOrOverride"].(map[string]any); ok {
		ov.ClaimsToAddOrOverride = add
	}
	if sup, ok := details["claimsToSuppress"].([]any); ok {
		for _, v := range sup {
			if s, ok := v.(string); ok {
				ov.ClaimsToSuppress = append(ov.ClaimsToSuppress, s)
			}
		}
	}
	if gd, ok := details["groupOverrideDetails"].(map[string]any); ok {
		if gs, ok := gd["groupsToOverride"].([]any); ok {
			ov.HasGroupOverride = true
			for _, v := range gs {
				if s, ok := v.(string); ok {
					ov.GroupsToOverride = append(ov.GroupsToOverride, s)
				}
			}
		}
	}
	return ov, nil
}

// MessageOverride carries a CustomMessage handler's template overrides.
type MessageOverride struct {
	SMSMessage   string
	EmailSubject string
	EmailMessage string
}

// InvokeCustomMessage runs the CustomMessage hook when a message is about
// to be rendered. On handler failure callers fall back to the default
// template.
func (r *Runtime) InvokeCustomMessage(ctx context.Context, poolID, clientID, username, source, code string, attributes domain.Attributes) (*MessageOverride, error) {
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"userAttributes":    attributesMap(attributes),
			"codeParameter":     code,
			"usernameParameter": username,
		},
	}
	out, err := r.Invoke(ctx, poolID, CustomMessage, source, event)
	if err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil, ErrNotBound
		}
		return nil, err
	}
	ov := &MessageOverride{}
	ov.SMSMessage, _ = out.Response["smsMessage"].(string)
	ov.EmailSubject, _ = out.Response["emailSubject"].(string)
	ov.EmailMessage, _ = out.Response["emailMessage"].(string)
	return ov, nil
}

// InvokeCustomSender runs the CustomEmailSender or CustomSMSSender hook,
// handing the code to the bound handler for delivery. The handler owns the
// delivery; the caller records nothing on success.
func (r *Runtime) InvokeCustomSender(ctx context.Context, hook Hook, poolID, clientID, username, source, code string, attributes domain.Attributes) error {
	reqType := "customEmailSenderRequestV1"
	if hook == CustomSMSSender {
		reqType = "customSMSSenderRequestV1"
	}
	event := Event{
		UserName:      username,
		CallerContext: CallerContext{ClientID: clientID},
		Request: map[string]any{
			"type":           reqType,
			"code":           code,
			"userAttributes": attributesMap(attributes),
		},
	}
	_, err := r.Invoke(ctx, poolID, hook, source, event)
	return err
}

func attributesMap(attrs domain.Attributes) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}
	return m
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
