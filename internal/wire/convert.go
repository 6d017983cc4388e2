package wire

import "cognito-emulator/internal/pool/domain"

// ToAttributes converts wire attributes to the domain list form.
func ToAttributes(in []AttributeType) domain.Attributes {
	out := make(domain.Attributes, 0, len(in))
	for _, a := range in {
		out = out.Set(a.Name, a.Value)
	}
	return out
}

// FromAttributes converts domain attributes to the wire list form.
func FromAttributes(in domain.Attributes) []AttributeType {
	out := make([]AttributeType, 0, len(in))
	for _, a := range in {
		out = append(out, AttributeType{Name: a.Name, Value: a.Value})
	}
	return out
}

// FromMFAOptions converts domain MFA options to the wire shape.
func FromMFAOptions(in []domain.MFAOption) []MFAOptionType {
	if len(in) == 0 {
		return nil
	}
	out := make([]MFAOptionType, 0, len(in))
	for _, o := range in {
		out = append(out, MFAOptionType{DeliveryMedium: o.DeliveryMedium, AttributeName: o.AttributeName})
	}
	return out
}

// FromUser builds the UserType shape used by list and admin-create
// responses.
func FromUser(u *domain.User) UserType {
	return UserType{
		Username:             u.Username,
		Attributes:           FromAttributes(u.Attributes),
		UserCreateDate:       NewTime(u.CreatedAt),
		UserLastModifiedDate: NewTime(u.UpdatedAt),
		Enabled:              u.Enabled,
		UserStatus:           string(u.Status),
		MFAOptions:           FromMFAOptions(u.MFAOptions),
	}
}

// FromGroup builds the GroupType shape.
func FromGroup(poolID string, g *domain.Group) GroupType {
	return GroupType{
		GroupName:        g.Name,
		UserPoolId:       poolID,
		Description:      g.Description,
		RoleArn:          g.RoleArn,
		Precedence:       g.Precedence,
		CreationDate:     NewTime(g.CreatedAt),
		LastModifiedDate: NewTime(g.UpdatedAt),
	}
}

// FromPool builds the full UserPoolType shape.
func FromPool(p *domain.UserPool) *UserPoolType {
	schema := make([]SchemaAttributeType, 0, len(p.Schema))
	for _, sa := range p.Schema {
		schema = append(schema, SchemaAttributeType{
			Name:              sa.Name,
			AttributeDataType: sa.AttributeDataType,
			Mutable:           sa.Mutable,
			Required:          sa.Required,
		})
	}
	return &UserPoolType{
		Id:               p.ID,
		Name:             p.Name,
		MfaConfiguration: string(p.MFAConfiguration),
		Policies: &UserPoolPolicyType{PasswordPolicy: &PasswordPolicyType{
			MinimumLength:    p.Policy.MinimumLength,
			RequireUppercase: p.Policy.RequireUppercase,
			RequireLowercase: p.Policy.RequireLowercase,
			RequireNumbers:   p.Policy.RequireNumbers,
			RequireSymbols:   p.Policy.RequireSymbols,
		}},
		AutoVerifiedAttributes: p.AutoVerifiedAttributes,
		SchemaAttributes:       schema,
		CreationDate:           NewTime(p.CreatedAt),
		LastModifiedDate:       NewTime(p.UpdatedAt),
	}
}

// FromClient builds the full UserPoolClientType shape.
func FromClient(c *domain.AppClient) *UserPoolClientType {
	return &UserPoolClientType{
		ClientId:             c.ClientID,
		UserPoolId:           c.UserPoolID,
		ClientName:           c.Name,
		ClientSecret:         c.Secret,
		ExplicitAuthFlows:    c.ExplicitAuthFlows,
		AccessTokenValidity:  c.AccessTokenValidity,
		IdTokenValidity:      c.IDTokenValidity,
		RefreshTokenValidity: c.RefreshTokenValidity,
		ReadAttributes:       c.ReadAttributes,
		WriteAttributes:      c.WriteAttributes,
		CreationDate:         NewTime(c.CreatedAt),
		LastModifiedDate:     NewTime(c.UpdatedAt),
	}
}
