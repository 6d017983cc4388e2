package store

import (
	"encoding/base64"
	"regexp"
	"strings"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/pool/domain"
)

// filterExpr matches the restricted AWS list-users filter grammar:
// attr = "value" (exact) or attr ^= "value" (prefix).
var filterExpr = regexp.MustCompile(`^\s*([\w:+.-]+)\s*(=|\^=)\s*"(.*)"\s*$`)

type userFilter struct {
	attr   string
	prefix bool
	value  string
}

func parseFilter(expr string) (*userFilter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	m := filterExpr.FindStringSubmatch(expr)
	if m == nil {
		return nil, apperr.InvalidParameter("invalid filter: %q", expr)
	}
	return &userFilter{attr: m[1], prefix: m[2] == "^=", value: m[3]}, nil
}

func (f *userFilter) matches(u *domain.User) bool {
	var got string
	switch f.attr {
	case "username":
		got = u.Username
	case "cognito:user_status", "status":
		got = string(u.Status)
	default:
		got, _ = u.Attributes.Get(f.attr)
	}
	if f.prefix {
		return strings.HasPrefix(got, f.value)
	}
	return got == f.value
}

// encodeCursor wraps the last returned sub as an opaque pagination token.
func encodeCursor(sub string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sub))
}

func decodeCursor(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", apperr.InvalidParameter("invalid pagination token")
	}
	return string(b), nil
}

// ListUsers returns one page of users in stable sub order. filter is the
// restricted AWS attribute filter; token is an opaque cursor from a prior
// page; limit <= 0 means the protocol maximum of 60.
func (s *Store) ListUsers(filterExpr, token string, limit int) ([]*domain.User, string, error) {
	f, err := parseFilter(filterExpr)
	if err != nil {
		return nil, "", err
	}
	after, err := decodeCursor(token)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > 60 {
		limit = 60
	}
	var page []*domain.User
	for _, u := range s.Users() {
		if after != "" && u.Sub() <= after {
			continue
		}
		if f != nil && !f.matches(u) {
			continue
		}
		page = append(page, u)
		if len(page) == limit {
			return page, encodeCursor(u.Sub()), nil
		}
	}
	return page, "", nil
}
