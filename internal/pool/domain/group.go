package domain

import "time"

// Group is a named set of pool members with an optional IAM role and
// precedence. Members are usernames in canonical (case-preserving) form.
type Group struct {
	Name        string    `json:"GroupName"`
	Description string    `json:"Description,omitempty"`
	RoleArn     string    `json:"RoleArn,omitempty"`
	Precedence  *int      `json:"Precedence,omitempty"`
	Members     []string  `json:"Members,omitempty"`
	CreatedAt   time.Time `json:"CreationDate"`
	UpdatedAt   time.Time `json:"LastModifiedDate"`
}

// HasMember reports whether username is a member (exact canonical match).
func (g *Group) HasMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = append([]string(nil), g.Members...)
	if g.Precedence != nil {
		p := *g.Precedence
		c.Precedence = &p
	}
	return &c
}
