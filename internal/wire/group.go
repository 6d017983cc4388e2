package wire

// CreateGroupRequest creates a group in a pool.
type CreateGroupRequest struct {
	UserPoolId  string `json:"UserPoolId"`
	GroupName   string `json:"GroupName"`
	Description string `json:"Description,omitempty"`
	RoleArn     string `json:"RoleArn,omitempty"`
	Precedence  *int   `json:"Precedence,omitempty"`
}

// CreateGroupResponse returns the created group.
type CreateGroupResponse struct {
	Group *GroupType `json:"Group,omitempty"`
}

// GetGroupRequest fetches a group by name.
type GetGroupRequest struct {
	UserPoolId string `json:"UserPoolId"`
	GroupName  string `json:"GroupName"`
}

// GetGroupResponse returns the group.
type GetGroupResponse struct {
	Group *GroupType `json:"Group,omitempty"`
}

// UpdateGroupRequest updates a group's metadata.
type UpdateGroupRequest struct {
	UserPoolId  string `json:"UserPoolId"`
	GroupName   string `json:"GroupName"`
	Description string `json:"Description,omitempty"`
	RoleArn     string `json:"RoleArn,omitempty"`
	Precedence  *int   `json:"Precedence,omitempty"`
}

// UpdateGroupResponse returns the updated group.
type UpdateGroupResponse struct {
	Group *GroupType `json:"Group,omitempty"`
}

// DeleteGroupRequest deletes a group.
type DeleteGroupRequest struct {
	UserPoolId string `json:"UserPoolId"`
	GroupName  string `json:"GroupName"`
}

// ListGroupsRequest lists a pool's groups.
type ListGroupsRequest struct {
	UserPoolId string `json:"UserPoolId"`
	Limit      int    `json:"Limit,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

// ListGroupsResponse is one page of groups.
type ListGroupsResponse struct {
	Groups    []GroupType `json:"Groups,omitempty"`
	NextToken string      `json:"NextToken,omitempty"`
}

// ListUsersInGroupRequest lists members of a group.
type ListUsersInGroupRequest struct {
	UserPoolId string `json:"UserPoolId"`
	GroupName  string `json:"GroupName"`
	Limit      int    `json:"Limit,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

// ListUsersInGroupResponse is one page of group members.
type ListUsersInGroupResponse struct {
	Users     []UserType `json:"Users,omitempty"`
	NextToken string     `json:"NextToken,omitempty"`
}
