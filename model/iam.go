package model

// Role is an IAM role as returned by GET /api/v1/iam/roles.
type Role struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Privileges  []string `json:"privileges,omitempty"`
}

// RoleList is the response of GET /api/v1/iam/roles.
type RoleList struct {
	Roles []Role `json:"roles"`
}

// User is an organization member as returned by /get_org_users.
type User struct {
	ID        string   `json:"id,omitempty"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Org       string   `json:"org,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Enabled   bool     `json:"enabled,omitempty"`
}

// UserRoles is the payload round-tripped through
// /api/iam/users/{id}/roles.
type UserRoles struct {
	UserID string   `json:"user_id,omitempty"`
	Roles  []string `json:"roles"`
}

// SignInRequest is the body of POST /user/sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Org      string `json:"org,omitempty"`
}

// SignInResponse carries the session token returned on successful sign-in.
type SignInResponse struct {
	Token string `json:"token"`
	User  User   `json:"user,omitempty"`
}
