package client

import (
	"context"
	"net/url"

	"github.com/dagknows/dkqa/model"
)

// ReqRouter wraps the request router gateway API. The gateway fronts the
// backend microservices and also serves the browser session endpoints.
type ReqRouter struct {
	c *Client
}

// NewReqRouter creates a request router client. A cookie jar is always
// enabled because /vlogin establishes a cookie session.
func NewReqRouter(baseURL string, opts ...Option) *ReqRouter {
	opts = append([]Option{WithCookieJar()}, opts...)
	return &ReqRouter{c: New("reqrouter", baseURL, opts...)}
}

// Core exposes the underlying client, mainly for tests.
func (rr *ReqRouter) Core() *Client {
	return rr.c
}

// SignIn authenticates with email/password and returns a session token.
func (rr *ReqRouter) SignIn(ctx context.Context, req model.SignInRequest) (model.SignInResponse, error) {
	var resp model.SignInResponse
	err := rr.c.call(ctx, "signIn", "POST", "/user/sign-in", nil, req, &resp)
	return resp, err
}

// VLogin performs the browser-style login, establishing a cookie session on
// the client's jar.
func (rr *ReqRouter) VLogin(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return rr.c.call(ctx, "vLogin", "POST", "/vlogin", nil, body, nil)
}

// VLogout ends the cookie session.
func (rr *ReqRouter) VLogout(ctx context.Context) error {
	return rr.c.call(ctx, "vLogout", "POST", "/vlogout", nil, nil, nil)
}

// OrgUsers lists the members of the token's organization.
func (rr *ReqRouter) OrgUsers(ctx context.Context) ([]model.User, error) {
	var resp struct {
		Users []model.User `json:"users"`
	}
	err := rr.c.call(ctx, "orgUsers", "GET", "/get_org_users", nil, nil, &resp)
	return resp.Users, err
}

// GetUserRoles fetches the roles assigned to a user.
func (rr *ReqRouter) GetUserRoles(ctx context.Context, userID string) (model.UserRoles, error) {
	var roles model.UserRoles
	err := rr.c.call(ctx, "getUserRoles", "GET", "/api/iam/users/"+url.PathEscape(userID)+"/roles", nil, nil, &roles)
	return roles, err
}

// SetUserRoles replaces the roles assigned to a user.
func (rr *ReqRouter) SetUserRoles(ctx context.Context, userID string, roles []string) (model.UserRoles, error) {
	var updated model.UserRoles
	err := rr.c.call(ctx, "setUserRoles", "PUT", "/api/iam/users/"+url.PathEscape(userID)+"/roles", nil,
		model.UserRoles{Roles: roles}, &updated)
	return updated, err
}

// GetSettings fetches the tenant settings.
func (rr *ReqRouter) GetSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	err := rr.c.call(ctx, "getSettings", "GET", "/getSettings", nil, nil, &settings)
	return settings, err
}

// SetFlags applies a partial settings update.
func (rr *ReqRouter) SetFlags(ctx context.Context, update model.FlagUpdate) (model.Settings, error) {
	var settings model.Settings
	err := rr.c.call(ctx, "setFlags", "POST", "/setFlags", nil, update, &settings)
	return settings, err
}

// ProcessGrafanaAlert submits a Grafana-style webhook to /processAlert.
func (rr *ReqRouter) ProcessGrafanaAlert(ctx context.Context, alert model.GrafanaAlert) (model.AlertResult, error) {
	var result model.AlertResult
	err := rr.c.call(ctx, "processAlert", "POST", "/processAlert", nil, alert, &result)
	return result, err
}

// ProcessPagerDutyAlert submits a PagerDuty-style webhook to /processAlert.
func (rr *ReqRouter) ProcessPagerDutyAlert(ctx context.Context, event model.PagerDutyEvent) (model.AlertResult, error) {
	var result model.AlertResult
	err := rr.c.call(ctx, "processAlert", "POST", "/processAlert", nil, event, &result)
	return result, err
}

// SearchTasks searches tasks through the gateway's proxied task endpoint.
func (rr *ReqRouter) SearchTasks(ctx context.Context, query string) (model.TaskList, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	var list model.TaskList
	err := rr.c.call(ctx, "searchTasks", "GET", "/api/tasks", q, nil, &list)
	return list, err
}
