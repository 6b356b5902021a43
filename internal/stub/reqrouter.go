package stub

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dagknows/dkqa/internal/auth"
	"github.com/dagknows/dkqa/model"
)

const sessionTTL = 8 * time.Hour

// registerReqRouter mounts the request router surface on the given engine.
func (p *Platform) registerReqRouter(e *gin.Engine) {
	e.GET("/.well-known/jwks.json", gin.WrapF(p.Issuer.JWKSHandler()))

	e.POST("/user/sign-in", p.Recorder.middleware("signIn"), p.handleSignIn)
	e.POST("/vlogin", p.Recorder.middleware("vlogin"), p.handleVLogin)
	e.POST("/vlogout", p.Recorder.middleware("vlogout"), p.handleVLogout)

	authed := e.Group("/", requireAuth(p.Issuer))
	authed.GET("/get_org_users", p.Recorder.middleware("orgUsers"), p.handleOrgUsers)
	authed.GET("/api/iam/users/:id/roles", p.Recorder.middleware("getUserRoles"), p.handleGetUserRoles)
	authed.PUT("/api/iam/users/:id/roles", p.Recorder.middleware("setUserRoles"), p.handleSetUserRoles)
	authed.GET("/getSettings", p.Recorder.middleware("getSettings"), p.handleGetSettings)
	authed.POST("/setFlags", p.Recorder.middleware("setFlags"), p.handleSetFlags)
	authed.GET("/api/tasks", p.Recorder.middleware("searchTasks"), p.handleSearchTasks)
	authed.POST("/processAlert", p.Recorder.middleware("processAlert"), p.handleProcessAlert)
}

// authenticate checks the email and password against the registered users
// and returns a signed session token.
func (p *Platform) authenticate(email, password string) (string, model.User, error) {
	p.credMu.RLock()
	expected, ok := p.credentials[email]
	p.credMu.RUnlock()
	if !ok || expected != password {
		return "", model.User{}, model.NewUnauthorizedError("invalid email or password")
	}

	var user model.User
	for _, u := range p.Store.ListUsers("") {
		if u.Email == email {
			user = u
			break
		}
	}

	roles, _ := p.Store.GetUserRoles(user.ID)
	token, err := p.Issuer.Sign(auth.Claims{
		SubjectID: user.ID,
		Email:     user.Email,
		Org:       user.Org,
		Roles:     roles,
	}, sessionTTL)
	if err != nil {
		return "", model.User{}, err
	}
	user.Roles = roles
	return token, user, nil
}

func (p *Platform) handleSignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, model.NewBadRequestError("invalid sign-in payload: "+err.Error()))
		return
	}
	token, user, err := p.authenticate(req.Email, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SignInResponse{Token: token, User: user})
}

// handleVLogin accepts either a JSON or form-encoded credential pair and
// establishes a cookie session, mirroring the browser login flow.
func (p *Platform) handleVLogin(c *gin.Context) {
	var req model.SignInRequest
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeErr(c, model.NewBadRequestError("invalid login payload: "+err.Error()))
			return
		}
	} else {
		req.Email = c.PostForm("username")
		req.Password = c.PostForm("password")
		req.Org = c.PostForm("org")
	}

	token, user, err := p.authenticate(req.Email, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.SetCookie(sessionCookie, token, int(sessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, model.SignInResponse{Token: token, User: user})
}

func (p *Platform) handleVLogout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (p *Platform) handleOrgUsers(c *gin.Context) {
	org := c.Query("org")
	if org == "" {
		if claims, ok := c.Get("claims"); ok {
			org = claims.(auth.Claims).Org
		}
	}
	users := p.Store.ListUsers(org)
	for i := range users {
		roles, _ := p.Store.GetUserRoles(users[i].ID)
		users[i].Roles = roles
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (p *Platform) handleGetUserRoles(c *gin.Context) {
	userID := c.Param("id")
	roles, err := p.Store.GetUserRoles(userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.UserRoles{UserID: userID, Roles: roles})
}

func (p *Platform) handleSetUserRoles(c *gin.Context) {
	var req model.UserRoles
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, model.NewBadRequestError("invalid roles payload: "+err.Error()))
		return
	}
	userID := c.Param("id")
	if err := p.Store.SetUserRoles(userID, req.Roles); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, model.UserRoles{UserID: userID, Roles: req.Roles})
}

func (p *Platform) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, p.Store.GetSettings())
}

func (p *Platform) handleSetFlags(c *gin.Context) {
	var update model.FlagUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		writeErr(c, model.NewBadRequestError("invalid flags payload: "+err.Error()))
		return
	}
	settings, err := p.Store.SetFlags(update)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handleSearchTasks is the gateway's task search, backed by the same store
// the task service serves.
func (p *Platform) handleSearchTasks(c *gin.Context) {
	list := p.Store.ListTasks(c.Query("workspace_id"), c.Query("q"), c.Query("tag"), 1, 100)
	c.JSON(http.StatusOK, list)
}

// handleProcessAlert accepts a Grafana or PagerDuty webhook body, telling
// them apart by their required fields.
func (p *Platform) handleProcessAlert(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		writeErr(c, model.NewBadRequestError("invalid alert payload: "+err.Error()))
		return
	}

	var alert normalizedAlert
	switch {
	case raw["ruleName"] != nil:
		var ga model.GrafanaAlert
		if err := rebind(raw, &ga); err != nil {
			writeErr(c, model.NewBadRequestError("invalid Grafana alert: "+err.Error()))
			return
		}
		alert = normalizeGrafana(ga)
	case raw["event_action"] != nil:
		var pd model.PagerDutyEvent
		if err := rebind(raw, &pd); err != nil {
			writeErr(c, model.NewBadRequestError("invalid PagerDuty event: "+err.Error()))
			return
		}
		alert = normalizePagerDuty(pd)
	default:
		writeErr(c, model.NewBadRequestError("unrecognized alert body"))
		return
	}

	result := p.alerts.process(alert)
	p.Metrics.AlertsProcessedTotal.WithLabelValues(result.Mode).Inc()
	if result.Deduplicated {
		p.Metrics.AlertsDeduplicatedTotal.Inc()
	}
	if result.JobID != "" {
		p.Metrics.JobsCreatedTotal.Inc()
		p.finishLater(result.JobID)
	}
	c.JSON(http.StatusOK, result)
}
