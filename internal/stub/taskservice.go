package stub

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dagknows/dkqa/internal/auth"
	"github.com/dagknows/dkqa/model"
)

const sessionCookie = "dkqa_session"

// writeErr renders an error as the platform envelope. Anything that is not
// an APIError becomes a 500.
func writeErr(c *gin.Context, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &model.APIError{
			StatusCode: http.StatusInternalServerError,
			Code:       model.ErrInternalError,
			Message:    err.Error(),
		}
	}
	c.JSON(apiErr.StatusCode, apiErr)
}

// requireAuth verifies the bearer token, or failing that the session cookie,
// against the platform issuer.
func requireAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		} else if cookie, err := c.Cookie(sessionCookie); err == nil {
			token = cookie
		}
		if token == "" {
			writeErr(c, model.NewUnauthorizedError("missing credentials"))
			c.Abort()
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			writeErr(c, model.NewUnauthorizedError("invalid or expired token"))
			c.Abort()
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// registerTaskService mounts the task service surface on the given engine.
func (p *Platform) registerTaskService(e *gin.Engine) {
	api := e.Group("/api/v1", requireAuth(p.Issuer))

	api.GET("/tasks", p.Recorder.middleware("listTasks"), p.handleListTasks)
	api.POST("/tasks", p.Recorder.middleware("createTask"), p.handleCreateTask)
	api.GET("/tasks/:id", p.Recorder.middleware("getTask"), p.handleGetTask)
	api.PATCH("/tasks/:id", p.Recorder.middleware("updateTask"), p.handleUpdateTask)
	api.DELETE("/tasks/:id", p.Recorder.middleware("deleteTask"), p.handleDeleteTask)

	api.GET("/workspaces", p.Recorder.middleware("listWorkspaces"), p.handleListWorkspaces)
	api.POST("/workspaces", p.Recorder.middleware("createWorkspace"), p.handleCreateWorkspace)
	api.GET("/workspaces/:id", p.Recorder.middleware("getWorkspace"), p.handleGetWorkspace)
	api.DELETE("/workspaces/:id", p.Recorder.middleware("deleteWorkspace"), p.handleDeleteWorkspace)

	api.GET("/jobs", p.Recorder.middleware("listJobs"), p.handleListJobs)
	api.POST("/jobs", p.Recorder.middleware("createJob"), p.handleCreateJob)
	api.GET("/jobs/:id", p.Recorder.middleware("getJob"), p.handleGetJob)
	api.DELETE("/jobs/:id", p.Recorder.middleware("deleteJob"), p.handleDeleteJob)

	api.GET("/iam/roles", p.Recorder.middleware("listRoles"), p.handleListRoles)
}

func (p *Platform) handleCreateTask(c *gin.Context) {
	var t model.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		writeErr(c, model.NewBadRequestError("invalid task payload: "+err.Error()))
		return
	}
	if claims, ok := c.Get("claims"); ok {
		t.OwnerID = claims.(auth.Claims).SubjectID
	}
	created, err := p.Store.CreateTask(t)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (p *Platform) handleGetTask(c *gin.Context) {
	t, err := p.Store.GetTask(c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (p *Platform) handleListTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	list := p.Store.ListTasks(c.Query("workspace_id"), c.Query("q"), c.Query("tag"), page, pageSize)
	c.JSON(http.StatusOK, list)
}

func (p *Platform) handleUpdateTask(c *gin.Context) {
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeErr(c, model.NewBadRequestError("invalid patch payload: "+err.Error()))
		return
	}
	t, err := p.Store.UpdateTask(c.Param("id"), patch)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (p *Platform) handleDeleteTask(c *gin.Context) {
	if err := p.Store.DeleteTask(c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (p *Platform) handleCreateWorkspace(c *gin.Context) {
	var w model.Workspace
	if err := c.ShouldBindJSON(&w); err != nil {
		writeErr(c, model.NewBadRequestError("invalid workspace payload: "+err.Error()))
		return
	}
	created, err := p.Store.CreateWorkspace(w)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (p *Platform) handleGetWorkspace(c *gin.Context) {
	w, err := p.Store.GetWorkspace(c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (p *Platform) handleListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, p.Store.ListWorkspaces())
}

func (p *Platform) handleDeleteWorkspace(c *gin.Context) {
	if err := p.Store.DeleteWorkspace(c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (p *Platform) handleCreateJob(c *gin.Context) {
	var req model.Job
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, model.NewBadRequestError("invalid job payload: "+err.Error()))
		return
	}
	triggeredBy := "api"
	if claims, ok := c.Get("claims"); ok {
		triggeredBy = claims.(auth.Claims).SubjectID
	}
	job, err := p.Store.CreateJob(req.TaskID, triggeredBy, req.Params)
	if err != nil {
		writeErr(c, err)
		return
	}
	p.Metrics.JobsCreatedTotal.Inc()
	p.finishLater(job.ID)
	c.JSON(http.StatusCreated, job)
}

func (p *Platform) handleGetJob(c *gin.Context) {
	j, err := p.Store.GetJob(c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (p *Platform) handleListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, p.Store.ListJobs(c.Query("task_id")))
}

func (p *Platform) handleDeleteJob(c *gin.Context) {
	if err := p.Store.DeleteJob(c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (p *Platform) handleListRoles(c *gin.Context) {
	c.JSON(http.StatusOK, p.Store.ListRoles())
}
