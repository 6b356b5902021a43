// Package integration exercises the API clients against the in-memory stub
// platform: both services, the token issuer, and the cleanup tracker wired
// the way a hermetic suite needs them.
package integration

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dagknows/dkqa/internal/cleanup"
	"github.com/dagknows/dkqa/internal/client"
	"github.com/dagknows/dkqa/internal/stub"
	"github.com/dagknows/dkqa/model"
)

// Default credential the harness registers with the stub.
const (
	testEmail    = "qa@acme.example.com"
	testPassword = "correct-horse"
	testOrg      = "acme"
)

// Harness wires a stub platform to authenticated clients for one test.
type Harness struct {
	t *testing.T

	Platform *stub.Platform
	Tasks    *client.TaskService
	Router   *client.ReqRouter
	Cleanup  *cleanup.Tracker
	Token    string
	UserID   string
}

// HarnessOption configures the harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	platformOpts []stub.Option
	clientOpts   []client.Option
	settings     model.FlagUpdate
}

// WithPlatformOptions forwards options to the stub platform.
func WithPlatformOptions(opts ...stub.Option) HarnessOption {
	return func(c *harnessConfig) {
		c.platformOpts = append(c.platformOpts, opts...)
	}
}

// WithClientOptions forwards options to both API clients.
func WithClientOptions(opts ...client.Option) HarnessOption {
	return func(c *harnessConfig) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithSettings seeds the tenant settings before any test traffic.
func WithSettings(update model.FlagUpdate) HarnessOption {
	return func(c *harnessConfig) {
		c.settings = update
	}
}

// NewHarness boots the stub platform, signs in the default user, and
// returns ready clients. Everything shuts down with the test.
func NewHarness(t *testing.T, opts ...HarnessOption) *Harness {
	t.Helper()

	hc := &harnessConfig{}
	for _, opt := range opts {
		opt(hc)
	}

	user := model.User{Email: testEmail, FirstName: "QA", LastName: "Acme", Org: testOrg, Enabled: true}
	platformOpts := append([]stub.Option{stub.WithUser(testPassword, user)}, hc.platformOpts...)
	if hc.settings != nil {
		platformOpts = append(platformOpts, stub.WithSettings(hc.settings))
	}

	platform, err := stub.NewPlatform(platformOpts...)
	if err != nil {
		t.Fatalf("starting stub platform: %v", err)
	}
	t.Cleanup(platform.Close)

	h := &Harness{t: t, Platform: platform}

	// Sign in through the router like a real suite run would.
	bootstrapRouter := client.NewReqRouter(platform.ReqRouterURL(), hc.clientOpts...)
	signedIn, err := bootstrapRouter.SignIn(context.Background(), model.SignInRequest{
		Email:    testEmail,
		Password: testPassword,
		Org:      testOrg,
	})
	if err != nil {
		t.Fatalf("signing in: %v", err)
	}
	h.Token = signedIn.Token
	h.UserID = signedIn.User.ID

	clientOpts := append([]client.Option{client.WithToken(h.Token)}, hc.clientOpts...)
	h.Tasks = client.NewTaskService(platform.TaskServiceURL(), clientOpts...)
	h.Router = client.NewReqRouter(platform.ReqRouterURL(), clientOpts...)

	h.Cleanup = cleanup.NewTracker(zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if failed := h.Cleanup.Cleanup(ctx); failed > 0 {
			t.Errorf("cleanup left %d resources behind", failed)
		}
	})

	return h
}

// CreateTask creates a task through the API and tracks it for cleanup.
func (h *Harness) CreateTask(ctx context.Context, task model.Task) model.Task {
	h.t.Helper()
	created, err := h.Tasks.CreateTask(ctx, task)
	if err != nil {
		h.t.Fatalf("creating task: %v", err)
	}
	h.Cleanup.Add("task", created.ID, func(ctx context.Context) error {
		return h.Tasks.DeleteTask(ctx, created.ID)
	})
	return created
}

// CreateWorkspace creates a workspace through the API and tracks it for
// cleanup.
func (h *Harness) CreateWorkspace(ctx context.Context, ws model.Workspace) model.Workspace {
	h.t.Helper()
	created, err := h.Tasks.CreateWorkspace(ctx, ws)
	if err != nil {
		h.t.Fatalf("creating workspace: %v", err)
	}
	h.Cleanup.Add("workspace", created.ID, func(ctx context.Context) error {
		return h.Tasks.DeleteWorkspace(ctx, created.ID)
	})
	return created
}
