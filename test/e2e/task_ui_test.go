//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dagknows/dkqa/internal/client"
	"github.com/dagknows/dkqa/internal/factory"
	"github.com/dagknows/dkqa/internal/ui"
)

func loginForTasks(t *testing.T) (*ui.Fixture, *ui.LandingPage, *ui.TaskPage) {
	t.Helper()

	f := ui.NewFixture(t, cfg.BaseURL, cfg.Browser)
	page := f.NewPage(t)

	login := ui.NewLoginPage(f, page)
	require.NoError(t, login.Goto())
	require.NoError(t, login.Login(cfg.Credentials.Email, cfg.Credentials.Password))

	return f, ui.NewLandingPage(f, page), ui.NewTaskPage(f, page)
}

func TestTaskUI_CreateRenameDelete(t *testing.T) {
	requireUICredentials(t)

	_, landing, task := loginForTasks(t)

	title := factory.UniqueName("task")
	require.NoError(t, landing.NewTask())
	require.NoError(t, task.Create(title, "created through the browser"))

	got, err := task.Title()
	require.NoError(t, err)
	require.Equal(t, title, got)

	renamed := factory.UniqueName("task")
	require.NoError(t, task.Rename(renamed))
	got, err = task.Title()
	require.NoError(t, err)
	require.Equal(t, renamed, got)

	require.NoError(t, task.Delete())

	// The deleted task must not come back in search.
	require.NoError(t, landing.Search(renamed))
	titles, err := landing.TaskTitles()
	require.NoError(t, err)
	require.NotContains(t, titles, renamed)
}

func TestTaskUI_RunShowsJob(t *testing.T) {
	requireUICredentials(t)
	if cfg.Token == "" {
		t.Skip("DAGKNOWS_TOKEN not set; cannot seed a task over the API")
	}

	// Seed over the API, exercise over the UI.
	ctx := context.Background()
	api := client.NewTaskService(cfg.TaskServiceURL, client.WithToken(cfg.Token))
	seeded, err := api.CreateTask(ctx, factory.Task(defaultWorkspaceID(ctx, t, api)))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = api.DeleteTask(ctx, seeded.ID)
	})

	_, landing, task := loginForTasks(t)
	require.NoError(t, landing.Search(seeded.Title))
	require.NoError(t, landing.OpenTask(seeded.Title))

	require.NoError(t, task.Run())
	status, err := task.LatestJobStatus()
	require.NoError(t, err)
	require.NotEmpty(t, status)
}
