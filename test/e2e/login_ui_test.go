//go:build e2e

package e2e

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dagknows/dkqa/internal/ui"
)

func TestLoginUI_SignInAndOut(t *testing.T) {
	requireUICredentials(t)

	f := ui.NewFixture(t, cfg.BaseURL, cfg.Browser)
	page := f.NewPage(t)

	login := ui.NewLoginPage(f, page)
	require.NoError(t, login.Goto())
	require.NoError(t, login.Login(cfg.Credentials.Email, cfg.Credentials.Password))
	f.Screenshot(t, page, "landed")

	landing := ui.NewLandingPage(f, page)
	names, err := landing.WorkspaceNames()
	require.NoError(t, err)
	require.NotEmpty(t, names, "expected at least one workspace after login")

	require.NoError(t, login.Logout())
}

func TestLoginUI_BadPasswordShowsError(t *testing.T) {
	requireUICredentials(t)

	f := ui.NewFixture(t, cfg.BaseURL, cfg.Browser)
	page := f.NewPage(t)

	login := ui.NewLoginPage(f, page)
	require.NoError(t, login.Goto())

	msg, err := login.SubmitInvalid(cfg.Credentials.Email, "definitely-wrong")
	require.NoError(t, err)
	require.NotEmpty(t, msg, "expected an error banner for bad credentials")
	f.Screenshot(t, page, "login_error")
}
