package ui

import (
	"github.com/playwright-community/playwright-go"
)

// LoginPage wraps the /vlogin screen.
type LoginPage struct {
	fixture *Fixture
	page    playwright.Page
}

// NewLoginPage binds the page object to an open page.
func NewLoginPage(f *Fixture, page playwright.Page) *LoginPage {
	return &LoginPage{fixture: f, page: page}
}

// Goto navigates to the login screen.
func (p *LoginPage) Goto() error {
	_, err := p.page.Goto(p.fixture.URL("/vlogin"))
	return err
}

// Login submits the credential form and waits for the landing redirect.
func (p *LoginPage) Login(username, password string) error {
	if err := p.page.Locator("input[name='username']").Fill(username); err != nil {
		return err
	}
	if err := p.page.Locator("input[name='password']").Fill(password); err != nil {
		return err
	}
	if err := p.page.Locator("button[type='submit']").Click(); err != nil {
		return err
	}
	return p.page.WaitForURL("**/n/landing", playwright.PageWaitForURLOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
}

// SubmitInvalid submits the form and returns the error banner text.
func (p *LoginPage) SubmitInvalid(username, password string) (string, error) {
	if err := p.page.Locator("input[name='username']").Fill(username); err != nil {
		return "", err
	}
	if err := p.page.Locator("input[name='password']").Fill(password); err != nil {
		return "", err
	}
	if err := p.page.Locator("button[type='submit']").Click(); err != nil {
		return "", err
	}
	return p.page.Locator("[data-testid='login-error']").TextContent()
}

// Logout signs the session out through the user menu.
func (p *LoginPage) Logout() error {
	if err := p.page.Locator("[data-testid='user-menu']").Click(); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='logout']").Click(); err != nil {
		return err
	}
	return p.page.WaitForURL("**/vlogin")
}
