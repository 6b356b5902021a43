package ui

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// SettingsPage wraps the /vsettings screen.
type SettingsPage struct {
	fixture *Fixture
	page    playwright.Page
}

// NewSettingsPage binds the page object to an open page.
func NewSettingsPage(f *Fixture, page playwright.Page) *SettingsPage {
	return &SettingsPage{fixture: f, page: page}
}

// Goto navigates to the settings screen.
func (p *SettingsPage) Goto() error {
	_, err := p.page.Goto(p.fixture.URL("/vsettings"))
	return err
}

// AlertMode returns the currently selected alert handling mode.
func (p *SettingsPage) AlertMode() (string, error) {
	value, err := p.page.Locator("[data-testid='alert-mode-select']").InputValue()
	return strings.TrimSpace(value), err
}

// SelectAlertMode picks an alert handling mode from the dropdown.
func (p *SettingsPage) SelectAlertMode(mode string) error {
	_, err := p.page.Locator("[data-testid='alert-mode-select']").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{mode},
	})
	return err
}

// ToggleFlag flips the named feature flag switch.
func (p *SettingsPage) ToggleFlag(flag string) error {
	return p.page.Locator("[data-testid='flag-" + flag + "']").Click()
}

// FlagEnabled reports whether the named flag switch is on.
func (p *SettingsPage) FlagEnabled(flag string) (bool, error) {
	return p.page.Locator("[data-testid='flag-" + flag + "']").IsChecked()
}

// UserEmails lists the users shown on the members tab.
func (p *SettingsPage) UserEmails() ([]string, error) {
	if err := p.page.Locator("[data-testid='tab-members']").Click(); err != nil {
		return nil, err
	}
	rows := p.page.Locator("[data-testid='member-email']")
	return rows.AllTextContents()
}

// UserRole returns the role selected for the given user on the members tab.
func (p *SettingsPage) UserRole(email string) (string, error) {
	row := p.page.Locator("[data-testid='member-row']",
		playwright.PageLocatorOptions{HasText: email}).First()
	value, err := row.Locator("[data-testid='member-role-select']").InputValue()
	return strings.TrimSpace(value), err
}

// SetUserRole changes the role for the given user on the members tab.
func (p *SettingsPage) SetUserRole(email, role string) error {
	row := p.page.Locator("[data-testid='member-row']",
		playwright.PageLocatorOptions{HasText: email}).First()
	_, err := row.Locator("[data-testid='member-role-select']").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{role},
	})
	return err
}

// Save persists the settings and waits for the confirmation toast.
func (p *SettingsPage) Save() error {
	if err := p.page.Locator("[data-testid='settings-save']").Click(); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='settings-saved-toast']").WaitFor()
}
