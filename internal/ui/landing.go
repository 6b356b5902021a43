package ui

import (
	"github.com/playwright-community/playwright-go"
)

// LandingPage wraps the /n/landing workspace overview.
type LandingPage struct {
	fixture *Fixture
	page    playwright.Page
}

// NewLandingPage binds the page object to an open page.
func NewLandingPage(f *Fixture, page playwright.Page) *LandingPage {
	return &LandingPage{fixture: f, page: page}
}

// Goto navigates to the landing screen.
func (p *LandingPage) Goto() error {
	_, err := p.page.Goto(p.fixture.URL("/n/landing"))
	return err
}

// WorkspaceNames returns the workspace names listed in the sidebar.
func (p *LandingPage) WorkspaceNames() ([]string, error) {
	return p.page.Locator("[data-testid='workspace-item'] .workspace-name").AllTextContents()
}

// OpenWorkspace clicks the named workspace in the sidebar.
func (p *LandingPage) OpenWorkspace(name string) error {
	return p.page.Locator("[data-testid='workspace-item']",
		playwright.PageLocatorOptions{HasText: name}).First().Click()
}

// Search types into the task search box and waits for results to settle.
func (p *LandingPage) Search(query string) error {
	if err := p.page.Locator("[data-testid='task-search']").Fill(query); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='task-search']").Press("Enter"); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='task-list']").WaitFor()
}

// TaskTitles returns the task titles currently listed.
func (p *LandingPage) TaskTitles() ([]string, error) {
	return p.page.Locator("[data-testid='task-row'] .task-title").AllTextContents()
}

// OpenTask clicks the task with the given title and waits for its page.
func (p *LandingPage) OpenTask(title string) error {
	err := p.page.Locator("[data-testid='task-row']",
		playwright.PageLocatorOptions{HasText: title}).First().Click()
	if err != nil {
		return err
	}
	return p.page.Locator("[data-testid='task-detail']").WaitFor()
}

// NewTask opens the task creation dialog.
func (p *LandingPage) NewTask() error {
	return p.page.Locator("[data-testid='new-task-button']").Click()
}
