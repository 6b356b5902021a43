package ui

import (
	"github.com/playwright-community/playwright-go"
)

// TaskPage wraps the task detail screen and its creation dialog.
type TaskPage struct {
	fixture *Fixture
	page    playwright.Page
}

// NewTaskPage binds the page object to an open page.
func NewTaskPage(f *Fixture, page playwright.Page) *TaskPage {
	return &TaskPage{fixture: f, page: page}
}

// Create fills the creation dialog and submits it.
func (p *TaskPage) Create(title, description string) error {
	if err := p.page.Locator("[data-testid='task-title-input']").Fill(title); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='task-description-input']").Fill(description); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='task-save']").Click(); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='task-detail']").WaitFor()
}

// Title returns the displayed task title.
func (p *TaskPage) Title() (string, error) {
	return p.page.Locator("[data-testid='task-detail'] h1").TextContent()
}

// Description returns the displayed task description.
func (p *TaskPage) Description() (string, error) {
	return p.page.Locator("[data-testid='task-description']").TextContent()
}

// Rename edits the title in place and saves.
func (p *TaskPage) Rename(title string) error {
	if err := p.page.Locator("[data-testid='task-edit']").Click(); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='task-title-input']").Clear(); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='task-title-input']").Fill(title); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='task-save']").Click()
}

// Run executes the task and waits for a job row to appear.
func (p *TaskPage) Run() error {
	if err := p.page.Locator("[data-testid='task-run']").Click(); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='job-row']").First().WaitFor()
}

// LatestJobStatus returns the status badge of the newest job.
func (p *TaskPage) LatestJobStatus() (string, error) {
	return p.page.Locator("[data-testid='job-row']").First().
		Locator("[data-testid='job-status']").TextContent()
}

// Delete removes the task through the confirm dialog and waits for the
// landing redirect.
func (p *TaskPage) Delete() error {
	if err := p.page.Locator("[data-testid='task-delete']").Click(); err != nil {
		return err
	}
	if err := p.page.Locator("[data-testid='confirm-delete']").Click(); err != nil {
		return err
	}
	return p.page.WaitForURL("**/n/landing", playwright.PageWaitForURLOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
}
