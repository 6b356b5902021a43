package ui

import (
	"github.com/playwright-community/playwright-go"
)

// AgentPage wraps the AI chat view opened against the shared DAGKNOWS task.
type AgentPage struct {
	fixture *Fixture
	page    playwright.Page
}

// NewAgentPage binds the page object to an open page.
func NewAgentPage(f *Fixture, page playwright.Page) *AgentPage {
	return &AgentPage{fixture: f, page: page}
}

// Goto opens the chat view and waits for the input to be ready.
func (p *AgentPage) Goto() error {
	if _, err := p.page.Goto(p.fixture.URL("/tasks/DAGKNOWS?agent=1")); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='agent-input']").WaitFor()
}

// Send submits a chat message.
func (p *AgentPage) Send(message string) error {
	if err := p.page.Locator("[data-testid='agent-input']").Fill(message); err != nil {
		return err
	}
	return p.page.Locator("[data-testid='agent-send']").Click()
}

// WaitForReply waits until the agent has produced at least n replies. Agent
// responses stream, so the caller picks a generous timeout.
func (p *AgentPage) WaitForReply(n int, timeoutMs float64) error {
	_, err := p.page.WaitForFunction(
		"n => document.querySelectorAll(\"[data-testid='agent-reply']\").length >= n",
		n,
		playwright.PageWaitForFunctionOptions{Timeout: playwright.Float(timeoutMs)},
	)
	return err
}

// LastReply returns the text of the newest agent reply.
func (p *AgentPage) LastReply() (string, error) {
	return p.page.Locator("[data-testid='agent-reply']").Last().TextContent()
}

// Replies returns all agent reply texts in order.
func (p *AgentPage) Replies() ([]string, error) {
	return p.page.Locator("[data-testid='agent-reply']").AllTextContents()
}
