package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/piichat/internal/config"
)

// APIKeyStep collects the provider credential. Self-hosted providers may
// leave it empty.
type APIKeyStep struct {
	input      textinput.Model
	target     *string
	title      string
	isOptional bool
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return next
}

func (s *APIKeyStep) initProvider(state *InstallState) {
	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 40
	s.input.EchoMode = textinput.EchoPassword
	s.input.EchoCharacter = '•'

	switch state.App.Provider {
	case config.ProviderAnthropic:
		s.target, s.title = &state.App.AnthropicAPIKey, "Anthropic API Key"
		s.input.Placeholder = "sk-ant-..."
	case config.ProviderOpenRouter:
		s.target, s.title = &state.App.OpenRouterAPIKey, "OpenRouter API Key"
		s.input.Placeholder = "sk-or-v1-..."
	case config.ProviderOllama:
		s.target, s.title = &state.App.OllamaAPIKey, "Ollama API Key"
		s.isOptional = true
	case config.ProviderCustom:
		s.target, s.title = &state.App.CustomOpenAIAPIKey, "API Key"
		s.isOptional = true
	default:
		s.target, s.title = &state.App.OpenAIAPIKey, "OpenAI API Key"
		s.input.Placeholder = "sk-..."
	}

	if s.isOptional {
		s.input.Placeholder = "Optional - press Enter to skip"
		s.input.EchoMode = textinput.EchoNormal
	}
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.target == nil {
		s.initProvider(state)
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if s.input.Value() == "" && !s.isOptional {
			return s, cmd
		}
		*s.target = s.input.Value()
		return nil, nil
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	if s.target == nil {
		return "Loading..."
	}

	optionalHint := ""
	if s.isOptional {
		optionalHint = " (optional)"
	}

	return fmt.Sprintf("Enter your %s%s:\n\n%s\n\n(press enter to confirm)\n",
		s.title, optionalHint, s.input.View())
}
