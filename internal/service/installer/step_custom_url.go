package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/piichat/internal/config"
)

// BaseURLStep asks for the endpoint of self-hosted providers and is skipped
// for the hosted ones.
type BaseURLStep struct {
	input textinput.Model
}

func NewBaseURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.Width = 50
	return &BaseURLStep{input: ti}
}

func (s *BaseURLStep) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, next)
}

func (s *BaseURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch state.App.Provider {
	case config.ProviderOllama:
		s.input.Placeholder = "http://localhost:11434"
	case config.ProviderCustom:
		s.input.Placeholder = "https://api.example.com/v1"
	default:
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if state.App.Provider == config.ProviderOllama {
			if val == "" {
				val = s.input.Placeholder
			}
			state.App.OllamaBaseURL = val
			return nil, nil
		}
		if val != "" {
			state.App.CustomOpenAIBaseURL = val
			return nil, nil
		}
	}
	return s, cmd
}

func (s *BaseURLStep) View(state *InstallState) string {
	return "Enter the provider base URL:\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
}
