package installer

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/piichat/internal/config"
)

// ChoiceStep is a single-select question whose answer is written into the
// install state by apply.
type ChoiceStep struct {
	title   string
	choices []choice
	cursor  int
	apply   func(id string, state *InstallState)
}

func (s *ChoiceStep) Init() tea.Cmd {
	return nil
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			s.apply(s.choices[s.cursor].id, state)
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	return renderChoices(s.title, s.choices, s.cursor)
}

// NewChannelStep selects the frontends started by `piichat serve`.
func NewChannelStep() Step {
	return &ChoiceStep{
		title: "Select how you want to chat:",
		choices: []choice{
			{"web", "Web UI"},
			{"telegram", "Telegram"},
			{"both", "Web UI + Telegram"},
		},
		apply: func(id string, state *InstallState) {
			state.App.EnableHTTP = id == "web" || id == "both"
			state.App.EnableTelegram = id == "telegram" || id == "both"
		},
	}
}

func NewDetectorStep() Step {
	return &ChoiceStep{
		title: "Select how names and places are detected:",
		choices: []choice{
			{"", "Patterns only"},
			{config.NEROllama, "Patterns + Ollama NER (local model)"},
		},
		apply: func(id string, state *InstallState) {
			state.Detector.NER = id
			if id == config.NEROllama && state.App.Provider == config.ProviderOllama {
				state.Detector.NERURL = state.App.OllamaBaseURL
			}
		},
	}
}

func NewPersistenceStep() Step {
	return &ChoiceStep{
		title: "Keep redacted conversations across restarts?",
		choices: []choice{
			{"no", "No, memory only"},
			{"yes", "Yes, store redacted turns in SQLite"},
		},
		apply: func(id string, state *InstallState) {
			state.App.Persist = id == "yes"
		},
	}
}
