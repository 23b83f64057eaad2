package installer

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep validates the collected answers the same way startup will.
type FinalizationStep struct {
	err error
}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return next
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.err != nil {
		return s, nil
	}
	if err := state.App.Validate(); err != nil {
		s.err = err
		return s, nil
	}
	if err := state.Detector.Validate(); err != nil {
		s.err = err
		return s, nil
	}

	// Signal completion
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Configuration is incomplete: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	return "Finalizing configuration...\n"
}
