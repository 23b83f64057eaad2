package installer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/providers/pii"
)

type progressMsg float64
type pullDoneMsg struct{}

// PullModelStep downloads the NER model into Ollama when NER was selected.
type PullModelStep struct {
	progress progress.Model
	updates  chan tea.Msg
	started  bool
	err      error
}

func NewPullModelStep() Step {
	return &PullModelStep{
		progress: progress.New(progress.WithDefaultGradient()),
		updates:  make(chan tea.Msg),
	}
}

func (s *PullModelStep) Init() tea.Cmd {
	return next
}

func (s *PullModelStep) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		return <-s.updates
	}
}

func (s *PullModelStep) doPull(cfg *config.DetectorConfig) {
	rec := pii.NewOllamaRecognizer(cfg.NERURL, cfg.NERModel, cfg.NERTimeout)
	err := rec.Pull(context.Background(), func(done float64) {
		s.updates <- progressMsg(done)
	})
	if err != nil {
		s.updates <- errMsg(err)
		return
	}
	s.updates <- pullDoneMsg{}
}

func (s *PullModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.Detector.NER != config.NEROllama {
		return nil, nil
	}
	if !s.started {
		s.started = true
		go s.doPull(state.Detector)
		return s, s.waitForActivity()
	}

	s.progress.Width = width - 10

	switch msg := msg.(type) {
	case progressMsg:
		return s, tea.Batch(s.waitForActivity(), s.progress.SetPercent(float64(msg)))

	case pullDoneMsg:
		return nil, nil

	case errMsg:
		s.err = msg
		return s, nil

	case progress.FrameMsg:
		progressModel, cmd := s.progress.Update(msg)
		s.progress = progressModel.(progress.Model)
		return s, cmd

	case tea.KeyMsg:
		// NER stays configured; the model can be pulled later
		if s.err != nil && msg.String() == "enter" {
			return nil, nil
		}
	}

	return s, nil
}

func (s *PullModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Pull failed: %v", s.err)) +
			"\n\nRun `ollama pull " + state.Detector.NERModel + "` later.\n\n(press enter to continue, ctrl+c to quit)\n"
	}

	return fmt.Sprintf("Pulling NER model %s into Ollama...\nThis may take a few minutes depending on your connection.\n\n",
		state.Detector.NERModel) + s.progress.View() + "\n"
}
