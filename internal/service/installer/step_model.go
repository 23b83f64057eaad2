package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/providers/llm"
)

// ModelStep lets the user pick a model. Providers with a fixed list use the
// catalog; open providers are asked for their models, falling back to the
// catalog suggestions when that fails.
type ModelStep struct {
	list     list.Model
	loading  bool
	fetching bool // Ensures we only trigger the API call once
	err      error
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select Model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{
		list:    l,
		loading: true,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return next
}

func fetchModels(state *InstallState) tea.Cmd {
	app := state.App
	return func() tea.Msg {
		catalog, err := config.LoadCatalog("")
		if err != nil {
			return errMsg(err)
		}

		var items []list.Item
		for _, id := range catalog.Models(app.GetProvider()) {
			items = append(items, item{id: id, title: id, desc: "suggested"})
		}
		if !catalog.Providers[app.GetProvider()].Open {
			return modelsMsg(items)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		p, err := llm.NewProvider(ctx, app)
		if err != nil {
			return errMsg(err)
		}
		models, err := p.Models(ctx)
		if err != nil {
			if len(items) > 0 {
				return modelsMsg(items)
			}
			return errMsg(err)
		}

		items = items[:0]
		for _, mod := range models {
			items = append(items, item{
				id:    mod.ID,
				title: mod.Name,
				desc:  fmt.Sprintf("ID: %s | Context: %d", mod.ID, mod.ContextLength),
			})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	// 1. Trigger fetch once when we enter the step
	if s.loading && !s.fetching {
		s.fetching = true
		return s, fetchModels(state)
	}

	// Update list size
	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil // Return nil command to break the error loop

	case tea.KeyMsg:
		// If there's an error, allow retry with Enter
		if s.err != nil {
			if msg.String() == "enter" {
				s.err = nil
				s.loading = true
				s.fetching = false
				return s, next
			}
			return s, nil
		}

		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.App.Model = i.id
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nCheck your API key and connection.\n\n(press enter to retry, ctrl+c to quit)\n"
	}
	if s.loading {
		return fmt.Sprintf("Fetching models from %s...\n", state.App.Provider)
	}
	return s.list.View()
}
