package installer

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/piichat/internal/config"
)

// SaveEnvStep writes the collected configuration to the runtime .env file
type SaveEnvStep struct {
	runtimePath string
	err         error
	saved       bool
}

func NewSaveEnvStep(runtimePath string) Step {
	return &SaveEnvStep{runtimePath: runtimePath}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return next
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	// Perform save synchronously (fast operation)
	if err := saveEnv(s.runtimePath, state); err != nil {
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil // Signal completion
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}

func saveEnv(runtimePath string, state *InstallState) error {
	if err := os.MkdirAll(runtimePath, 0700); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	envPath := filepath.Join(runtimePath, ".env")

	// Check if .env already exists
	if _, err := os.Stat(envPath); err == nil {
		return fmt.Errorf(".env file already exists at %s", envPath)
	}

	content, err := state.Render()
	if err != nil {
		return err
	}

	// holds API keys
	return os.WriteFile(envPath, []byte(content), 0600)
}

// InitializeFilesStep writes the built-in catalog next to the .env so models
// and preambles can be edited without rebuilding.
type InitializeFilesStep struct {
	runtimePath string
	err         error
	done        bool
}

func NewInitializeFilesStep(runtimePath string) Step {
	return &InitializeFilesStep{runtimePath: runtimePath}
}

func (s *InitializeFilesStep) Init() tea.Cmd {
	return next
}

func (s *InitializeFilesStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.done {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	dst := filepath.Join(s.runtimePath, config.CatalogFileName)
	if _, err := os.Stat(dst); err == nil {
		s.done = true
		return nil, nil
	}

	if err := os.WriteFile(dst, config.DefaultCatalog(), 0644); err != nil {
		s.err = fmt.Errorf("failed to write %s: %w", dst, err)
		return s, nil
	}

	s.done = true
	return nil, nil
}

func (s *InitializeFilesStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.done {
		return "Runtime files initialized successfully!\n"
	}
	return "Initializing runtime files...\n"
}
