package installer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/piichat/internal/config"
)

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func down() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDown}
}

func typeText(step Step, state *InstallState, text string) Step {
	for _, r := range text {
		step, _ = step.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, state, 80, 24)
	}
	return step
}

func TestInstallState_Render(t *testing.T) {
	state := NewInstallState()
	state.App.Provider = config.ProviderAnthropic
	state.App.Model = "claude-3-5-haiku-latest"
	state.App.AnthropicAPIKey = "sk-ant-test"
	state.App.EnableHTTP = false
	state.App.EnableTelegram = true
	state.Telegram.Token = "123:abc"
	state.Telegram.OwnerID = 42
	state.Detector.NER = config.NEROllama

	content, err := state.Render()
	require.NoError(t, err)

	values, err := godotenv.Unmarshal(content)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", values["LLM_PROVIDER"])
	assert.Equal(t, "claude-3-5-haiku-latest", values["LLM_MODEL"])
	assert.Equal(t, "sk-ant-test", values["ANTHROPIC_API_KEY"])
	assert.Equal(t, "false", values["ENABLE_HTTP"])
	assert.Equal(t, "true", values["ENABLE_TELEGRAM"])
	assert.Equal(t, "123:abc", values["TELEGRAM_TOKEN"])
	assert.Equal(t, "42", values["TELEGRAM_OWNER_ID"])
	assert.Equal(t, "ollama", values["PIICHAT_NER"])

	// defaults stay implicit
	assert.NotContains(t, values, "LLM_TIMEOUT")
	assert.NotContains(t, values, "PIICHAT_SCORE_THRESHOLD")
	assert.NotContains(t, values, "PIICHAT_RUNTIME_PATH")
}

func TestInstallState_RenderSkipsTelegramWhenDisabled(t *testing.T) {
	state := NewInstallState()
	state.Telegram.Token = "leftover"

	content, err := state.Render()
	require.NoError(t, err)
	assert.NotContains(t, content, "TELEGRAM_TOKEN")
}

func TestSaveEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runtime")
	state := NewInstallState()
	state.App.OpenAIAPIKey = "sk-test"

	require.NoError(t, saveEnv(dir, state))

	info, err := os.Stat(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	values, err := godotenv.Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", values["OPENAI_API_KEY"])

	err = saveEnv(dir, state)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "already exists"))
}

func TestChoiceSteps(t *testing.T) {
	tests := []struct {
		name  string
		step  Step
		downs int
		check func(t *testing.T, s *InstallState)
	}{
		{
			name:  "provider",
			step:  NewProviderStep(),
			downs: 3,
			check: func(t *testing.T, s *InstallState) { assert.Equal(t, config.ProviderOllama, s.App.Provider) },
		},
		{
			name:  "telegram only",
			step:  NewChannelStep(),
			downs: 1,
			check: func(t *testing.T, s *InstallState) {
				assert.False(t, s.App.EnableHTTP)
				assert.True(t, s.App.EnableTelegram)
			},
		},
		{
			name:  "both channels",
			step:  NewChannelStep(),
			downs: 5,
			check: func(t *testing.T, s *InstallState) {
				assert.True(t, s.App.EnableHTTP)
				assert.True(t, s.App.EnableTelegram)
			},
		},
		{
			name:  "ollama ner",
			step:  NewDetectorStep(),
			downs: 1,
			check: func(t *testing.T, s *InstallState) { assert.Equal(t, config.NEROllama, s.Detector.NER) },
		},
		{
			name:  "persistence",
			step:  NewPersistenceStep(),
			downs: 1,
			check: func(t *testing.T, s *InstallState) { assert.True(t, s.App.Persist) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewInstallState()
			step := tt.step
			for i := 0; i < tt.downs; i++ {
				step, _ = step.Update(down(), state, 80, 24)
			}
			next, _ := step.Update(enter(), state, 80, 24)
			assert.Nil(t, next)
			tt.check(t, state)
		})
	}
}

func TestConditionalStepsSkip(t *testing.T) {
	state := NewInstallState() // openai, web only, no NER

	for _, step := range []Step{NewBaseURLStep(), NewTelegramTokenStep(), NewTelegramOwnerStep(), NewPullModelStep()} {
		next, _ := step.Update(nextMsg{}, state, 80, 24)
		assert.Nil(t, next, "%T should skip", step)
	}
}

func TestAPIKeyStep(t *testing.T) {
	state := NewInstallState()
	state.App.Provider = config.ProviderOpenRouter

	var step Step = NewAPIKeyStep()
	step, _ = step.Update(nextMsg{}, state, 80, 24)
	require.NotNil(t, step)

	// required key: enter on empty input stays on the step
	same, _ := step.Update(enter(), state, 80, 24)
	assert.NotNil(t, same)

	step = typeText(step, state, "sk-or-v1-abc")
	next, _ := step.Update(enter(), state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, "sk-or-v1-abc", state.App.OpenRouterAPIKey)
}

func TestTelegramOwnerStep(t *testing.T) {
	state := NewInstallState()
	state.App.EnableTelegram = true

	var step Step = NewTelegramOwnerStep()
	step = typeText(step, state, "abc")
	step, _ = step.Update(enter(), state, 80, 24)
	require.NotNil(t, step)
	assert.Contains(t, step.View(state), "must be a number")

	step = NewTelegramOwnerStep()
	step = typeText(step, state, "12345")
	next, _ := step.Update(enter(), state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, int64(12345), state.Telegram.OwnerID)
}

func TestInitializeFilesStep(t *testing.T) {
	dir := t.TempDir()
	step := NewInitializeFilesStep(dir)

	next, _ := step.Update(nextMsg{}, NewInstallState(), 80, 24)
	assert.Nil(t, next)

	data, err := os.ReadFile(filepath.Join(dir, config.CatalogFileName))
	require.NoError(t, err)
	_, err = config.ParseCatalog(data)
	assert.NoError(t, err)
}
