package pii

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
	"github.com/sandevgo/piichat/pkg/retry"
)

const (
	maxNERResponse  = 10 << 20
	defaultNERScore = 0.85
)

var nerKinds = []core.EntityKind{
	core.EntityPerson,
	core.EntityLocation,
	core.EntityNRP,
	core.EntityDateTime,
}

const nerPrompt = `Identify personal data in the text below. Return JSON of the form
{"entities":[{"text":"<exact substring>","type":"<TYPE>","score":<0..1>}]}
where TYPE is one of: %s.
PERSON is a person's name, LOCATION a place or address, NRP a nationality,
religion or political group, DATE_TIME a date or time.
Copy each "text" exactly as it appears. Return {"entities":[]} when there is nothing.

Text:
%s`

type nerRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type nerResponse struct {
	Response string `json:"response"`
}

type nerEntity struct {
	Text  string          `json:"text"`
	Type  core.EntityKind `json:"type"`
	Score *float64        `json:"score"`
}

type nerResult struct {
	Entities []nerEntity `json:"entities"`
}

// OllamaRecognizer asks a local Ollama model to tag names, places, groups and
// dates the patterns cannot catch.
type OllamaRecognizer struct {
	client  *http.Client
	baseURL string
	model   string
}

func NewOllamaRecognizer(baseURL, model string, timeout time.Duration) *OllamaRecognizer {
	return &OllamaRecognizer{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

func (o *OllamaRecognizer) Name() string {
	return "OllamaNERRecognizer"
}

func (o *OllamaRecognizer) Kinds() []core.EntityKind {
	return nerKinds
}

func (o *OllamaRecognizer) Analyze(ctx context.Context, text string, wanted map[core.EntityKind]bool) ([]core.DetectedSpan, error) {
	var kinds []string
	for _, k := range nerKinds {
		if wanted[k] {
			kinds = append(kinds, string(k))
		}
	}
	if len(kinds) == 0 || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	payload, err := json.Marshal(nerRequest{
		Model:  o.model,
		Prompt: fmt.Sprintf(nerPrompt, strings.Join(kinds, ", "), text),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNERResponse+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxNERResponse {
		return nil, fmt.Errorf("ollama response exceeds %d bytes", maxNERResponse)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var generated nerResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	var result nerResult
	if err := json.Unmarshal([]byte(generated.Response), &result); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	return o.locate(text, result.Entities, wanted), nil
}

// locate maps the entity strings returned by the model back to byte offsets.
// Every occurrence is reported; strings not present in the text are dropped.
func (o *OllamaRecognizer) locate(text string, entities []nerEntity, wanted map[core.EntityKind]bool) []core.DetectedSpan {
	best := make(map[[2]int]core.DetectedSpan)
	for _, e := range entities {
		kind := core.EntityKind(strings.ToUpper(string(e.Type)))
		value := strings.TrimSpace(e.Text)
		if !wanted[kind] || !isNERKind(kind) || value == "" {
			continue
		}

		score := defaultNERScore
		if e.Score != nil && *e.Score > 0 && *e.Score <= 1 {
			score = *e.Score
		}

		for offset := 0; offset < len(text); {
			idx := strings.Index(text[offset:], value)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(value)
			key := [2]int{start, end}
			if prev, ok := best[key]; !ok || score > prev.Score {
				best[key] = core.DetectedSpan{
					Start:      start,
					End:        end,
					Kind:       kind,
					Score:      score,
					Recognizer: o.Name(),
				}
			}
			offset = end
		}
	}

	spans := make([]core.DetectedSpan, 0, len(best))
	for _, s := range best {
		spans = append(spans, s)
	}
	sortSpans(spans)
	return spans
}

func isNERKind(k core.EntityKind) bool {
	for _, known := range nerKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Ping checks that Ollama answers and that the model has been pulled.
func (o *OllamaRecognizer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == o.model || strings.TrimSuffix(m.Name, ":latest") == o.model {
			return nil
		}
	}
	return retry.Permanent(fmt.Errorf("model %s is not pulled in ollama", o.model))
}

// WaitReady retries Ping with backoff until Ollama is up or the retrier gives
// up. A missing model fails at once.
func (o *OllamaRecognizer) WaitReady(ctx context.Context, retrier *retry.Retrier) error {
	return retrier.Do(ctx, func(attempt int) error {
		err := o.Ping(ctx)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Int("attempt", attempt+1).Msg("NER backend not ready")
		}
		return err
	})
}

type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type pullStatus struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

// Pull downloads the NER model into Ollama, reporting the fraction done of
// each layer. It blocks until the model is ready or ctx ends.
func (o *OllamaRecognizer) Pull(ctx context.Context, progress func(done float64)) error {
	body, err := json.Marshal(pullRequest{Model: o.model, Stream: true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// downloads outlive the analyze timeout; ctx bounds them instead
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("ollama pull: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama pull: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var st pullStatus
		if err := dec.Decode(&st); err != nil {
			if err == io.EOF {
				return fmt.Errorf("ollama pull: stream ended before success")
			}
			return fmt.Errorf("ollama pull: %w", err)
		}
		if st.Error != "" {
			return fmt.Errorf("ollama pull: %s", st.Error)
		}
		if st.Total > 0 && progress != nil {
			progress(float64(st.Completed) / float64(st.Total))
		}
		if st.Status == "success" {
			return nil
		}
	}
}
