package redactor

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/providers/pii"
)

type stubDetector struct {
	spans []core.DetectedSpan
	err   error
	calls []core.AnalyzeRequest
}

func (d *stubDetector) Analyze(_ context.Context, req core.AnalyzeRequest) ([]core.DetectedSpan, error) {
	d.calls = append(d.calls, req)
	return d.spans, d.err
}

func span(start, end int, kind core.EntityKind, score float64) core.DetectedSpan {
	return core.DetectedSpan{Start: start, End: end, Kind: kind, Score: score}
}

func newTestRedactor(d core.Detector) *Redactor {
	return New(d, Config{Threshold: DefaultThreshold}, nil)
}

func TestRedactor_DefaultDetector(t *testing.T) {
	r := newTestRedactor(pii.NewDefaultDetector())
	ctx := context.Background()

	t.Run("mixed sentence", func(t *testing.T) {
		text := "Mr. Smith's phone number is 212-555-5555, his SSN is 432-56-5654, and his credit card number is 344078656339539"

		got, err := r.Redact(ctx, text)
		require.NoError(t, err)

		for _, literal := range []string{"212-555-5555", "432-56-5654", "344078656339539"} {
			assert.NotContains(t, got, literal)
		}
		phone := strings.Index(got, "<PHONE_NUMBER>")
		ssn := strings.Index(got, "<US_SSN>")
		card := strings.Index(got, "<CREDIT_CARD>")
		require.True(t, phone >= 0 && ssn >= 0 && card >= 0, got)
		assert.Less(t, phone, ssn)
		assert.Less(t, ssn, card)
		assert.Equal(t, "Mr. <PERSON>'s phone number is <PHONE_NUMBER>, his SSN is <US_SSN>, and his credit card number is <CREDIT_CARD>", got)
	})

	t.Run("accented name", func(t *testing.T) {
		got, err := r.Redact(ctx, "Dr. José Núñez lives in Zürich; card 4532 0151 1283 0366")
		require.NoError(t, err)
		assert.Equal(t, "Dr. <PERSON> lives in Zürich; card <CREDIT_CARD>", got)
	})

	t.Run("passthrough", func(t *testing.T) {
		text := "Let's schedule a meeting next week."
		got, err := r.Redact(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	})
}

func TestRedactor_Resolution(t *testing.T) {
	text := "0123456789abcdefghij"

	tests := []struct {
		name     string
		spans    []core.DetectedSpan
		expected string
	}{
		{
			name:     "no spans",
			expected: text,
		},
		{
			name:     "single span",
			spans:    []core.DetectedSpan{span(2, 5, core.EntityURL, 0.9)},
			expected: "01<URL>56789abcdefghij",
		},
		{
			name:     "unsorted input",
			spans:    []core.DetectedSpan{span(10, 12, core.EntityPerson, 0.9), span(0, 2, core.EntityURL, 0.9)},
			expected: "<URL>23456789<PERSON>cdefghij",
		},
		{
			name:     "overlap takes higher score and union",
			spans:    []core.DetectedSpan{span(0, 6, core.EntityUSBankNumber, 0.5), span(4, 10, core.EntityCreditCard, 1.0)},
			expected: "<CREDIT_CARD>abcdefghij",
		},
		{
			name:     "equal score prefers longer span",
			spans:    []core.DetectedSpan{span(0, 4, core.EntityUSSSN, 0.8), span(2, 10, core.EntityPhoneNumber, 0.8)},
			expected: "<PHONE_NUMBER>abcdefghij",
		},
		{
			name:     "full tie uses entity order",
			spans:    []core.DetectedSpan{span(0, 4, core.EntityUSSSN, 0.8), span(0, 4, core.EntityCreditCard, 0.8)},
			expected: "<CREDIT_CARD>456789abcdefghij",
		},
		{
			name:     "nested span",
			spans:    []core.DetectedSpan{span(0, 10, core.EntityLocation, 0.6), span(3, 5, core.EntityDateTime, 0.6)},
			expected: "<LOCATION>abcdefghij",
		},
		{
			name:     "chained overlaps form one region",
			spans:    []core.DetectedSpan{span(0, 4, core.EntityURL, 0.5), span(3, 8, core.EntityURL, 0.5), span(7, 12, core.EntityEmailAddress, 1.0)},
			expected: "<EMAIL_ADDRESS>cdefghij",
		},
		{
			name:     "adjacent spans stay separate",
			spans:    []core.DetectedSpan{span(0, 3, core.EntityUSSSN, 0.9), span(3, 6, core.EntityPerson, 0.9)},
			expected: "<US_SSN><PERSON>6789abcdefghij",
		},
		{
			name:     "below threshold ignored",
			spans:    []core.DetectedSpan{span(0, 10, core.EntityUSBankNumber, 0.05), span(12, 14, core.EntityPerson, 0.4)},
			expected: "0123456789ab<PERSON>efghij",
		},
		{
			name:     "weak span does not widen strong one",
			spans:    []core.DetectedSpan{span(0, 20, core.EntityUSPassport, 0.1), span(5, 7, core.EntityPerson, 0.7)},
			expected: "01234<PERSON>789abcdefghij",
		},
		{
			name:     "whole text",
			spans:    []core.DetectedSpan{span(0, 20, core.EntityPerson, 0.7)},
			expected: "<PERSON>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestRedactor(&stubDetector{spans: tt.spans}).Redact(context.Background(), text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRedactor_Counts(t *testing.T) {
	d := &stubDetector{spans: []core.DetectedSpan{
		span(0, 2, core.EntityUSSSN, 0.9),
		span(4, 6, core.EntityUSSSN, 0.9),
		span(8, 10, core.EntityPerson, 0.9),
	}}

	res, err := newTestRedactor(d).Apply(context.Background(), "aa bb cc dd")
	require.NoError(t, err)
	assert.Equal(t, map[core.EntityKind]int{core.EntityUSSSN: 2, core.EntityPerson: 1}, res.Counts)
}

func TestRedactor_FailsClosed(t *testing.T) {
	text := "my ssn is 432-56-5654"

	tests := []struct {
		name     string
		detector *stubDetector
	}{
		{"detector error", &stubDetector{err: errors.New("connection refused")}},
		{"span past end", &stubDetector{spans: []core.DetectedSpan{span(10, 99, core.EntityUSSSN, 0.9)}}},
		{"negative start", &stubDetector{spans: []core.DetectedSpan{span(-1, 3, core.EntityUSSSN, 0.9)}}},
		{"empty span", &stubDetector{spans: []core.DetectedSpan{span(4, 4, core.EntityUSSSN, 0.9)}}},
		{"invalid span below threshold", &stubDetector{spans: []core.DetectedSpan{span(5, 2, core.EntityUSSSN, 0.01)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestRedactor(tt.detector).Redact(context.Background(), text)
			require.Error(t, err)

			var detErr *core.DetectionError
			assert.ErrorAs(t, err, &detErr)
			assert.Empty(t, got)
		})
	}
}

func TestRedactor_Request(t *testing.T) {
	d := &stubDetector{}
	r := New(d, Config{Entities: []core.EntityKind{core.EntityUSSSN, core.EntityPerson}}, nil)

	_, err := r.Redact(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, d.calls, 1)
	assert.Equal(t, "en", d.calls[0].Language)
	assert.Equal(t, []core.EntityKind{core.EntityUSSSN, core.EntityPerson}, d.calls[0].Entities)

	_, err = newTestRedactor(d).Redact(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, d.calls[1].Entities, 17)
}

var placeholderRe = regexp.MustCompile(`<[A-Z_]+>`)

// Gaps between resolved regions are copied verbatim and covered bytes never survive.
func TestRedactor_Properties(t *testing.T) {
	kinds := core.AllEntityKinds()

	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[a-z0-9 ]{1,60}`).Draw(rt, "text")
		n := rapid.IntRange(0, 6).Draw(rt, "spans")

		var spans []core.DetectedSpan
		for i := 0; i < n; i++ {
			start := rapid.IntRange(0, len(text)-1).Draw(rt, "start")
			end := rapid.IntRange(start+1, len(text)).Draw(rt, "end")
			kind := kinds[rapid.IntRange(0, len(kinds)-1).Draw(rt, "kind")]
			score := rapid.Float64Range(0, 1).Draw(rt, "score")
			spans = append(spans, span(start, end, kind, score))
		}

		r := newTestRedactor(&stubDetector{spans: spans})
		got, err := r.Redact(context.Background(), text)
		require.NoError(rt, err)

		covered := make([]bool, len(text))
		for _, s := range spans {
			if s.Score < DefaultThreshold {
				continue
			}
			for i := s.Start; i < s.End; i++ {
				covered[i] = true
			}
		}
		var visible strings.Builder
		for i := range text {
			if !covered[i] {
				visible.WriteByte(text[i])
			}
		}
		assert.Equal(rt, visible.String(), placeholderRe.ReplaceAllString(got, ""))

		again, err := r.Redact(context.Background(), text)
		require.NoError(rt, err)
		assert.Equal(rt, got, again)

		resolved, err := r.Detect(context.Background(), text)
		require.NoError(rt, err)
		for i := 1; i < len(resolved); i++ {
			assert.LessOrEqual(rt, resolved[i-1].End, resolved[i].Start)
		}
	})
}
