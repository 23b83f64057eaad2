package pii

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/piichat/internal/core"
)

func analyze(t *testing.T, text string, kinds ...core.EntityKind) []core.DetectedSpan {
	t.Helper()
	spans, err := NewDefaultDetector().Analyze(context.Background(), core.AnalyzeRequest{
		Text:     text,
		Entities: kinds,
		Language: LanguageEnglish,
	})
	require.NoError(t, err)
	return spans
}

// confident drops spans below the default redaction threshold.
func confident(spans []core.DetectedSpan) []core.DetectedSpan {
	var out []core.DetectedSpan
	for _, s := range spans {
		if s.Score >= 0.4 {
			out = append(out, s)
		}
	}
	return out
}

func TestDetector_MixedSentence(t *testing.T) {
	text := "Mr. Smith's phone number is 212-555-5555, his SSN is 432-56-5654, and his credit card number is 344078656339539"

	spans := confident(analyze(t, text))
	require.Len(t, spans, 4)

	want := []struct {
		kind  core.EntityKind
		value string
	}{
		{core.EntityPerson, "Smith"},
		{core.EntityPhoneNumber, "212-555-5555"},
		{core.EntityUSSSN, "432-56-5654"},
		{core.EntityCreditCard, "344078656339539"},
	}
	for i, w := range want {
		assert.Equal(t, w.kind, spans[i].Kind)
		assert.Equal(t, w.value, text[spans[i].Start:spans[i].End])
	}
	assert.Equal(t, 1.0, spans[3].Score, "luhn-valid card is verified")
}

// A name must be covered to its last letter, not cut at the first
// non-ASCII one.
func TestDetector_PersonSpanEndsAtWordBoundary(t *testing.T) {
	text := "Dr. José Núñez lives in Zürich"
	spans := confident(analyze(t, text, core.EntityPerson))
	require.Len(t, spans, 1)
	assert.Equal(t, "José Núñez", text[spans[0].Start:spans[0].End])
}

func TestDetector_NoEntities(t *testing.T) {
	spans := confident(analyze(t, "Let's schedule a meeting next week."))
	assert.Empty(t, spans)
}

func TestDetector_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		kind  core.EntityKind
		value string
	}{
		{"email", "write to john.doe@example.com today", core.EntityEmailAddress, "john.doe@example.com"},
		{"iban", "IBAN GB82 WEST 1234 5698 7654 32 please", core.EntityIBANCode, "GB82 WEST 1234 5698 7654 32"},
		{"ipv4", "the host is 192.168.1.10 now", core.EntityIPAddress, "192.168.1.10"},
		{"ipv6", "ping 2001:db8:0:0:0:0:2:1 again", core.EntityIPAddress, "2001:db8:0:0:0:0:2:1"},
		{"bitcoin", "send to 1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2 now", core.EntityCrypto, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"},
		{"bech32", "wallet bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", core.EntityCrypto, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"},
		{"iso date", "born 1994-08-15 in", core.EntityDateTime, "1994-08-15"},
		{"spelled date", "on 15th August 1994 we met", core.EntityDateTime, "15th August 1994"},
		{"month first", "due March 3, 2024 at noon", core.EntityDateTime, "March 3, 2024"},
		{"clock", "meet at 7:30 PM sharp", core.EntityDateTime, "7:30 PM"},
		{"url", "see https://example.com/a?b=1.", core.EntityURL, "https://example.com/a?b=1"},
		{"dea", "DEA number AB1234563 on file", core.EntityMedicalLicense, "AB1234563"},
		{"nrp", "she is Canadian by birth", core.EntityNRP, "Canadian"},
		{"state", "he moved to New Mexico last year", core.EntityLocation, "New Mexico"},
		{"city state", "office in Springfield, IL downtown", core.EntityLocation, "Springfield, IL"},
		{"street", "lives at 42 Elm Street with", core.EntityLocation, "42 Elm Street"},
		{"name", "hello, my name is Jane Doe", core.EntityPerson, "Jane Doe"},
		{"accented name", "Dr. José Núñez lives in Zürich", core.EntityPerson, "José Núñez"},
		{"accented self introduction", "my name is Zoë Ødegaard.", core.EntityPerson, "Zoë Ødegaard"},
		{"accented city state", "clinic in Española, NM downtown", core.EntityLocation, "Española, NM"},
		{"passport", "my passport number is 912803456", core.EntityUSPassport, "912803456"},
		{"driver license", "driver license D1234567 expired", core.EntityUSDriverLicense, "D1234567"},
		{"itin", "my ITIN is 912-70-1234", core.EntityUSITIN, "912-70-1234"},
		{"itin outside issued ranges", "I have an Individual Taxpayer Identification Number, which is 912-34-5678.", core.EntityUSITIN, "912-34-5678"},
		{"passport nine digits", "My US passport number is C123456789.", core.EntityUSPassport, "C123456789"},
		{"bank", "bank account 12345678901", core.EntityUSBankNumber, "12345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := confident(analyze(t, tt.text, tt.kind))
			require.NotEmpty(t, spans)

			var values []string
			for _, s := range spans {
				assert.Equal(t, tt.kind, s.Kind)
				values = append(values, tt.text[s.Start:s.End])
			}
			assert.Contains(t, values, tt.value)
		})
	}
}

func TestDetector_Rejections(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind core.EntityKind
	}{
		{"card failing luhn", "card 4111 1111 1111 1112", core.EntityCreditCard},
		{"ssn zero area", "ssn 000-12-3456", core.EntityUSSSN},
		{"ssn 666 area", "ssn 666-12-3456", core.EntityUSSSN},
		{"ssn mixed delimiters", "ssn 432-56 5654", core.EntityUSSSN},
		{"ip out of range", "ip 999.1.1.1", core.EntityIPAddress},
		{"iban bad checksum", "iban GB83 WEST 1234 5698 7654 32", core.EntityIBANCode},
		{"dea bad check digit", "DEA AB1234564", core.EntityMedicalLicense},
		{"impossible date", "on 13/45/2020", core.EntityDateTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, analyze(t, tt.text, tt.kind))
		})
	}
}

func TestDetector_ContextBoost(t *testing.T) {
	bare := analyze(t, "reference 212-555-5555", core.EntityPhoneNumber)
	boosted := analyze(t, "call me at 212-555-5555", core.EntityPhoneNumber)

	require.Len(t, bare, 1)
	require.Len(t, boosted, 1)
	assert.InDelta(t, 0.5, bare[0].Score, 1e-9)
	assert.InDelta(t, 0.85, boosted[0].Score, 1e-9)
}

func TestDetector_RequestValidation(t *testing.T) {
	d := NewDefaultDetector()
	ctx := context.Background()

	_, err := d.Analyze(ctx, core.AnalyzeRequest{Text: "x", Language: "de"})
	assert.Error(t, err)

	_, err = d.Analyze(ctx, core.AnalyzeRequest{Text: "x", Language: "en", Entities: []core.EntityKind{"SHOE_SIZE"}})
	assert.Error(t, err)

	spans, err := d.Analyze(ctx, core.AnalyzeRequest{Text: "", Language: "en"})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

type failingRecognizer struct{}

func (failingRecognizer) Name() string { return "failing" }
func (failingRecognizer) Kinds() []core.EntityKind { return []core.EntityKind{core.EntityPerson} }
func (failingRecognizer) Analyze(context.Context, string, map[core.EntityKind]bool) ([]core.DetectedSpan, error) {
	return nil, errors.New("backend down")
}

func TestDetector_RecognizerErrorPropagates(t *testing.T) {
	d := NewDefaultDetector(failingRecognizer{})

	spans, err := d.Analyze(context.Background(), core.AnalyzeRequest{Text: "Mr. Smith", Language: "en"})
	require.Error(t, err)
	assert.Nil(t, spans)
	assert.Contains(t, err.Error(), "failing")
}

func TestDetector_SpansSorted(t *testing.T) {
	spans := analyze(t, "call 212-555-5555 or mail a@b.com, ssn 432-56-5654")
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].Start, spans[i].Start)
	}
}
