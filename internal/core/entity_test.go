package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllEntityKinds(t *testing.T) {
	kinds := AllEntityKinds()
	require.Len(t, kinds, 17)

	// callers get a copy
	kinds[0] = "MUTATED"
	assert.Equal(t, EntityCreditCard, AllEntityKinds()[0])

	for _, k := range AllEntityKinds() {
		assert.True(t, k.Valid(), k)
	}
}

func TestParseEntityKinds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []EntityKind
		wantAll bool
		wantErr bool
	}{
		{name: "empty means all", input: "", wantAll: true},
		{name: "blank means all", input: "   ", wantAll: true},
		{name: "subset", input: "us_ssn, PHONE_NUMBER", want: []EntityKind{EntityUSSSN, EntityPhoneNumber}},
		{name: "duplicates collapsed", input: "URL,url", want: []EntityKind{EntityURL}},
		{name: "unknown kind", input: "US_SSN,SHOE_SIZE", wantErr: true},
		{name: "only separators", input: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntityKinds(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantAll {
				assert.Equal(t, AllEntityKinds(), got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "<US_SSN>", EntityUSSSN.Placeholder())
}

func TestExchangeJSON(t *testing.T) {
	data, err := json.Marshal([]Exchange{{User: "hi <PERSON>", Assistant: "hello"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[["hi <PERSON>","hello"]]`, string(data))

	var back []Exchange
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Exchange{{User: "hi <PERSON>", Assistant: "hello"}}, back)
}
