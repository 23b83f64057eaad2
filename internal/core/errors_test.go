package core

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	var err error = &TransportError{Provider: "openai", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "openai")

	var te *TransportError
	assert.True(t, errors.As(err, &te))

	var de *DetectionError
	assert.False(t, errors.As(err, &de))

	err = &DetectionError{Err: errors.New("model not loaded")}
	assert.True(t, errors.As(err, &de))
	assert.Contains(t, err.Error(), "model not loaded")

	err = &ConfigurationError{Field: "OPENAI_API_KEY", Err: errors.New("required")}
	assert.Equal(t, "invalid configuration OPENAI_API_KEY: required", err.Error())
}
