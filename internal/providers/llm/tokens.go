package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandevgo/piichat/internal/core"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// perTurnOverhead approximates the role and separator tokens chat formats add.
const perTurnOverhead = 4

// EstimateTokens approximates the prompt size of turns with the cl100k_base
// encoding. It returns -1 when the encoding cannot be loaded.
func EstimateTokens(turns []core.Turn) int {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encErr != nil {
		return -1
	}

	total := 0
	for _, t := range turns {
		total += len(enc.Encode(t.Content, nil, nil)) + perTurnOverhead
	}
	return total
}
