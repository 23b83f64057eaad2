package core

import (
	"errors"
	"fmt"
)

// ValidatePreamble checks that a preamble is non-empty and strictly
// alternates user and assistant turns, so that transcript pairing stays
// aligned after it.
func ValidatePreamble(preamble []Turn) error {
	if len(preamble) == 0 {
		return errors.New("preamble is empty")
	}
	if len(preamble)%2 != 0 {
		return fmt.Errorf("preamble has %d turns, want an even number", len(preamble))
	}
	for i, t := range preamble {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if t.Role != want {
			return fmt.Errorf("preamble turn %d has role %q, want %q", i, t.Role, want)
		}
	}
	return nil
}
