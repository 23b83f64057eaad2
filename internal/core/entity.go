package core

import (
	"fmt"
	"strings"
)

// EntityKind names a category of personally identifiable information.
type EntityKind string

const (
	EntityCreditCard      EntityKind = "CREDIT_CARD"
	EntityCrypto          EntityKind = "CRYPTO"
	EntityDateTime        EntityKind = "DATE_TIME"
	EntityEmailAddress    EntityKind = "EMAIL_ADDRESS"
	EntityIBANCode        EntityKind = "IBAN_CODE"
	EntityIPAddress       EntityKind = "IP_ADDRESS"
	EntityNRP             EntityKind = "NRP"
	EntityLocation        EntityKind = "LOCATION"
	EntityPerson          EntityKind = "PERSON"
	EntityPhoneNumber     EntityKind = "PHONE_NUMBER"
	EntityMedicalLicense  EntityKind = "MEDICAL_LICENSE"
	EntityURL             EntityKind = "URL"
	EntityUSBankNumber    EntityKind = "US_BANK_NUMBER"
	EntityUSDriverLicense EntityKind = "US_DRIVER_LICENSE"
	EntityUSITIN          EntityKind = "US_ITIN"
	EntityUSPassport      EntityKind = "US_PASSPORT"
	EntityUSSSN           EntityKind = "US_SSN"
)

var allEntityKinds = []EntityKind{
	EntityCreditCard,
	EntityCrypto,
	EntityDateTime,
	EntityEmailAddress,
	EntityIBANCode,
	EntityIPAddress,
	EntityNRP,
	EntityLocation,
	EntityPerson,
	EntityPhoneNumber,
	EntityMedicalLicense,
	EntityURL,
	EntityUSBankNumber,
	EntityUSDriverLicense,
	EntityUSITIN,
	EntityUSPassport,
	EntityUSSSN,
}

// AllEntityKinds returns the fixed set of kinds the redactor looks for, in
// their canonical order.
func AllEntityKinds() []EntityKind {
	out := make([]EntityKind, len(allEntityKinds))
	copy(out, allEntityKinds)
	return out
}

func (k EntityKind) Valid() bool {
	for _, known := range allEntityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Placeholder is the token that replaces a detected span.
func (k EntityKind) Placeholder() string {
	return "<" + string(k) + ">"
}

// ParseEntityKinds parses a comma separated list of kind names.
// An empty input yields the full set.
func ParseEntityKinds(s string) ([]EntityKind, error) {
	if strings.TrimSpace(s) == "" {
		return AllEntityKinds(), nil
	}

	seen := make(map[EntityKind]bool)
	var kinds []EntityKind
	for _, part := range strings.Split(s, ",") {
		k := EntityKind(strings.ToUpper(strings.TrimSpace(part)))
		if k == "" {
			continue
		}
		if !k.Valid() {
			return nil, fmt.Errorf("unknown entity kind %q", part)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no entity kinds in %q", s)
	}
	return kinds, nil
}

// DetectedSpan marks a byte range [Start, End) of the analyzed text.
type DetectedSpan struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Kind       EntityKind `json:"entity_type"`
	Score      float64    `json:"score"`
	Recognizer string     `json:"recognizer,omitempty"`
}

func (s DetectedSpan) Len() int {
	return s.End - s.Start
}

type AnalyzeRequest struct {
	Text     string
	Entities []EntityKind
	Language string
}
