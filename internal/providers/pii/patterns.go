package pii

import (
	"regexp"
	"strings"

	"github.com/sandevgo/piichat/internal/core"
)

const (
	months      = `January|February|March|April|May|June|July|August|September|October|November|December`
	monthsShort = `Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec`
	ordinal     = `(?:st|nd|rd|th)?`
	// RE2's \b only knows ASCII word characters, so capitalised words
	// are delimited by any non-letter instead.
	capWord     = `\p{Lu}\p{Ll}+(?:[-']\p{Lu}\p{Ll}+)?`
	notLetter   = `(?:[^\p{L}]|$)`
	usStateCode = `AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY|DC`
)

var usStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut",
	"Delaware", "Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
	"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan",
	"Minnesota", "Mississippi", "Missouri", "Montana", "Nebraska", "Nevada",
	"New Hampshire", "New Jersey", "New Mexico", "New York", "North Carolina",
	"North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania", "Rhode Island",
	"South Carolina", "South Dakota", "Tennessee", "Texas", "Utah", "Vermont", "Virginia",
	"Washington", "West Virginia", "Wisconsin", "Wyoming",
}

var majorCities = []string{
	"New York City", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia",
	"San Antonio", "San Diego", "Dallas", "San Jose", "Austin", "Jacksonville",
	"San Francisco", "Columbus", "Seattle", "Denver", "Boston", "Nashville", "Detroit",
	"Portland", "Las Vegas", "Memphis", "Baltimore", "Milwaukee", "Albuquerque",
	"Atlanta", "Miami", "Minneapolis", "New Orleans", "Pittsburgh", "St. Louis",
	"London", "Paris", "Berlin", "Madrid", "Rome", "Tokyo", "Toronto", "Vancouver",
	"Mexico City", "Sydney", "Dublin", "Mumbai", "Beijing", "Shanghai",
}

var nrpTerms = []string{
	// nationalities and ethnic groups
	"American", "British", "Canadian", "Mexican", "Chinese", "Japanese", "Indian",
	"German", "French", "Italian", "Spanish", "Russian", "Korean", "Vietnamese",
	"Filipino", "Brazilian", "Irish", "Polish", "Israeli", "Iranian", "Pakistani",
	"Nigerian", "Cuban", "Haitian", "Ukrainian", "African American", "Hispanic",
	"Latino", "Latina", "Asian", "Caucasian",
	// religions
	"Christian", "Catholic", "Protestant", "Muslim", "Jewish", "Hindu", "Buddhist",
	"Sikh", "Mormon", "Atheist", "Orthodox", "Evangelical",
	// political groups
	"Democrat", "Democrats", "Republican", "Republicans", "Libertarian", "Socialist",
	"Communist", "Green Party",
}

func re(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

// DefaultRecognizers returns one pattern recognizer per supported entity kind.
func DefaultRecognizers() []Recognizer {
	locationTerms := append(append([]string{}, usStates...), majorCities...)

	return []Recognizer{
		&PatternRecognizer{
			name: "CreditCardRecognizer",
			kind: core.EntityCreditCard,
			patterns: []pattern{
				{name: "all credit cards", score: 0.3,
					re: re(`\b(?:4\d{3}|5[0-5]\d{2}|6\d{3}|1\d{3}|3\d{3})[- ]?\d{3,4}[- ]?\d{3,4}[- ]?\d{3,5}\b`)},
			},
			validate: validateCreditCard,
			context:  []string{"credit", "card", "visa", "mastercard", "amex", "discover", "cc"},
		},
		&PatternRecognizer{
			name: "CryptoRecognizer",
			kind: core.EntityCrypto,
			patterns: []pattern{
				{name: "bitcoin address", score: 0.5,
					re: re(`\b(?:bc1[a-z0-9]{25,87}|[13][a-km-zA-HJ-NP-Z1-9]{25,34})\b`)},
			},
			validate: validateCrypto,
			context:  []string{"wallet", "btc", "bitcoin", "crypto"},
		},
		&PatternRecognizer{
			name: "DateRecognizer",
			kind: core.EntityDateTime,
			patterns: []pattern{
				{name: "iso date", score: 0.6,
					re: re(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?\b`)},
				{name: "numeric date", score: 0.6,
					re: re(`\b\d{1,2}[/.]\d{1,2}[/.]\d{2,4}\b|\b\d{1,2}-\d{1,2}-\d{4}\b`)},
				{name: "month day year", score: 0.6,
					re: re(`\b(?:` + months + `|(?:` + monthsShort + `)\.?)\s+\d{1,2}` + ordinal + `(?:,?\s+\d{4})?\b`)},
				{name: "day month year", score: 0.6,
					re: re(`\b\d{1,2}` + ordinal + `\s+(?:of\s+)?(?:` + months + `|` + monthsShort + `)\b(?:,?\s+\d{4}\b)?`)},
				{name: "month year", score: 0.6,
					re: re(`\b(?:` + months + `)\s+\d{4}\b`)},
				{name: "clock time", score: 0.6,
					re: re(`\b(?:[01]?\d|2[0-3]):[0-5]\d(?::[0-5]\d)?(?:\s?(?:[AaPp][Mm]\b|[ap]\.m\.))?`)},
				{name: "hour meridiem", score: 0.6,
					re: re(`\b(?:1[0-2]|0?[1-9])\s?(?:[AaPp][Mm]\b|[ap]\.m\.)`)},
			},
			validate: validateDate,
			context:  []string{"date", "birthday", "born", "dob", "birth", "appointment"},
		},
		&PatternRecognizer{
			name: "EmailRecognizer",
			kind: core.EntityEmailAddress,
			patterns: []pattern{
				{name: "email", score: 0.5,
					re: re(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
			},
			validate: validateEmail,
			context:  []string{"email", "mail", "e-mail"},
		},
		&PatternRecognizer{
			name: "IbanRecognizer",
			kind: core.EntityIBANCode,
			patterns: []pattern{
				{name: "iban", score: 0.5,
					re: re(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,4})?\b`)},
			},
			validate: validateIBAN,
			context:  []string{"iban", "bank", "transaction"},
		},
		&PatternRecognizer{
			name: "IpRecognizer",
			kind: core.EntityIPAddress,
			patterns: []pattern{
				{name: "ipv4", score: 0.6,
					re: re(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
				{name: "ipv6", score: 0.6,
					re: re(`\b(?:[0-9A-Fa-f]{1,4}:){7}[0-9A-Fa-f]{1,4}\b|\b(?:[0-9A-Fa-f]{1,4}:){1,6}:(?:[0-9A-Fa-f]{1,4}(?::[0-9A-Fa-f]{1,4}){0,5})?\b|::1\b`)},
			},
			validate: validateIP,
			context:  []string{"ip", "ipv4", "ipv6", "address", "host"},
		},
		&PatternRecognizer{
			name: "NrpRecognizer",
			kind: core.EntityNRP,
			patterns: []pattern{
				{name: "nrp deny list", score: 0.6, re: denyList(nrpTerms)},
			},
		},
		&PatternRecognizer{
			name: "LocationRecognizer",
			kind: core.EntityLocation,
			patterns: []pattern{
				{name: "location deny list", score: 0.6, re: denyList(locationTerms)},
				{name: "street address", score: 0.5,
					re: re(`\b\d{1,5}\s+(?:` + capWord + `\s+){1,3}(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl|Terrace|Parkway)\b`)},
				{name: "city state", score: 0.6, group: 1,
					re: re(`(?:^|[^\p{L}])(` + capWord + `(?:\s` + capWord + `)?,\s(?:` + usStateCode + `))\b`)},
			},
			context: []string{"live", "lives", "address", "city", "located", "moved", "from"},
		},
		&PatternRecognizer{
			name: "PersonRecognizer",
			kind: core.EntityPerson,
			patterns: []pattern{
				{name: "honorific", score: 0.7, group: 1,
					re: re(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?\s+(` + capWord + `(?:\s+` + capWord + `)?)` + notLetter)},
				{name: "self introduction", score: 0.7, group: 1,
					re: re(`(?i:\bmy name is)\s+(` + capWord + `(?:\s+` + capWord + `)?)` + notLetter)},
			},
		},
		&PatternRecognizer{
			name: "PhoneRecognizer",
			kind: core.EntityPhoneNumber,
			patterns: []pattern{
				{name: "us phone separated", score: 0.5,
					re: re(`(?:\+1[-.\s]?)?(?:\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`)},
				{name: "international", score: 0.4,
					re: re(`\+\d{1,3}[-.\s]\d{1,4}[-.\s]\d{3,4}[-.\s]?\d{3,4}\b`)},
				{name: "us phone plain", score: 0.3,
					re: re(`\b\d{10}\b`)},
			},
			context: []string{"phone", "telephone", "cell", "mobile", "call", "contact", "number", "tel", "fax"},
		},
		&PatternRecognizer{
			name: "MedicalLicenseRecognizer",
			kind: core.EntityMedicalLicense,
			patterns: []pattern{
				{name: "dea number", score: 0.4,
					re: re(`\b[ABCDEFGHJKLMPRSTUXabcdefghjklmprstux][A-Za-z9]\d{7}\b`)},
			},
			validate: validateDEA,
			context:  []string{"medical", "license", "licence", "dea", "certificate"},
		},
		&PatternRecognizer{
			name: "UrlRecognizer",
			kind: core.EntityURL,
			patterns: []pattern{
				{name: "scheme url", score: 0.6,
					re: re(`\bhttps?://[^\s<>"']+`)},
				{name: "www url", score: 0.5,
					re: re(`\bwww\.[^\s<>"']+`)},
				{name: "bare domain", score: 0.4,
					re: re(`\b(?:[A-Za-z0-9-]+\.)+(?:com|org|net|io|gov|edu|info|biz|co|uk|de|ai)\b(?:/[^\s<>"']*)?`)},
			},
			context: []string{"url", "website", "link", "site", "web"},
			trim:    ".,;:!?)",
		},
		&PatternRecognizer{
			name: "UsBankRecognizer",
			kind: core.EntityUSBankNumber,
			patterns: []pattern{
				{name: "bank account", score: 0.05, re: re(`\b\d{8,17}\b`)},
			},
			context: []string{"bank", "account", "acct", "checking", "savings", "routing", "debit"},
		},
		&PatternRecognizer{
			name: "UsLicenseRecognizer",
			kind: core.EntityUSDriverLicense,
			patterns: []pattern{
				{name: "driver license alphanumeric", score: 0.3, re: re(`\b[A-Z]\d{3,8}\b`)},
			},
			context: []string{"driver", "driving", "license", "licence", "dl", "permit"},
		},
		&PatternRecognizer{
			name: "UsItinRecognizer",
			kind: core.EntityUSITIN,
			patterns: []pattern{
				{name: "itin separated", score: 0.5,
					re: re(`\b9\d{2}[- ](?:5\d|6[0-5]|7\d|8[0-8]|9[0-2]|9[4-9])[- ]\d{4}\b`)},
				{name: "itin plain", score: 0.3,
					re: re(`\b9\d{2}(?:5\d|6[0-5]|7\d|8[0-8]|9[0-2]|9[4-9])\d{4}\b`)},
				{name: "itin shaped", score: 0.3,
					re: re(`\b9\d{2}[- ]\d{2}[- ]\d{4}\b`)},
			},
			context: []string{"itin", "individual", "taxpayer", "tax"},
		},
		&PatternRecognizer{
			name: "UsPassportRecognizer",
			kind: core.EntityUSPassport,
			patterns: []pattern{
				{name: "passport numeric", score: 0.05, re: re(`\b\d{9}\b`)},
				{name: "passport next generation", score: 0.1, re: re(`\b[A-Z]\d{8,9}\b`)},
			},
			context: []string{"passport", "travel", "document"},
		},
		&PatternRecognizer{
			name: "UsSsnRecognizer",
			kind: core.EntityUSSSN,
			patterns: []pattern{
				{name: "ssn separated", score: 0.5, re: re(`\b\d{3}[- .]\d{2}[- .]\d{4}\b`)},
				{name: "ssn plain", score: 0.05, re: re(`\b\d{9}\b`)},
			},
			validate: validateSSN,
			context:  []string{"ssn", "social", "security", "ssns", "ss"},
		},
	}
}

// recognizerNames is used in log fields; it never carries matched text.
func recognizerNames(recognizers []Recognizer) string {
	names := make([]string, len(recognizers))
	for i, r := range recognizers {
		names[i] = r.Name()
	}
	return strings.Join(names, ",")
}
