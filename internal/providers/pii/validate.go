package pii

import (
	"crypto/sha256"
	"math/big"
	"net/mail"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func luhn(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func validateCreditCard(match string) verdict {
	digits := digitsOnly(match)
	if len(digits) < 13 || len(digits) > 19 {
		return rejected
	}
	if luhn(digits) {
		return verified
	}
	return rejected
}

// validateSSN drops numbers the SSA never issues. Well known sample numbers
// are still redacted.
func validateSSN(match string) verdict {
	var delims []rune
	for _, r := range match {
		if r == '-' || r == ' ' || r == '.' {
			delims = append(delims, r)
		}
	}
	if len(delims) > 0 && (len(delims) != 2 || delims[0] != delims[1]) {
		return rejected
	}

	digits := digitsOnly(match)
	if len(digits) != 9 {
		return rejected
	}
	if strings.Count(digits, digits[:1]) == len(digits) {
		return rejected
	}

	area, group, serial := digits[:3], digits[3:5], digits[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return rejected
	}
	if group == "00" || serial == "0000" {
		return rejected
	}
	return unverified
}

// validateIBAN applies the ISO 13616 mod-97 check.
func validateIBAN(match string) verdict {
	iban := strings.ToUpper(strings.ReplaceAll(match, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return rejected
	}

	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		var chunk string
		switch {
		case r >= '0' && r <= '9':
			chunk = string(r)
		case r >= 'A' && r <= 'Z':
			chunk = strconv.Itoa(int(r-'A') + 10)
		default:
			return rejected
		}
		for _, c := range chunk {
			remainder = (remainder*10 + int(c-'0')) % 97
		}
	}
	if remainder == 1 {
		return verified
	}
	return rejected
}

func validateIP(match string) verdict {
	if _, err := netip.ParseAddr(match); err != nil {
		return rejected
	}
	return unverified
}

var tldRe = regexp.MustCompile(`\.[A-Za-z]{2,}$`)

func validateEmail(match string) verdict {
	addr, err := mail.ParseAddress(match)
	if err != nil {
		return rejected
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 || !tldRe.MatchString(addr.Address[at+1:]) {
		return rejected
	}
	return verified
}

// validateDEA checks the DEA registration number check digit.
func validateDEA(match string) verdict {
	digits := digitsOnly(match)
	if len(digits) < 7 {
		return rejected
	}
	d := digits[len(digits)-7:]
	n := func(i int) int { return int(d[i] - '0') }

	sum := n(0) + n(2) + n(4) + 2*(n(1)+n(3)+n(5))
	if sum%10 == n(6) {
		return verified
	}
	return rejected
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func validateCrypto(match string) verdict {
	if strings.HasPrefix(strings.ToLower(match), "bc1") {
		if bech32Valid(strings.ToLower(match)) {
			return verified
		}
		return rejected
	}
	if base58CheckValid(match) {
		return verified
	}
	return rejected
}

func base58CheckValid(s string) bool {
	n := new(big.Int)
	radix := big.NewInt(58)
	for _, r := range s {
		idx := strings.IndexRune(base58Alphabet, r)
		if idx < 0 {
			return false
		}
		n.Mul(n, radix)
		n.Add(n, big.NewInt(int64(idx)))
	}

	decoded := n.Bytes()
	for i := 0; i < len(s) && s[i] == '1'; i++ {
		decoded = append([]byte{0}, decoded...)
	}
	if len(decoded) != 25 {
		return false
	}

	payload, checksum := decoded[:21], decoded[21:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if second[i] != checksum[i] {
			return false
		}
	}
	return true
}

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

func bech32Valid(s string) bool {
	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || sep+7 > len(s) {
		return false
	}
	hrp, data := s[:sep], s[sep+1:]

	values := make([]int, 0, len(hrp)*2+1+len(data))
	for i := 0; i < len(hrp); i++ {
		values = append(values, int(hrp[i])>>5)
	}
	values = append(values, 0)
	for i := 0; i < len(hrp); i++ {
		values = append(values, int(hrp[i])&31)
	}
	for _, r := range data {
		idx := strings.IndexRune(bech32Charset, r)
		if idx < 0 {
			return false
		}
		values = append(values, idx)
	}

	gen := [5]int{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := 1
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ v
		for i := 0; i < 5; i++ {
			if (top>>i)&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	// bech32 (segwit v0) or bech32m (taproot)
	return chk == 1 || chk == 0x2bc830a3
}

var numericDateRe = regexp.MustCompile(`^(\d{1,4})[/.\-](\d{1,2})[/.\-](\d{1,4})$`)

// validateDate rejects numeric dates whose fields cannot form a calendar
// date. Dates spelled with month names are accepted as matched.
func validateDate(match string) verdict {
	m := numericDateRe.FindStringSubmatch(match)
	if m == nil {
		return unverified
	}

	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])

	var month, day int
	if len(m[1]) == 4 {
		month, day = b, c
	} else {
		// accept both month-first and day-first orders
		month, day = a, b
		if month > 12 {
			month, day = b, a
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return rejected
	}
	return unverified
}
