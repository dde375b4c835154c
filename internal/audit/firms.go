package audit

import (
	"strings"
	"unicode"
)

// FallbackFirm is the sentinel attributed when no inference rule produces a
// name. Never empty.
const FallbackFirm = "Independent Auditor"

// KnownFirms is the production table of audit-firm names matched against file
// paths, in precedence order.
var KnownFirms = []string{
	"Trail of Bits",
	"OpenZeppelin",
	"CertiK",
	"Quantstamp",
	"ConsenSys Diligence",
	"ChainSecurity",
	"PeckShield",
	"SlowMist",
	"Halborn",
	"Hacken",
	"Zellic",
	"Sherlock",
	"Cyberscope",
	"Least Authority",
	"Kudelski",
	"NCC Group",
}

// genericTokens are filename tokens that carry no firm information.
var genericTokens = map[string]bool{
	"audit":    true,
	"audits":   true,
	"report":   true,
	"reports":  true,
	"security": true,
	"final":    true,
	"review":   true,
	"md":       true,
	"txt":      true,
	"pdf":      true,
	"rst":      true,
}

// inferFirm attributes a file to an auditing firm. Rules are evaluated in
// order, short-circuiting on the first match:
//
//  1. known firm name appearing in the path (case-insensitive)
//  2. the path segment immediately preceding an "audit" segment
//  3. non-generic tokens of the filename
//  4. the FallbackFirm sentinel
func (e *Extractor) inferFirm(path string) string {
	rules := []func(string) (string, bool){
		e.knownFirmRule,
		precedingSegmentRule,
		filenameTokenRule,
	}
	for _, rule := range rules {
		if firm, ok := rule(path); ok {
			return firm
		}
	}
	return FallbackFirm
}

// knownFirmRule matches the path against the configured firm table.
func (e *Extractor) knownFirmRule(path string) (string, bool) {
	p := normalizeForMatch(path)
	for _, firm := range e.firms {
		if strings.Contains(p, normalizeForMatch(firm)) {
			return firm, true
		}
	}
	return "", false
}

// precedingSegmentRule takes the path segment immediately before a segment
// containing "audit", stripped of digits and separators, title-cased.
func precedingSegmentRule(path string) (string, bool) {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if !strings.Contains(strings.ToLower(segments[i]), "audit") {
			continue
		}
		if name := cleanToken(segments[i-1]); name != "" && !genericTokens[strings.ToLower(name)] {
			return titleCase(name), true
		}
	}
	return "", false
}

// filenameTokenRule joins the non-generic tokens of the filename.
func filenameTokenRule(path string) (string, bool) {
	name := fileName(path)
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}

	var kept []string
	for _, tok := range strings.FieldsFunc(name, isSeparator) {
		tok = cleanToken(tok)
		if tok == "" || genericTokens[strings.ToLower(tok)] {
			continue
		}
		kept = append(kept, titleCase(tok))
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

// normalizeForMatch lowercases and removes separators so "trail-of-bits"
// matches "Trail of Bits".
func normalizeForMatch(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if isSeparator(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// cleanToken strips digits and separators from a token.
func cleanToken(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || isSeparator(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '-', '_', '.', '/':
		return true
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
