package pii

import (
	"regexp"

	"github.com/klartext/redakt/core"
)

// patternDef pairs a PII type with its detection pattern.
type patternDef struct {
	piiType core.PIIType
	expr    string
}

// patternTable is the fixed set of pattern-detectable PII types, tuned for
// German-language documents. The table is an ordered slice, not a map:
// candidate order feeds the masking tie-break and must be deterministic.
var patternTable = []patternDef{
	{core.PIITypeEmail, `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
	{core.PIITypePhone, `\b(?:\+49|0049|0)[\s\-]?(?:\d{2,4})[\s\-]?(?:\d{3,})[\s\-]?(?:\d{2,})\b`},
	{core.PIITypeIBAN, `\b[A-Z]{2}\d{2}[\s]?(?:\d{4}[\s]?){4,7}\d{0,2}\b`},
	{core.PIITypeBIC, `\b[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}(?:[A-Z0-9]{3})?\b`},
	{core.PIITypePostalCode, `\b\d{5}\b`},
	{core.PIITypeDate, `\b(?:\d{1,2}[./]\d{1,2}[./]\d{2,4})\b`},
	{core.PIITypeTaxID, `\b\d{2}[\s]?\d{3}[\s]?\d{3}[\s]?\d{3}\b`},
	{core.PIITypeSocialInsurance, `\b\d{2}[\s]?\d{6}[\s]?[A-Z][\s]?\d{3}\b`},
	{core.PIITypeCreditCard, `\b(?:\d{4}[\s\-]?){3}\d{4}\b`},
	{core.PIITypeIPAddress, `\b(?:\d{1,3}\.){3}\d{1,3}\b`},
}

// replacementTokens maps each PII type to its fixed redaction token.
var replacementTokens = map[core.PIIType]string{
	core.PIITypeEmail:           "[EMAIL]",
	core.PIITypePhone:           "[TELEFON]",
	core.PIITypeIBAN:            "[IBAN]",
	core.PIITypeBIC:             "[BIC]",
	core.PIITypePostalCode:      "[PLZ]",
	core.PIITypeDate:            "[DATUM]",
	core.PIITypeTaxID:           "[STEUER-ID]",
	core.PIITypeSocialInsurance: "[SOZVERS-NR]",
	core.PIITypeCreditCard:      "[KREDITKARTE]",
	core.PIITypeIPAddress:       "[IP-ADRESSE]",
	core.PIITypePerson:          "[PERSON]",
	core.PIITypeOrganization:    "[ORGANISATION]",
	core.PIITypeLocation:        "[ORT]",
}

// fallbackToken is used for any type without a mapped replacement.
const fallbackToken = "[REDACTED]"

// maskTokenPattern matches any replacement token already present in a text.
// Candidates falling inside such a token are discarded during detection;
// otherwise the BIC pattern re-matches token bodies like KREDITKARTE and
// masking would not be idempotent.
var maskTokenPattern = regexp.MustCompile(
	`\[(?:EMAIL|TELEFON|IBAN|BIC|PLZ|DATUM|STEUER-ID|SOZVERS-NR|KREDITKARTE|IP-ADRESSE|PERSON|ORGANISATION|ORT|REDACTED)\]`)

// maskTokenSpans returns the [start, end) offsets of every replacement
// token occurring in text.
func maskTokenSpans(text string) [][]int {
	return maskTokenPattern.FindAllStringIndex(text, -1)
}

// ReplacementToken returns the redaction token for a PII type.
func ReplacementToken(t core.PIIType) string {
	if token, ok := replacementTokens[t]; ok {
		return token
	}
	return fallbackToken
}

// compiledPattern is a pattern ready for scanning.
type compiledPattern struct {
	piiType core.PIIType
	re      *regexp.Regexp
}

// compilePatterns compiles the pattern table case-insensitively.
// Table order is preserved.
func compilePatterns() []compiledPattern {
	compiled := make([]compiledPattern, len(patternTable))
	for i, def := range patternTable {
		compiled[i] = compiledPattern{
			piiType: def.piiType,
			re:      regexp.MustCompile(`(?i)` + def.expr),
		}
	}
	return compiled
}
