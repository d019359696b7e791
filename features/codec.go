// SPDX-License-Identifier: GPL-3.0-or-later

// Package features builds the canonical combined feature text fed to
// the risk classifier. The assembly order, the literal prefixes and the
// amount bins are a hard compatibility contract with the training-time
// encoding: two records with identical semantic inputs must produce
// byte-identical output.
package features

import (
	"net/mail"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// AmountToken is the coarse bucket replacing a raw monetary amount in
// the feature text.
type AmountToken string

const (
	AmountLow  = AmountToken("AMOUNT_BIN:LOW")
	AmountMed  = AmountToken("AMOUNT_BIN:MED")
	AmountHigh = AmountToken("AMOUNT_BIN:HIGH")
	AmountUnk  = AmountToken("AMOUNT_BIN:UNK")
)

var (
	amountPattern     = regexp.MustCompile(`[0-9]+(?:\.[0-9]{2})?`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// DomainFromHeader extracts the lower-cased domain from an address
// header like "Jane Doe <jane@acme.com>". Missing display name and
// missing angle brackets are tolerated; no parseable address or no "@"
// yields "".
func DomainFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) == 0 {
		return ""
	}

	addr, err := mail.ParseAddress(header)
	if err != nil {
		return ""
	}

	at := strings.LastIndex(addr.Address, "@")
	if at < 0 || at == len(addr.Address)-1 {
		return ""
	}

	return strings.ToLower(addr.Address[at+1:])
}

// AttachmentExtensions collects the sorted, duplicate-free set of
// lower-cased file extensions from the given attachment names into a
// comma-joined string. Extensionless names are dropped.
func AttachmentExtensions(names []string) string {
	seen := map[string]bool{}
	exts := []string{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		dot := strings.LastIndex(name, ".")
		if dot <= 0 || dot == len(name)-1 {
			continue
		}

		ext := strings.ToLower(name[dot+1:])
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}

	sort.Strings(exts)
	return strings.Join(exts, ",")
}

// ExtractAmount finds the first unsigned decimal number, optionally
// with exactly two fractional digits, in the given text. It returns the
// parsed value, the matched substring and whether a usable amount was
// found.
func ExtractAmount(text string) (float64, string, bool) {
	match := amountPattern.FindString(text)
	if len(match) == 0 {
		return 0, "", false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, "", false
	}

	return value, match, true
}

// QuantizeAmount buckets an amount: <100 LOW, <1000 MED, else HIGH.
// An absent amount is UNK.
func QuantizeAmount(value float64, present bool) AmountToken {
	if !present {
		return AmountUnk
	}

	switch {
	case value < 100:
		return AmountLow
	case value < 1000:
		return AmountMed
	default:
		return AmountHigh
	}
}

// QuantizeAmountString buckets a textual amount, as found in a labeled
// training table. Non-numeric or empty input is UNK.
func QuantizeAmountString(raw string) AmountToken {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return AmountUnk
	}

	return QuantizeAmount(value, true)
}

// CombinedText assembles the canonical feature text: subject, body,
// "FROM:"+senderDomain, "REPLY:"+replyDomain, "ATTACH:"+extensions and
// the amount token, newline-joined, whitespace-collapsed and trimmed.
func CombinedText(subject, body, fromDomain, replyDomain, attachmentTypes string, amount AmountToken) string {
	joined := strings.Join(
		[]string{
			subject,
			body,
			"FROM:" + strings.ToLower(fromDomain),
			"REPLY:" + strings.ToLower(replyDomain),
			"ATTACH:" + strings.ToLower(attachmentTypes),
			string(amount),
		},
		"\n",
	)

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(joined, " "))
}
