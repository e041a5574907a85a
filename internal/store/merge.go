package store

import "strings"

// mergeSignature implements spec §4.F's signature merge rule: keep the
// existing signature unless it is empty, the incoming signature adds a
// pet_item token the existing lacks, or the two disagree on stars10.
func mergeSignature(existing, incoming string) string {
	if existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	if hasPetItemToken(incoming) && !hasPetItemToken(existing) {
		return incoming
	}
	if stars10Token(existing) != stars10Token(incoming) {
		return incoming
	}
	return existing
}

func hasPetItemToken(sig string) bool {
	for _, tok := range strings.Split(sig, "|") {
		if strings.HasPrefix(tok, "pet_item:") {
			return true
		}
	}
	return false
}

func stars10Token(sig string) string {
	for _, tok := range strings.Split(sig, "|") {
		if strings.HasPrefix(tok, "stars10:") {
			return tok
		}
	}
	return ""
}
