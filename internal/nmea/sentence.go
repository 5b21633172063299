package nmea

import (
	"encoding/hex"
	"strings"
)

// Checksum returns the XOR of every byte in payload, the text strictly
// between '$' and '*'.
func Checksum(payload string) byte {
	var ck byte
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return ck
}

// ValidateChecksum reports whether the sentence's trailing checksum matches
// its payload. A sentence without a '*' delimiter validates as true: some
// instruments omit the checksum entirely, and only a mismatch is a failure.
// Hex comparison is case-insensitive.
func ValidateChecksum(sentence string) bool {
	star := strings.LastIndexByte(sentence, '*')
	if star == -1 {
		return true
	}

	start := 0
	if strings.HasPrefix(sentence, "$") {
		start = 1
	}

	ck := strings.TrimSpace(sentence[star+1:])
	if len(ck) < 2 {
		return false
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return false
	}
	return Checksum(sentence[start:star]) == want[0]
}

// payload strips the leading '$' and any trailing '*XX' checksum, returning
// the raw comma-separated field text.
func payload(sentence string) string {
	p := strings.TrimPrefix(sentence, "$")
	if star := strings.LastIndexByte(p, '*'); star != -1 {
		p = p[:star]
	}
	return p
}
