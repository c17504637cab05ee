package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without collisions.
const (
	DomainTrace = "pto/trace/v1"
	DomainValue = "pto/value/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the domain-separated SHA-256 of the canonical encoding of v.
func Hash(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// ValueHash identifies a single value. Two values hash equal exactly when
// their canonical encodings are equal.
func ValueHash(v Value) (string, error) {
	return Hash(DomainValue, v)
}

// MustValueHash is like ValueHash but panics on error.
// Use only in tests or when the value is known to be finite.
func MustValueHash(v Value) string {
	h, err := ValueHash(v)
	if err != nil {
		panic(err)
	}
	return h
}
