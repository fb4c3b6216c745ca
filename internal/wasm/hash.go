package wasm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without collisions.
const (
	DomainModule = "loopc/module/v1"
	DomainSource = "loopc/source/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ModuleHash returns the content hash of a module's canonical encoding.
// Two compiles of the same program with the same configuration produce the
// same hash.
func ModuleHash(m *Module) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("ModuleHash: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}

// SourceHash returns the content hash of a program source document.
func SourceHash(src []byte) string {
	return hashWithDomain(DomainSource, src)
}

// MustModuleHash is like ModuleHash but panics on error.
// Use only in tests or when the module is known to be well formed.
func MustModuleHash(m *Module) string {
	h, err := ModuleHash(m)
	if err != nil {
		panic(err)
	}
	return h
}
