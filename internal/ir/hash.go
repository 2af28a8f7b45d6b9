package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/classier/internal/engine"
)

// Domain prefixes for content digests. The version suffix allows a future
// encoding change without colliding with old digests.
const (
	DomainDeclaration = "classier/declaration/v1"
	DomainTrace       = "classier/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DeclarationDigest identifies a class declaration by content: the same
// members, values and method sources give the same digest regardless of
// member order.
func DeclarationDigest(decl *engine.Record) (string, error) {
	if decl == nil {
		decl = engine.NewRecord()
	}
	canonical, err := MarshalCanonical(decl)
	if err != nil {
		return "", fmt.Errorf("DeclarationDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDeclaration, canonical), nil
}

// TraceDigest identifies a canonical trace.
func TraceDigest(trace IRValue) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustDeclarationDigest is like DeclarationDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDeclarationDigest(decl *engine.Record) string {
	d, err := DeclarationDigest(decl)
	if err != nil {
		panic(err)
	}
	return d
}
