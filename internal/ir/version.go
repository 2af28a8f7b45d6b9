package ir

// Version constants for the canonical format.
const (
	// FormatVersion is the canonical encoding version. Digests change
	// when it does.
	FormatVersion = "1"
)
