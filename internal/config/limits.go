package config

const (
	// MaxDocumentNameLength is the maximum length for document names, in characters.
	MaxDocumentNameLength = 64

	// MaxRequestBodyBytes caps JSON request bodies. Bodies are hex encoded,
	// so the largest accepted ciphertext is about half of this.
	MaxRequestBodyBytes = 10 << 20
)
