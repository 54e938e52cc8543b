package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"privydocs/internal/config"
)

// ErrBodyTooLarge is returned by ParseJSON when the body exceeds config.MaxRequestBodyBytes
var ErrBodyTooLarge = errors.New("request body too large")

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected so a misspelled ciphertext field fails loudly
// instead of silently writing an empty body.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
