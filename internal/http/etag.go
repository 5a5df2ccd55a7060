package http

import (
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ETag calcula un ETag fuerte (blake2b-256) sobre los bytes servidos.
func ETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// IfNoneMatch reporta si el cliente ya tiene etag. Acepta listas y "*".
func IfNoneMatch(r *http.Request, etag string) bool {
	v := strings.TrimSpace(r.Header.Get("If-None-Match"))
	if v == "" {
		return false
	}
	if v == "*" {
		return true
	}
	for _, cand := range strings.Split(v, ",") {
		cand = strings.TrimPrefix(strings.TrimSpace(cand), "W/")
		if cand == etag {
			return true
		}
	}
	return false
}
