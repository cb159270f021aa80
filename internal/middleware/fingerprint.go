package middleware

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Fingerprinter derives a pseudonymous respondent fingerprint from the client
// address and user agent. The key keeps fingerprints unlinkable across
// deployments; raw addresses are never stored.
type Fingerprinter struct {
	key []byte
}

func NewFingerprinter(key string) *Fingerprinter {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Fingerprinter{key: k}
}

// Of returns the hex-encoded 128-bit fingerprint of r.
func (f *Fingerprinter) Of(r *http.Request) string {
	h, err := blake2b.New(16, f.key)
	if err != nil {
		return ""
	}
	h.Write([]byte(ClientIP(r)))
	h.Write([]byte{0})
	h.Write([]byte(r.UserAgent()))
	return hex.EncodeToString(h.Sum(nil))
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
