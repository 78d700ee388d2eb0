package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultInlineThreshold is the size at or above which sensitive payloads
// are replaced by a redaction marker instead of stored in clear.
const DefaultInlineThreshold = 2048

// sensitiveMarkers flag prompt blocks that must never be stored in clear
// regardless of size (student context and credential-looking material).
var sensitiveMarkers = []string{
	"begin student context",
	"api_key",
	"secret",
	"password",
	"authorization:",
}

// HashText returns the stable sha256 hex digest used for redaction
// markers and for correlating discarded prompts.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RedactionMarker builds the stored placeholder carrying the hash and the
// original length.
func RedactionMarker(hash string, length int) string {
	return fmt.Sprintf("[REDACTED sha256=%s len=%d]", hash, length)
}

// sanitize applies the redaction policy to a payload: the hash is always
// computed; text at or above the threshold (or containing a sensitive
// marker when markerScan is set) is replaced by the marker.
func sanitize(s string, threshold int, markerScan bool) (text, hash string, redacted bool) {
	hash = HashText(s)
	if len(s) >= threshold || (markerScan && containsSensitiveMarker(s)) {
		return RedactionMarker(hash, len(s)), hash, true
	}
	return s, hash, false
}

func containsSensitiveMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range sensitiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var (
	encOnce sync.Once
	encoder *tiktoken.Tiktoken
)

// PromptTokens counts prompt tokens for cost accounting on the audit
// record. Falls back to a byte heuristic when the encoding is
// unavailable (offline environments).
func PromptTokens(s string) int {
	encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoder = enc
		}
	})
	if encoder == nil {
		return len(s) / 4
	}
	return len(encoder.Encode(s, nil, nil))
}
