package imap

import (
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// ValidateCharset reports whether name is a charset the engine can decode
// and, if so, returns its canonical IANA name. Used to pre-flight a SEARCH
// CHARSET argument before sending it, and to decide whether an unexpected
// BADCHARSET response code names something this client could have avoided.
func ValidateCharset(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return "", false
	}
	canonical, err := ianaindex.MIME.Name(enc)
	if err != nil {
		return strings.ToUpper(name), true
	}
	return canonical, true
}

// BadCharsetError reports the server's accepted charsets from a BADCHARSET
// response code (RFC 3501 §7.1), letting a caller retry SEARCH with one the
// server actually understands instead of failing outright.
type BadCharsetError struct {
	Offered   string
	Supported []string
}

func (e *BadCharsetError) Error() string {
	if len(e.Supported) == 0 {
		return "imap: server rejected charset " + e.Offered
	}
	return "imap: server rejected charset " + e.Offered + "; supported: " + strings.Join(e.Supported, " ")
}

// NegotiateCharset picks the first charset in preferred that ValidateCharset
// accepts and that, if supported is non-empty, the server also lists as
// supported. Returns "" if nothing matches, so the caller falls back to
// US-ASCII/UTF-8 default behavior.
func NegotiateCharset(preferred []string, supported []string) string {
	supportedSet := make(map[string]bool, len(supported))
	for _, s := range supported {
		supportedSet[strings.ToUpper(s)] = true
	}
	for _, p := range preferred {
		canonical, ok := ValidateCharset(p)
		if !ok {
			continue
		}
		if len(supportedSet) == 0 || supportedSet[strings.ToUpper(canonical)] || supportedSet[strings.ToUpper(p)] {
			return canonical
		}
	}
	return ""
}
