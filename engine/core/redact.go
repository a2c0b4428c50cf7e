package core

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxDetailLen bounds remote error bodies quoted in messages.
const maxDetailLen = 512

var (
	tokenSchemeRe = regexp.MustCompile(`(?i)((?:bearer|token)\s+)[A-Za-z0-9\-\._~\+\/]{8,}=*`)
	kvSecretRe    = regexp.MustCompile(
		`(?i)(api[_-]?key|x-api-key|token|secret|password|authorization|access_token)["']?\s*[:=]\s*["']?[^"'\s,}]+["']?`,
	)
	credentialURLRe = regexp.MustCompile(`(?i)(https?://)[^@\s/]+@`)
	jwtRe           = regexp.MustCompile(`\b(eyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+)\b`)
)

// RedactString trims and scrubs credential shapes from text before it is
// placed in a caller-visible message. It never shortens the text.
func RedactString(s string) string {
	s = strings.TrimSpace(s)
	s = jwtRe.ReplaceAllString(s, "[JWT_REDACTED]")
	s = credentialURLRe.ReplaceAllString(s, "$1[REDACTED]@")
	s = tokenSchemeRe.ReplaceAllString(s, "$1[REDACTED]")
	s = kvSecretRe.ReplaceAllString(s, "$1=[REDACTED]")
	return s
}

// RedactDetail scrubs a remote response body and truncates it to a bounded
// length on a rune boundary. Apply it once, where the detail is extracted.
func RedactDetail(s string) string {
	return truncate(RedactString(strings.ToValidUTF8(s, "?")), maxDetailLen)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// RedactError applies RedactString to an error, returning an empty string when nil.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactString(err.Error())
}

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"x-api-key":           {},
	"cookie":              {},
	"set-cookie":          {},
}

// RedactHeaders returns a flattened copy of headers that is safe to log.
func RedactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for k, values := range headers {
		if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = strings.Join(values, ", ")
	}
	return out
}
