package log

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces every masked attribute value.
const MaskValue = "***REDACTED***"

// credentialKeys are attribute keys masked on exact (case-insensitive) match.
// Names such as "api_key" need an entry because a bare "key" fragment would
// also hit cache_key or sort_key.
var credentialKeys = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"api_key":             {},
	"api-key":             {},
	"apikey":              {},
	"dashscope_api_key":   {},
	"secret_key":          {},
	"dsn":                 {},
}

// credentialWords mask any key that contains them.
var credentialWords = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"auth",
	"credential",
	"private",
}

// secretShapes match values that are secrets whatever their key.
var secretShapes = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{16,}$`), // DashScope and OpenAI style keys
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// redact returns a with its value masked when the key or value marks it as
// a credential. Groups are walked recursively and LogValuers are resolved
// first so a type cannot smuggle a secret past the checks.
func redact(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactAll(v.Group())...)}
	}

	if isCredentialKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if v.Kind() != slog.KindString {
		return slog.Attr{Key: a.Key, Value: v}
	}

	s := v.String()
	if isSensitiveValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if masked, ok := redactURLPassword(s); ok {
		return slog.String(a.Key, masked)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// redactAll applies redact to a copy of attrs.
func redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, redact(a))
	}
	return out
}

func isCredentialKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := credentialKeys[key]; ok {
		return true
	}
	return containsSensitiveKeyword(key)
}

// containsSensitiveKeyword reports whether the lower-cased key contains one
// of credentialWords.
func containsSensitiveKeyword(key string) bool {
	for _, word := range credentialWords {
		if strings.Contains(key, word) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether value has the shape of a secret.
func isSensitiveValue(value string) bool {
	for _, re := range secretShapes {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// redactURLPassword replaces the password of a URL with "xxxxx".
// It reports false when value is not a URL with a password.
func redactURLPassword(value string) (string, bool) {
	if !strings.Contains(value, "://") || !strings.Contains(value, "@") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return "", false
	}
	if _, set := u.User.Password(); !set {
		return "", false
	}
	return u.Redacted(), true
}
