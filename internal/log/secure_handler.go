package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys are attribute keys whose values are always masked.
// Keys are compared lower-cased with "-" and "_" removed, so "apiKey",
// "api_key" and "API-Key" all match "apikey".
var sensitiveKeys = map[string]bool{
	// HTTP headers seen while fetching stylesheets
	"authorization":      true,
	"proxyauthorization": true,
	"cookie":             true,
	"setcookie":          true,
	"xapikey":            true,

	// Search and deploy integrations configured as plugin options
	"apikey":          true,
	"searchapikey":    true,
	"adminapikey":     true,
	"githubtoken":     true,
	"deploytoken":     true,
	"accesstoken":     true,
	"refreshtoken":    true,
	"privatekey":      true,
	"secretkey":       true,
	"secretaccesskey": true,
	"password":        true,
	"passwd":          true,
	"credentials":     true,
}

// sensitiveKeywords mask any key that contains them.
// "key" alone is left out: "docId", "monkey" and "routeKey" are not secrets.
var sensitiveKeywords = []string{"password", "secret", "token", "credential"}

// sensitivePatterns match values that are secrets regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Authorization header values
	regexp.MustCompile(`(?i)^(bearer|basic|token)\s+\S+`),
	// GitHub personal access, OAuth and app tokens
	regexp.MustCompile(`^(gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})$`),
	// AWS access key ids
	regexp.MustCompile(`^(AKIA|ASIA)[0-9A-Z]{16}$`),
	// PEM private keys
	regexp.MustCompile(`(?i)-----BEGIN.*PRIVATE KEY-----`),
}

// sensitiveQueryParams are query parameters masked inside URL values.
var sensitiveQueryParams = []string{"token", "access_token", "apikey", "api_key", "key", "sig", "signature", "x-amz-signature"}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks secrets before records reach
// it. Build logs carry stylesheet URLs, edit URLs and plugin options, any of
// which may embed credentials.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the underlying handler handles records at level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes masked and added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks a single attribute, recursing into groups and maps.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, SanitizeValue(a.Value.String()))
	case slog.KindAny:
		if m, ok := a.Value.Any().(map[string]any); ok {
			return slog.Any(a.Key, SanitizeMap(m))
		}
	}
	return a
}

// IsSensitiveKey reports whether values logged under key must be masked.
func IsSensitiveKey(key string) bool {
	norm := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(key))
	if sensitiveKeys[norm] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

// SanitizeValue masks a secret-looking string. URLs keep their shape with the
// userinfo password and sensitive query parameters masked.
func SanitizeValue(value string) string {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return MaskValue
		}
	}
	if strings.Contains(value, "://") {
		return sanitizeURL(value)
	}
	return value
}

// SanitizeMap returns a copy of m with sensitive entries masked. It is used
// for the untyped options of third-party plugins.
func SanitizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			out[k] = SanitizeMap(val)
		case string:
			if IsSensitiveKey(k) {
				out[k] = MaskValue
			} else {
				out[k] = SanitizeValue(val)
			}
		default:
			if IsSensitiveKey(k) {
				out[k] = MaskValue
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	changed := false
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), MaskValue)
		changed = true
	}
	q := u.Query()
	for _, name := range sensitiveQueryParams {
		for key := range q {
			if strings.EqualFold(key, name) {
				q.Set(key, MaskValue)
				changed = true
			}
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	// url.URL.String escapes the mask; the log line is for humans.
	return strings.ReplaceAll(strings.ReplaceAll(u.String(), "%2A", "*"), "%2a", "*")
}

// NewSecureLogger returns a text logger writing to w that masks secrets.
// The level is Warn, or Debug when verbose is set.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})))
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
