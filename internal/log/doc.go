// Package log provides the slog logger used by docsite, with masking of
// secrets that may appear in build output.
//
// Site configurations carry plugin options (search API keys, deploy tokens)
// and URLs (edit links, CDN stylesheets) that may embed credentials. The
// SecureHandler masks:
//   - values logged under sensitive keys (apiKey, token, password, cookie)
//   - values that look like secrets (JWTs, bearer values, GitHub tokens)
//   - userinfo passwords and token query parameters inside URLs
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("broken link", "kind", "hyperlink", "source", "intro.md")
//
// Warnings are visible by default; Debug and Info need verbose mode.
package log
