// Package integrity implements subresource integrity (SRI) checks for the
// external stylesheets a site injects into its pages.
//
// Integrity metadata has the form "sha384-<base64 digest>", optionally several
// space separated tokens. Parse validates the format, Verify checks content
// against it, and Fetcher downloads a stylesheet so the configured digest can
// be compared with what the CDN actually serves.
package integrity
