// Package config provides the site configuration model of docsite and the
// options of a build invocation.
//
// A SiteConfig is loaded once from a YAML, JSON or TOML file, validated as a
// whole, and then passed read-only to the build. Validation either yields a
// complete configuration or an error naming every offending field; there is
// no best-effort result.
//
// Preset, plugin and theme options are decoded against a closed set of known
// schemas. Registrations without a schema keep their options in an untyped
// Extra map, so third-party plugins still load.
package config
