package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// LinkPolicy is the build-time enforcement level for broken references.
//
// The zero value is PolicyUnset so that an omitted key in the configuration
// source can be told apart from an explicit "ignore" and receive its default.
type LinkPolicy int

const (
	// PolicyUnset means the key was not present in the configuration source.
	PolicyUnset LinkPolicy = iota

	// PolicyIgnore suppresses reporting of broken references entirely.
	PolicyIgnore

	// PolicyWarn logs each broken reference and lets the build continue.
	PolicyWarn

	// PolicyFail aborts the build with a non-zero exit.
	PolicyFail
)

// policyInvalid marks a value that was present but not recognised.
// Validate reports it with the offending field name.
const policyInvalid LinkPolicy = -1

// String returns the canonical configuration spelling of the policy.
func (p LinkPolicy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicyWarn:
		return "warn"
	case PolicyFail:
		return "fail"
	default:
		return "unset"
	}
}

// ParseLinkPolicy parses a policy name. Besides the canonical names it accepts
// the Docusaurus spellings "throw" (fail) and "log" (warn).
func ParseLinkPolicy(s string) (LinkPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return PolicyIgnore, nil
	case "warn", "log":
		return PolicyWarn, nil
	case "fail", "throw":
		return PolicyFail, nil
	default:
		return PolicyUnset, fmt.Errorf("unknown link policy %q (want ignore, warn or fail)", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. Unrecognised names decode to an
// invalid policy rather than failing, so that validation can name the field.
func (p *LinkPolicy) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLinkPolicy(s)
	if err != nil {
		*p = policyInvalid
		return nil
	}
	*p = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p LinkPolicy) MarshalYAML() (any, error) {
	return p.String(), nil
}

// MarshalText implements encoding.TextMarshaler so that reports encode
// policies by name.
func (p LinkPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "unset" decodes to
// PolicyUnset so that MarshalText output always reads back.
func (p *LinkPolicy) UnmarshalText(text []byte) error {
	if string(text) == "unset" {
		*p = PolicyUnset
		return nil
	}
	parsed, err := ParseLinkPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// LinkKind distinguishes the two classes of references a build checks.
type LinkKind string

const (
	// LinkKindHyperlink is a link to a site route or page, e.g. "/docs/intro".
	LinkKindHyperlink LinkKind = "hyperlink"

	// LinkKindDocReference is a markdown link to another document file,
	// e.g. "../guides/setup.md".
	LinkKindDocReference LinkKind = "doc-reference"
)

// Default link policies, matching what Docusaurus does when the keys are omitted.
const (
	DefaultOnBrokenLinks         = PolicyFail
	DefaultOnBrokenMarkdownLinks = PolicyWarn
)

// ResolveLinkPolicy returns the enforcement level configured for kind.
// Unknown kinds are treated as hyperlinks.
func (c *SiteConfig) ResolveLinkPolicy(kind LinkKind) LinkPolicy {
	if kind == LinkKindDocReference {
		if c.OnBrokenMarkdownLinks == PolicyUnset {
			return DefaultOnBrokenMarkdownLinks
		}
		return c.OnBrokenMarkdownLinks
	}
	if c.OnBrokenLinks == PolicyUnset {
		return DefaultOnBrokenLinks
	}
	return c.OnBrokenLinks
}
