// Package main provides the entry point for the docsite CLI.
//
// docsite checks the configuration of a Docusaurus-style documentation site
// and enforces its link-integrity policy against the docs tree and the
// built pages.
//
// Usage:
//
//	docsite validate
//	docsite build --verify-integrity
//	docsite history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
