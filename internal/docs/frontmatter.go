package docs

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the subset of document front matter the build reads.
// Other keys are accepted and ignored.
type FrontMatter struct {
	// ID replaces the last segment of the path-derived document id.
	ID string `yaml:"id"`

	// Slug overrides the route. A leading "/" makes it relative to the docs
	// route base; otherwise it is relative to the document's directory.
	Slug string `yaml:"slug"`

	// Draft documents are left out of the tree.
	Draft bool `yaml:"draft"`
}

var fence = []byte("---")

// splitFrontMatter separates a leading "---" fenced YAML block from the body.
// It returns the number of source lines the block occupied so that link line
// numbers can be reported against the original file.
func splitFrontMatter(src []byte) (FrontMatter, []byte, int, error) {
	var fm FrontMatter

	src = bytes.TrimPrefix(src, []byte("\uFEFF"))
	first, rest, ok := cutLine(src)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t\r"), fence) {
		return fm, src, 0, nil
	}

	lines := 1
	var block []byte
	for {
		line, next, more := cutLine(rest)
		lines++
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			if err := yaml.Unmarshal(block, &fm); err != nil {
				return fm, nil, 0, fmt.Errorf("malformed front matter: %w", err)
			}
			return fm, next, lines, nil
		}
		if !more {
			// Unterminated: treat the whole file as body.
			return FrontMatter{}, src, 0, nil
		}
		block = append(block, line...)
		block = append(block, '\n')
		rest = next
	}
}

// cutLine splits off the first line of b without its newline. ok is false if
// b is empty.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	if len(b) == 0 {
		return nil, nil, false
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i], b[i+1:], true
	}
	return b, nil, true
}
