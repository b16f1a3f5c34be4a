package integrity

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// Algorithm is a hash algorithm allowed in subresource integrity metadata.
type Algorithm string

// Algorithms allowed in Subresource Integrity metadata, weakest first.
const (
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// strength orders algorithms; when several are listed only the strongest counts.
var strength = map[Algorithm]int{
	SHA256: 1,
	SHA384: 2,
	SHA512: 3,
}

// size returns the digest length of the algorithm in bytes.
func (a Algorithm) size() int {
	switch a {
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// newHash returns a fresh hash.Hash for the algorithm.
func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		return sha256.New()
	}
}

var (
	// ErrMalformed is returned when integrity metadata cannot be parsed.
	ErrMalformed = errors.New("malformed integrity metadata")

	// ErrIntegrityMismatch is returned when fetched content does not match
	// any of the expected digests.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
)

// Hash is one "<algorithm>-<base64 digest>" token of integrity metadata.
type Hash struct {
	Algorithm Algorithm
	Digest    []byte
}

// String returns the token in SRI notation.
func (h Hash) String() string {
	return string(h.Algorithm) + "-" + base64.StdEncoding.EncodeToString(h.Digest)
}

// Parse parses a whitespace separated list of integrity tokens.
// Options after "?" are permitted and ignored, as browsers do.
// Unlike browsers, Parse rejects unknown algorithms instead of skipping them:
// a configuration naming one is almost certainly a typo.
func Parse(metadata string) ([]Hash, error) {
	fields := strings.Fields(metadata)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}

	hashes := make([]Hash, 0, len(fields))
	for _, field := range fields {
		token, _, _ := strings.Cut(field, "?")
		alg, encoded, ok := strings.Cut(token, "-")
		if !ok {
			return nil, fmt.Errorf("%w: %q has no algorithm prefix", ErrMalformed, field)
		}
		algorithm := Algorithm(strings.ToLower(alg))
		if _, known := strength[algorithm]; !known {
			return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformed, alg)
		}
		digest, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not base64: %v", ErrMalformed, field, err)
		}
		if len(digest) != algorithm.size() {
			return nil, fmt.Errorf("%w: %s digest must be %d bytes, got %d",
				ErrMalformed, algorithm, algorithm.size(), len(digest))
		}
		hashes = append(hashes, Hash{Algorithm: algorithm, Digest: digest})
	}
	return hashes, nil
}

// strongest returns the hashes of the strongest algorithm present.
func strongest(hashes []Hash) []Hash {
	best := 0
	for _, h := range hashes {
		if s := strength[h.Algorithm]; s > best {
			best = s
		}
	}
	out := make([]Hash, 0, len(hashes))
	for _, h := range hashes {
		if strength[h.Algorithm] == best {
			out = append(out, h)
		}
	}
	return out
}

// StrongestAlgorithm returns the algorithm Verify compares content with,
// or "" if hashes is empty.
func StrongestAlgorithm(hashes []Hash) Algorithm {
	if len(hashes) == 0 {
		return ""
	}
	return strongest(hashes)[0].Algorithm
}

// Compute returns the SRI token of content for the given algorithm.
func Compute(alg Algorithm, content []byte) Hash {
	h := alg.newHash()
	h.Write(content) //nolint:errcheck // hash.Hash.Write never returns an error
	return Hash{Algorithm: alg, Digest: h.Sum(nil)}
}

// Verify checks content against integrity metadata. Only digests of the
// strongest listed algorithm are considered and any one of them may match.
func Verify(content []byte, metadata string) error {
	hashes, err := Parse(metadata)
	if err != nil {
		return err
	}

	candidates := strongest(hashes)
	actual := Compute(candidates[0].Algorithm, content)
	for _, want := range candidates {
		if subtle.ConstantTimeCompare(actual.Digest, want.Digest) == 1 {
			return nil
		}
	}
	return fmt.Errorf("%w: content hashes to %s", ErrIntegrityMismatch, actual)
}
