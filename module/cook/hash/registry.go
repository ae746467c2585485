// Package hash maps hash algorithm names to digest functions used for the
// sidecar files written next to every archive.
package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	gohash "hash"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/cookware/cargo-cook/util/common/errors"
)

// Digester computes a lowercase hex digest of a byte slice.
type Digester interface {
	Name() string
	Digest(b []byte) string
}

type stdDigester struct {
	name string
	new  func() gohash.Hash
}

func (d stdDigester) Name() string { return d.name }

func (d stdDigester) Digest(b []byte) string {
	h := d.new()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// New returns a Digester backed by a hash.Hash constructor.
func New(name string, fn func() gohash.Hash) Digester {
	return stdDigester{name: name, new: fn}
}

// Registry looks digesters up by case-insensitive name.
type Registry struct {
	digesters map[string]Digester
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{digesters: map[string]Digester{}}
}

// DefaultRegistry returns a Registry holding every built-in algorithm.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(New("md5", md5.New))
	r.Register(New("sha1", sha1.New))
	r.Register(New("sha256", sha256.New))
	r.Register(New("sha512", sha512.New))
	r.Register(New("sha3-256", sha3.New256))
	r.Register(New("blake2b", func() gohash.Hash {
		h, _ := blake2b.New512(nil) // only fails for oversized keys
		return h
	}))
	return r
}

// Register adds or replaces a digester.
func (r *Registry) Register(d Digester) {
	r.digesters[strings.ToLower(d.Name())] = d
}

// Supports reports whether name is a registered algorithm.
func (r *Registry) Supports(name string) bool {
	_, ok := r.digesters[strings.ToLower(name)]
	return ok
}

// Digest hashes b with the named algorithm.
func (r *Registry) Digest(b []byte, name string) (string, error) {
	d, ok := r.digesters[strings.ToLower(name)]
	if !ok {
		return "", errors.NewUnsupportedError(errors.KindHash, name)
	}
	return d.Digest(b), nil
}

// Names lists the registered algorithms in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.digesters))
	for n := range r.digesters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
