package render

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/zeebo/blake3"
)

// hashChunkSize bounds the memory used while hashing binary files.
const hashChunkSize = 8192

// HashAlgorithm computes the content digest printed for binary files.
type HashAlgorithm interface {
	// Name returns the algorithm name, e.g. "md5". Its upper-case form
	// labels the digest in the document.
	Name() string

	// Sum hashes everything read from r and returns lower-case hex.
	Sum(r io.Reader) (string, error)
}

// MD5 is the default digest.
type MD5 struct{}

func (MD5) Name() string { return "md5" }

func (MD5) Sum(r io.Reader) (string, error) { return sumChunked(md5.New(), r) }

// SHA256 implements HashAlgorithm with SHA-256.
type SHA256 struct{}

func (SHA256) Name() string { return "sha256" }

func (SHA256) Sum(r io.Reader) (string, error) { return sumChunked(sha256.New(), r) }

// BLAKE3 implements HashAlgorithm with 256-bit BLAKE3.
type BLAKE3 struct{}

func (BLAKE3) Name() string { return "blake3" }

func (BLAKE3) Sum(r io.Reader) (string, error) { return sumChunked(blake3.New(), r) }

// HashByName returns the algorithm registered under name.
func HashByName(name string) (HashAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return MD5{}, nil
	case "sha256":
		return SHA256{}, nil
	case "blake3":
		return BLAKE3{}, nil
	}
	return nil, fmt.Errorf("unknown hash algorithm %q (expected md5, sha256, or blake3)", name)
}

func sumChunked(h hash.Hash, r io.Reader) (string, error) {
	// Hide any WriterTo so the copy really goes through the fixed buffer.
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{r}, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
