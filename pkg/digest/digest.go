// Package digest provides the SHA-256 content digests used for archive
// integrity verification.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Size is the length in bytes of a raw digest.
const Size = sha256.Size

// Digest is a SHA-256 digest of an archive's bytes.
type Digest [Size]byte

// Parse parses a hex-encoded digest.
func Parse(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(raw) != Size {
		return d, fmt.Errorf("invalid digest length %d, expected %d", len(raw), Size)
	}
	copy(d[:], raw)
	return d, nil
}

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Equal reports whether two digests are identical.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// IsZero reports whether the digest is the zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// UnmarshalJSON decodes a digest from a JSON hex string.
func (d *Digest) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the digest as a JSON hex string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Sum computes the digest of everything readable from r without buffering it
// in memory. It returns the digest and the number of bytes read.
func Sum(r io.Reader) (Digest, int64, error) {
	var d Digest
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return d, n, fmt.Errorf("hashing: %w", err)
	}
	copy(d[:], h.Sum(nil))
	return d, n, nil
}

// SumFile computes the digest of the file at path.
func SumFile(path string) (Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("open for checksum: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Sum(f)
}

// Writer wraps an io.Writer and hashes everything written through it, so a
// download can be verified as it is streamed to disk.
type Writer struct {
	w io.Writer
	h hash.Hash
	n int64
}

// NewWriter returns a Writer that tees writes into w and a running hash.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, h: sha256.New()}
}

// Write implements io.Writer.
func (dw *Writer) Write(p []byte) (int, error) {
	n, err := dw.w.Write(p)
	if n > 0 {
		dw.h.Write(p[:n])
		dw.n += int64(n)
	}
	return n, err
}

// Digest returns the digest of all bytes written so far.
func (dw *Writer) Digest() Digest {
	var d Digest
	copy(d[:], dw.h.Sum(nil))
	return d
}

// Written returns the number of bytes written so far.
func (dw *Writer) Written() int64 {
	return dw.n
}
