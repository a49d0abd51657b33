// Package fingerprint computes fast xxh3-based content fingerprints used by
// the build engine as a second freshness check once its mtime comparison
// has passed (SPEC_FULL.md §3.1 SUPPLEMENT). It is grounded on fulhash's
// Digest/Hasher split, trimmed to the single algorithm the build engine
// actually needs — the indexer has no cross-tool digest-format requirement
// that would justify fulhash's pluggable SHA-256 path.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Digest is an xxh3-128 fingerprint.
type Digest struct {
	bytes [16]byte
}

// Hex returns the lowercase hexadecimal representation.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.bytes[:])
}

func (d Digest) String() string { return "xxh3-128:" + d.Hex() }

// Equal reports whether two digests carry the same bytes.
func (d Digest) Equal(other Digest) bool {
	return d.bytes == other.bytes
}

// Of computes the fingerprint of data.
func Of(data []byte) Digest {
	sum := xxh3.Hash128(data)
	return Digest{bytes: sum.Bytes()}
}

// OfReader streams r through the hasher, useful for large files where
// loading the whole payload is wasteful.
func OfReader(r io.Reader) (Digest, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	sum := h.Sum128()
	return Digest{bytes: sum.Bytes()}, nil
}

// headSampleSize is how much of a file is read for the cheap pre-check
// fingerprint: the first 4 KiB plus the declared file size, not the full
// contents (this is a fast pre-filter, not a content-addressed identity —
// full equality is never claimed from a partial sample).
const headSampleSize = 4096

// OfFileHead returns a fingerprint over the first headSampleSize bytes of
// path plus its total size, suitable as a cheap pre-check that a file is
// unchanged without hashing arbitrarily large schema documents in full.
func OfFileHead(path string) (Digest, int64, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the indexer's own dependency ledger
	if err != nil {
		return Digest{}, 0, fmt.Errorf("fingerprint: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Digest{}, 0, fmt.Errorf("fingerprint: stat %s: %w", path, err)
	}

	buf := make([]byte, headSampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Digest{}, 0, fmt.Errorf("fingerprint: read %s: %w", path, err)
	}

	h := xxh3.New()
	h.Write(buf[:n])
	fmt.Fprintf(h, "|%d", info.Size())
	sum := h.Sum128()
	return Digest{bytes: sum.Bytes()}, info.Size(), nil
}
