// Package gitlib is a thin layer over libgit2 that walks a repository history and
// reports the files each commit changed.
package gitlib

import (
	"encoding/hex"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// HashSize is the size of a SHA-1 object id in bytes.
const HashSize = 20

// Hash is a git object id.
type Hash [HashSize]byte

// ParseHash decodes a full hex object id.
func ParseHash(hexStr string) (Hash, error) {
	var hash Hash

	if hex.DecodedLen(len(hexStr)) != HashSize {
		return hash, fmt.Errorf("parse hash %q: want %d hex digits", hexStr, HashSize*2)
	}

	_, err := hex.Decode(hash[:], []byte(hexStr))
	if err != nil {
		return hash, fmt.Errorf("parse hash %q: %w", hexStr, err)
	}

	return hash, nil
}

// HashFromOid converts a libgit2 Oid to Hash. A nil oid yields the zero hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var hash Hash

	if oid != nil {
		copy(hash[:], oid[:])
	}

	return hash
}

// String returns the hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ToOid converts the hash back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}
