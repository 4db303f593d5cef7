package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/ravescovi/codegraph/internal/store"
)

// idDigestLength is the number of hex characters kept from the identity
// digest: 64 bits, collision-resistant within a project.
const idDigestLength = 16

// snippetLimit caps stored code snippets.
const snippetLimit = 500

// NodeID derives a node's identity from (file path, kind, name, start
// line). It is a pure function of its inputs, so re-indexing unchanged
// content reproduces the same ids.
func NodeID(kind store.NodeKind, filePath, name string, startLine int) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(startLine)))
	sum := h.Sum(nil)
	return string(kind) + ":" + hex.EncodeToString(sum)[:idDigestLength]
}

// CodeHash digests a node's full source text.
func CodeHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Snippet returns the first snippetLimit characters of a node's source.
func Snippet(text string) string {
	if len(text) <= snippetLimit {
		return text
	}
	return text[:snippetLimit]
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
