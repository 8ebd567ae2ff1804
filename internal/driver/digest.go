package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

// Digest computes a stable SHA-256 digest over a module's frozen
// bindings, keyed by qualified name in sorted order so the result
// does not depend on the module's declaration order (spec.md §3.2).
//
// Grounded on internal/manifest's calculateSchemaDigest: a canonical
// string built from the data under hash, then sha256 + hex-encoded,
// prefixed the same "sha256:" way.
func Digest(mod ident.ModuleName, bindings map[string]string) string {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(mod))
	for _, k := range keys {
		b.WriteByte('\n')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(bindings[k])
	}
	hash := sha256.Sum256([]byte(b.String()))
	return "sha256:" + hex.EncodeToString(hash[:])
}
