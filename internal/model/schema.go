package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SchemaKey renders the parameter schema as a stable string: the ordered
// ⟨name,type⟩ pairs plus the function type. Two configurations may share a
// compiled test runner iff their keys are equal; initial values and expected
// maps do not participate.
func SchemaKey(params []Parameter, functionType string) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(p.Name)
		b.WriteByte(':')
		b.WriteString(string(p.Type))
	}
	b.WriteString("->")
	b.WriteString(functionType)
	return b.String()
}

// SchemaHash is the hex sha256 of SchemaKey, suitable for storing beside a
// compiled artifact.
func SchemaHash(params []Parameter, functionType string) string {
	sum := sha256.Sum256([]byte(SchemaKey(params, functionType)))
	return hex.EncodeToString(sum[:])
}
