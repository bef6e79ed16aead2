// Package primitive maps primitive kinds to constructors of canonical unit-scale base meshes.
package primitive

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a primitive kind is neither built in nor registered.
var ErrUnknownKind = errors.New("unknown primitive kind")

// ErrKindExists is returned when registering a kind that is already known.
var ErrKindExists = errors.New("primitive kind already registered")

// Kind identifies a primitive shape.
type Kind int

const (
	KindSphere Kind = iota
	KindBox
	KindCylinder
	KindCone
	KindTorus
	KindTorusKnot
	KindIcosahedron
	KindDodecahedron

	kindBuiltinEnd
)

// KindCustom is the first value available to kinds added with Registry.Register.
const KindCustom Kind = 1000

// BuiltinKinds returns every built-in kind in declaration order.
//
// Returns:
//   - []Kind: the built-in kinds
func BuiltinKinds() []Kind {
	kinds := make([]Kind, 0, int(kindBuiltinEnd))
	for k := KindSphere; k < kindBuiltinEnd; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Builtin reports whether k is one of the built-in kinds.
func (k Kind) Builtin() bool {
	return k >= KindSphere && k < kindBuiltinEnd
}

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindCone:
		return "cone"
	case KindTorus:
		return "torus"
	case KindTorusKnot:
		return "torusknot"
	case KindIcosahedron:
		return "icosahedron"
	case KindDodecahedron:
		return "dodecahedron"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a built-in kind from its name. Matching ignores case, spaces, '-' and '_',
// so "Torus Knot", "torus_knot" and "TorusKnot" are all accepted.
//
// Parameters:
//   - s: the kind name
//
// Returns:
//   - Kind: the parsed kind
//   - error: ErrUnknownKind if s names no built-in kind
func ParseKind(s string) (Kind, error) {
	name := normalize(s)
	for _, k := range BuiltinKinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Builtin() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func normalize(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}
