// Package resname identifies resources by namespace, type and entry name.
package resname

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
)

// Name is an immutable (namespace, type, name) triple. It is comparable and
// safe to use as a map key.
type Name struct {
	Namespace string
	Type      string
	Name      string
}

// New builds a Name from its parts.
func New(namespace, typ, name string) Name {
	return Name{Namespace: namespace, Type: typ, Name: name}
}

// Parse reads the canonical "namespace:type/name" form. When the namespace is
// omitted ("type/name") defaultNamespace is used.
func Parse(s, defaultNamespace string) (Name, error) {
	ns := defaultNamespace
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		ns, rest = s[:i], s[i+1:]
	}
	typ, name, ok := strings.Cut(rest, "/")
	if !ok || ns == "" || typ == "" || name == "" || strings.ContainsAny(name, ":/") {
		return Name{}, fmt.Errorf("%w: %q", common.ErrInvalidResourceName, s)
	}
	return Name{Namespace: ns, Type: typ, Name: name}, nil
}

// MustParse is Parse for literals in tests and fixtures; it panics on error.
func MustParse(s string) Name {
	n, err := Parse(s, "")
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the canonical "namespace:type/name" form.
func (n Name) String() string {
	return n.Namespace + ":" + n.Type + "/" + n.Name
}

// WithNamespace returns a copy of n in another namespace.
func (n Name) WithNamespace(namespace string) Name {
	n.Namespace = namespace
	return n
}

// IsZero reports whether n is the zero Name.
func (n Name) IsZero() bool {
	return n == Name{}
}

// TypePrefix is the canonical prefix shared by every name of one type in one
// namespace.
func TypePrefix(namespace, typ string) string {
	return namespace + ":" + typ + "/"
}
