package node

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PathSep separates fragments in the dotted string form of a path.
const PathSep = "."

// invalidURIChars matches anything a resolved uri may not contain.
var invalidURIChars = regexp.MustCompile(`[^a-z0-9._*]`)

// Parsed expressions are memoized. Paths are immutable values, so cache hits
// can be handed out freely.
const parseCacheSize = 512

var parseCache *lru.Cache[string, Path]

func init() {
	// error only fires on a non-positive size
	parseCache, _ = lru.New[string, Path](parseCacheSize)
}

// Path addresses one WAMP resource: a sequence of uri fragments, optionally
// anchored to a base path. Fragments of an anchored path are relative to the
// base; the absolute form is the concatenation of the two. Path is an
// immutable value type: all methods return new values.
type Path struct {
	fragments []string
	base      []string
}

// ParsePath builds an absolute path from a dotted expression.
func ParsePath(expr string) (Path, error) {
	if expr == "" {
		return Path{}, &PathError{Expr: expr, Reason: "path must have a value"}
	}
	if cached, ok := parseCache.Get(expr); ok {
		return cached, nil
	}
	p := Path{fragments: strings.Split(expr, PathSep)}
	parseCache.Add(expr, p)
	return p, nil
}

// MustPath is ParsePath, panicking on error. Meant for fixtures and
// declarations whose expressions are literals.
func MustPath(expr string) Path {
	p, err := ParsePath(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// NewPath builds a path from a dotted expression relative to base. A zero
// base yields an absolute path.
func NewPath(expr string, base Path) (Path, error) {
	if expr == "" {
		return Path{}, &PathError{Expr: expr, Reason: "path must have a value"}
	}
	if base.IsZero() {
		return ParsePath(expr)
	}
	return Path{
		fragments: strings.Split(expr, PathSep),
		base:      base.absolute(),
	}, nil
}

// AsBase returns a path anchored at itself: zero relative fragments over this
// path's absolute form. Session root paths are built this way so that later
// joins stay resolvable against the root.
func (p Path) AsBase() Path {
	return Path{base: p.absolute()}
}

// IsZero reports whether p is the zero value, which addresses nothing.
func (p Path) IsZero() bool {
	return len(p.fragments) == 0 && len(p.base) == 0
}

// String returns the absolute dotted form.
func (p Path) String() string {
	return strings.Join(p.absolute(), PathSep)
}

// Fragments returns a copy of the absolute fragments.
func (p Path) Fragments() []string {
	out := make([]string, len(p.fragments)+len(p.base))
	copy(out, p.base)
	copy(out[len(p.base):], p.fragments)
	return out
}

// Relative returns a copy of the fragments below the base, or all fragments
// for an unanchored path.
func (p Path) Relative() []string {
	out := make([]string, len(p.fragments))
	copy(out, p.fragments)
	return out
}

// Base returns the base path and whether one is set.
func (p Path) Base() (Path, bool) {
	if p.base == nil {
		return Path{}, false
	}
	frags := make([]string, len(p.base))
	copy(frags, p.base)
	return Path{fragments: frags}, true
}

// Absolute returns the flattened, unanchored form of p.
func (p Path) Absolute() Path {
	return Path{fragments: p.absolute()}
}

// Len returns the number of absolute fragments.
func (p Path) Len() int {
	return len(p.fragments) + len(p.base)
}

// Last returns the final fragment, the node name part of the path.
func (p Path) Last() string {
	if len(p.fragments) > 0 {
		return p.fragments[len(p.fragments)-1]
	}
	if len(p.base) > 0 {
		return p.base[len(p.base)-1]
	}
	return ""
}

// Equal reports whether two paths have the same absolute form.
func (p Path) Equal(other Path) bool {
	a, b := p.absolute(), other.absolute()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Join extends the path with more fragments, keeping the base. Dotted parts
// are split, so p.Join("a.b") adds two fragments.
func (p Path) Join(parts ...string) Path {
	extra := make([]string, 0, len(parts))
	for _, part := range parts {
		extra = append(extra, strings.Split(part, PathSep)...)
	}
	frags := make([]string, 0, len(p.fragments)+len(extra))
	frags = append(frags, p.fragments...)
	frags = append(frags, extra...)
	return Path{fragments: frags, base: p.base}
}

// JoinPath concatenates two paths. At most one of the two may carry a base,
// which the result keeps.
func (p Path) JoinPath(other Path) (Path, error) {
	if p.base != nil && other.base != nil {
		return Path{}, &PathError{
			Expr:   other.String(),
			Reason: "cannot add two paths with a base path",
		}
	}
	frags := make([]string, 0, len(p.fragments)+len(other.fragments))
	frags = append(frags, p.fragments...)
	frags = append(frags, other.fragments...)
	base := p.base
	if base == nil {
		base = other.base
	}
	return Path{fragments: frags, base: base}, nil
}

// Resolve turns a potentially relative expression into an absolute path.
//
// An expression starting with '@' is resolved against the base: "@a.b" maps
// to base + "a.b", a lone "@" to the base itself. Other expressions are first
// offered to the context's path resolvers, then taken as absolute; absolute
// results must be valid lowercase uris.
func (p Path) Resolve(expr string, nctx *Context) (Path, error) {
	if expr == "" {
		return Path{}, &PathError{Expr: expr, Reason: "path must have a value"}
	}
	frags := strings.Split(expr, PathSep)

	if strings.HasPrefix(frags[0], "@") {
		if p.base == nil {
			return Path{}, &PathError{
				Expr:   expr,
				Reason: "cannot do base resolution if the path hasn't one",
			}
		}
		frags[0] = frags[0][1:]
		if frags[0] == "" {
			frags = frags[1:]
		}
		out := make([]string, 0, len(p.base)+len(frags))
		out = append(out, p.base...)
		out = append(out, frags...)
		return Path{fragments: out}, nil
	}

	if nctx != nil {
		for _, resolver := range nctx.PathResolvers() {
			if out, ok := resolver(p, expr, nctx); ok {
				return out.Absolute(), nil
			}
		}
	}

	if invalidURIChars.MatchString(strings.Join(frags, PathSep)) {
		return Path{}, &PathError{
			Expr:   expr,
			Reason: "failed resolution (invalid uri characters)",
		}
	}
	return Path{fragments: frags}, nil
}

// absolute returns a fresh slice of the full fragments.
func (p Path) absolute() []string {
	out := make([]string, len(p.base)+len(p.fragments))
	copy(out, p.base)
	copy(out[len(p.base):], p.fragments)
	return out
}
