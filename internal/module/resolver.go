package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the file extension assumed for extensionless specifiers.
const Ext = ".tn"

// ResolveError reports a specifier that maps to no module.
type ResolveError struct {
	Spec string
	From string
}

func (e *ResolveError) Error() string {
	from := e.From
	if from == "" {
		from = "<top level>"
	}
	return fmt.Sprintf("cannot resolve module %q from %s", e.Spec, from)
}

// Resolver is the built-in filesystem resolver. Keys it produces are
// absolute file paths.
type Resolver struct {
	Paths []string
}

func NewResolver(paths []string) *Resolver {
	return &Resolver{Paths: paths}
}

func isPathSpec(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || filepath.IsAbs(spec)
}

func addExt(p string) string {
	if filepath.Ext(p) == "" {
		return p + Ext
	}
	return p
}

// Applicable reports whether the filesystem resolver handles spec: it is
// a relative or absolute path, or it names a file under one of the module
// paths.
func (r *Resolver) Applicable(referrer, spec string) bool {
	if isPathSpec(spec) {
		return true
	}
	_, ok := r.search(spec)
	return ok
}

// Resolve maps spec, imported from the module keyed referrer, to an
// absolute file path. Relative specifiers resolve against the referrer's
// directory, or the working directory at top level.
func (r *Resolver) Resolve(referrer, spec string) (string, error) {
	if spec == "" {
		return "", &ResolveError{Spec: spec, From: referrer}
	}
	if isPathSpec(spec) {
		p := spec
		if !filepath.IsAbs(p) {
			base := "."
			if referrer != "" && filepath.IsAbs(referrer) {
				base = filepath.Dir(referrer)
			}
			p = filepath.Join(base, p)
		}
		p, err := filepath.Abs(addExt(p))
		if err != nil {
			return "", err
		}
		if ok, err := exists(p); err != nil {
			return "", err
		} else if !ok {
			return "", &ResolveError{Spec: spec, From: referrer}
		}
		return p, nil
	}
	if p, ok := r.search(spec); ok {
		return p, nil
	}
	return "", &ResolveError{Spec: spec, From: referrer}
}

func (r *Resolver) search(spec string) (string, bool) {
	for _, root := range r.Paths {
		p := filepath.Join(root, addExt(spec))
		if ok, _ := exists(p); ok {
			p, _ = filepath.Abs(p)
			return p, true
		}
	}
	return "", false
}

// Fetch reads the source of a key produced by Resolve.
func (r *Resolver) Fetch(key string) (string, error) {
	if !filepath.IsAbs(key) {
		return "", fmt.Errorf("module %q is not a file path", key)
	}
	src, err := os.ReadFile(key)
	if err != nil {
		return "", err
	}
	return string(src), nil
}

// Owns reports whether key names an existing file the resolver can fetch.
func (r *Resolver) Owns(key string) bool {
	if !filepath.IsAbs(key) {
		return false
	}
	ok, _ := exists(key)
	return ok
}

func exists(p string) (bool, error) {
	st, err := os.Stat(p)
	if err == nil {
		return !st.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// File returns the absolute path of name when it is an existing file,
// relative names being taken from the working directory.
func (r *Resolver) File(name string) (string, bool) {
	p, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	if ok, _ := exists(p); !ok {
		return "", false
	}
	return p, true
}
