// Package safepath confines untrusted archive entry names to a trusted base
// directory.
//
// All checks are lexical: paths are made absolute and cleaned the way the
// host filesystem would resolve them, but nothing is read from disk and
// symbolic links are not followed.
package safepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrPathTraversal is matched by every *PathTraversalError.
var ErrPathTraversal = errors.New("potential directory traversal attempt detected")

// PathTraversalError reports an entry name resolving outside its base
// directory.
type PathTraversalError struct {
	Name string
	Base string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("invalid filename %q: %s", e.Name, ErrPathTraversal.Error())
}

// Is reports whether target is ErrPathTraversal.
func (e *PathTraversalError) Is(target error) bool {
	return target == ErrPathTraversal
}

// WorkingDir returns the current working directory. It is meant to be
// called at the call site to build an explicit base directory.
func WorkingDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "cannot resolve working directory")
	}
	return wd, nil
}

// Resolve joins name to base and returns the absolute, cleaned target.
// Absolute names are taken as is and rooted names are rooted at the
// volume of base. It fails with a *PathTraversalError if
// the target is neither base itself nor a descendant of it.
func Resolve(name, base string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve base directory %q", base)
	}

	var target string
	switch {
	case filepath.IsAbs(name), filepath.VolumeName(name) != "":
		// drive relative names like C:x are kept as is and never match
		// an absolute base
		target = filepath.Clean(name)
	case len(name) > 0 && os.IsPathSeparator(name[0]):
		// rooted without a volume (\evil on windows) is rooted at the
		// volume of base
		target = filepath.Clean(filepath.VolumeName(absBase) + name)
	default:
		target = filepath.Join(absBase, name)
	}

	if !within(absBase, target) {
		return "", &PathTraversalError{Name: name, Base: base}
	}
	return target, nil
}

// Filename returns the last element of the confined target. Directory
// components of name are dropped. An empty string is returned when name
// resolves to base itself.
func Filename(name, base string) (string, error) {
	target, err := Resolve(name, base)
	if err != nil {
		return "", err
	}
	absBase, _ := filepath.Abs(base)
	if target == absBase {
		return "", nil
	}
	return filepath.Base(target), nil
}

// Path returns the confined target relative to base, or "." when name
// resolves to base itself.
func Path(name, base string) (string, error) {
	target, err := Resolve(name, base)
	if err != nil {
		return "", err
	}
	absBase, _ := filepath.Abs(base)
	rel, err := filepath.Rel(absBase, target)
	if err != nil {
		return "", errors.Wrapf(err, "cannot relativize %q", name)
	}
	return rel, nil
}

// within requires a separator right after base so that /base2 is not
// mistaken for a child of /base.
func within(base, target string) bool {
	if target == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}
