package zipfile

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("not implemented")
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrWrongMode is returned when an operation does not apply to the mode
	// the archive was opened with.
	ErrWrongMode = errors.New("operation not allowed in this mode")
	// ErrClosed is returned on a closed archive.
	ErrClosed = errors.New("archive is closed")
)

// UnsupportedError reports an attribute or operation the archive engine
// cannot provide.
type UnsupportedError struct {
	Op string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, ErrUnsupported.Error())
}

// Is reports whether target is ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// ConfigurationError reports a per-entry setting conflicting with the
// archive settings.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
