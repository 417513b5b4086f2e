package app

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/crazy-max/safezip/pkg/config"
	"github.com/crazy-max/safezip/pkg/safepath"
	"github.com/pkg/errors"
)

// SafeZip represents an active safezip object
type SafeZip struct {
	ctx    context.Context
	cancel context.CancelFunc
	meta   config.Meta
	cli    config.Cli
	out    io.Writer
}

// New creates new safezip instance
func New(meta config.Meta, cli config.Cli) (*SafeZip, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &SafeZip{
		ctx:    ctx,
		cancel: cancel,
		meta:   meta,
		cli:    cli,
		out:    os.Stdout,
	}, nil
}

// Start runs the selected command
func (c *SafeZip) Start(command string) error {
	name, _, _ := strings.Cut(command, " ")
	switch name {
	case "list":
		return c.list(c.cli.List)
	case "cat":
		return c.cat(c.cli.Cat)
	case "extract":
		return c.extract(c.cli.Extract)
	case "extract-all":
		return c.extractAll(c.cli.ExtractAll)
	case "create":
		return c.create(c.cli.Create)
	default:
		return errors.Errorf("unknown command %q", command)
	}
}

// Close cancels running operations
func (c *SafeZip) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// destination resolves an empty destination to the working directory at
// call time.
func destination(dest string) (string, error) {
	if dest != "" {
		return dest, nil
	}
	return safepath.WorkingDir()
}
