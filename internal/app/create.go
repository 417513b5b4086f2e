package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/crazy-max/safezip/pkg/config"
	"github.com/crazy-max/safezip/pkg/zipfile"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func (c *SafeZip) create(cmd config.CreateCmd) error {
	compression := zipfile.Deflated
	if cmd.Store {
		compression = zipfile.Stored
	}

	zf, err := zipfile.Open(c.ctx, cmd.Archive, zipfile.Options{
		Mode:        zipfile.ModeWrite,
		Compression: compression,
	})
	if err != nil {
		return err
	}

	for _, filename := range cmd.Files {
		data, err := os.ReadFile(filename)
		if err != nil {
			_ = zf.Close()
			return errors.Wrapf(err, "cannot read %q", filename)
		}
		name := entryName(filename)
		log.Debug().Msgf("Adding %s", name)
		if err = zf.Write(name, data); err != nil {
			_ = zf.Close()
			return err
		}
	}

	return zf.Commit(c.ctx)
}

// entryName keeps relative paths as given and falls back to the base name
// for paths that are absolute or climb above the working directory.
func entryName(filename string) string {
	name := filepath.Clean(filename)
	if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		name = filepath.Base(name)
	}
	return filepath.ToSlash(name)
}
