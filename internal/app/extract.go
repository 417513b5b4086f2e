package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crazy-max/safezip/pkg/config"
	"github.com/crazy-max/safezip/pkg/zipfile"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func (c *SafeZip) extract(cmd config.ExtractCmd) error {
	dest, err := destination(cmd.Dest)
	if err != nil {
		return err
	}

	logger := log.With().Str("archive", cmd.Archive).Logger()
	zf, err := zipfile.Open(c.ctx, cmd.Archive, zipfile.Options{Logger: logger})
	if err != nil {
		return errors.Wrapf(err, "cannot open archive %q", cmd.Archive)
	}
	defer zf.Close()

	logger.Info().Msgf("Extracting %s to %s", cmd.Name, dest)
	return zf.Extract(c.ctx, cmd.Name, dest, cmd.Password)
}

func (c *SafeZip) extractAll(cmd config.ExtractAllCmd) error {
	if cmd.RmDest && cmd.Dest == "" {
		return errors.New("--rm-dest requires --dest")
	}
	dest, err := destination(cmd.Dest)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dest); err == nil && cmd.RmDest {
		if err := os.RemoveAll(dest); err != nil {
			return errors.Wrapf(err, "failed to remove destination folder %q", dest)
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create destination folder %q", dest)
	}

	var folders []string
	if !cmd.Wrap && len(cmd.Archives) > 1 {
		folders = archiveFolders(cmd.Archives)
	}

	// one handle per archive, never shared between goroutines
	eg, ctx := errgroup.WithContext(c.ctx)
	for i, filename := range cmd.Archives {
		eg.Go(func() error {
			adest := dest
			if folders != nil {
				adest = filepath.Join(dest, folders[i])
			}
			logger := log.With().Str("archive", filename).Logger()

			zf, err := zipfile.Open(ctx, filename, zipfile.Options{Logger: logger})
			if err != nil {
				return errors.Wrapf(err, "cannot open archive %q", filename)
			}
			defer zf.Close()

			logger.Info().Msgf("Extracting archive to %s", adest)
			return zf.ExtractAll(ctx, adest, cmd.Includes, cmd.Password)
		})
	}

	return eg.Wait()
}

// stem returns the archive file name without its extensions.
func stem(filename string) string {
	name := filepath.Base(filename)
	if i := strings.Index(name[1:], "."); i >= 0 {
		return name[:i+1]
	}
	return name
}

// archiveFolders returns one distinct folder name per archive. The stem is
// used unless another archive shares it, then the full base name, then the
// base name suffixed with the archive position.
func archiveFolders(filenames []string) []string {
	stems := make(map[string]int, len(filenames))
	for _, filename := range filenames {
		stems[stem(filename)]++
	}

	folders := make([]string, len(filenames))
	used := make(map[string]bool, len(filenames))
	for i, filename := range filenames {
		folder := stem(filename)
		if stems[folder] > 1 {
			folder = filepath.Base(filename)
		}
		for n, name := i+1, folder; used[folder]; n++ {
			folder = fmt.Sprintf("%s-%d", name, n)
		}
		used[folder] = true
		folders[i] = folder
	}
	return folders
}
