package app

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/crazy-max/safezip/pkg/config"
	"github.com/crazy-max/safezip/pkg/zipfile"
	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func (c *SafeZip) list(cmd config.ListCmd) error {
	zf, err := zipfile.Open(c.ctx, cmd.Archive, zipfile.Options{
		Password: cmd.Password,
		Logger:   log.With().Str("archive", cmd.Archive).Logger(),
	})
	if err != nil {
		return errors.Wrapf(err, "cannot open archive %q", cmd.Archive)
	}
	defer zf.Close()

	entries, err := zf.Entries(c.ctx)
	if err != nil {
		return errors.Wrap(err, "cannot list entries")
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		line := fmt.Sprintf("%s\t%s\t%s", e.ModTime().Local().Format(time.DateTime), humanize.Bytes(uint64(e.Size())), e.Name())
		if cmd.Digest {
			if e.IsDir() {
				line += "\t-"
			} else {
				dgst, err := c.digest(zf, e.Name())
				if err != nil {
					return err
				}
				line += "\t" + dgst.String()
			}
		}
		if _, err = fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func (c *SafeZip) digest(zf *zipfile.ZipFile, name string) (digest.Digest, error) {
	rc, err := zf.OpenReader(c.ctx, name, "")
	if err != nil {
		return "", errors.Wrapf(err, "cannot read entry %s", name)
	}
	defer rc.Close()
	return digest.FromReader(rc)
}
