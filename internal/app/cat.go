package app

import (
	"github.com/crazy-max/safezip/pkg/config"
	"github.com/crazy-max/safezip/pkg/zipfile"
	"github.com/pkg/errors"
)

func (c *SafeZip) cat(cmd config.CatCmd) error {
	zf, err := zipfile.Open(c.ctx, cmd.Archive, zipfile.Options{})
	if err != nil {
		return errors.Wrapf(err, "cannot open archive %q", cmd.Archive)
	}
	defer zf.Close()

	data, err := zf.Read(c.ctx, cmd.Name, cmd.Password)
	if err != nil {
		return err
	}
	_, err = c.out.Write(data)
	return err
}
