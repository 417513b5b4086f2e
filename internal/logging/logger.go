package logging

import (
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/crazy-max/safezip/pkg/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sirupsen/logrus"
)

// Options holds logging options
type Options struct {
	LogLevel   string
	LogJSON    bool
	LogCaller  bool
	LogNoColor bool
}

// Configure configures logger. Logs go to stderr so that entry content
// written to stdout stays clean.
func Configure(cli config.Cli) {
	if err := configure(os.Stderr, Options{
		LogLevel:   cli.LogLevel,
		LogJSON:    cli.LogJSON,
		LogCaller:  cli.LogCaller,
		LogNoColor: cli.LogNoColor,
	}); err != nil {
		log.Fatal().Err(err).Msgf("Unknown log level")
	}
}

func configure(out io.Writer, opts Options) error {
	var w io.Writer

	// Adds support for NO_COLOR. More info https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	if !opts.LogJSON {
		w = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor || opts.LogNoColor,
			TimeFormat: time.RFC1123,
		}
	} else {
		w = out
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	ctx := zerolog.New(w).With().Timestamp()
	if opts.LogCaller {
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger()

	logLevel, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "cannot parse log level %q", opts.LogLevel)
	}
	zerolog.SetGlobalLevel(logLevel)

	logrusLevel, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "cannot parse log level %q", opts.LogLevel)
	}
	logrus.SetLevel(logrusLevel)
	logrus.SetFormatter(new(LogrusFormatter))

	// the archive engine reports through the standard logger
	stdlog.SetFlags(0)
	stdlog.SetOutput(logrus.StandardLogger().WriterLevel(logrus.WarnLevel))

	return nil
}
