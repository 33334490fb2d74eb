package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	OpsFileName    = "scrape-machine.log"
	FaultsFileName = "exceptions.log"
)

// Loggers holds the two sinks a run writes to. Ops carries operational
// progress and is mirrored to the console; Faults keeps warning and error
// detail in a file only.
type Loggers struct {
	Ops    zerolog.Logger
	Faults zerolog.Logger
}

type Options struct {
	Dir     string
	Console io.Writer
	Verbose bool
	NoColor bool
}

// Setup opens the log files under opts.Dir and returns the loggers with a
// function that closes them.
func Setup(opts Options) (Loggers, func() error, error) {
	if opts.Dir == "" {
		return Loggers{}, nil, fmt.Errorf("log dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return Loggers{}, nil, err
	}

	opsFile, err := openAppend(filepath.Join(opts.Dir, OpsFileName))
	if err != nil {
		return Loggers{}, nil, err
	}
	faultsFile, err := openAppend(filepath.Join(opts.Dir, FaultsFileName))
	if err != nil {
		opsFile.Close()
		return Loggers{}, nil, err
	}

	loggers := New(opsFile, faultsFile, opts.Console, opts.Verbose, opts.NoColor)
	closer := func() error {
		err1 := opsFile.Close()
		err2 := faultsFile.Close()
		if err1 != nil {
			return err1
		}
		return err2
	}
	return loggers, closer, nil
}

// New builds loggers over arbitrary writers. console may be nil.
func New(opsOut, faultsOut, console io.Writer, verbose bool, noColor bool) Loggers {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{opsOut}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    noColor,
			TimeFormat: time.Kitchen,
		})
	}

	ops := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	faults := zerolog.New(faultsOut).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	return Loggers{Ops: ops, Faults: faults}
}

// Nop discards everything.
func Nop() Loggers {
	return Loggers{Ops: zerolog.Nop(), Faults: zerolog.Nop()}
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
