package cmd

import (
	"io"
	"strconv"

	"github.com/jimezsa/heyjobs/internal/config"
	"github.com/jimezsa/heyjobs/internal/ui"
	"github.com/rs/zerolog"
)

type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	DataDir    string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
	ColorMode  ui.ColorMode
}

// settings returns the loaded config with paths resolved against the data dir.
func (c *Context) settings() config.Config {
	return c.Config.Resolve(c.DataDir)
}

// ExitError asks the entry point to exit with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}
