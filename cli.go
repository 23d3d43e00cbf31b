package vecplot

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jessevdk/go-flags"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Options are the command line options shared by both binaries. Without any
// of them the binaries read stdin, open a window and exit when it is closed.
type Options struct {
	Host       string        `long:"host" default:"127.0.0.1" description:"host the chart viewer listens on"`
	Port       int           `short:"p" long:"port" default:"0" description:"port the chart viewer listens on (0 picks a free port)"`
	NoBrowser  bool          `long:"no-browser" description:"do not launch a browser, only print the viewer URL"`
	CloseGrace time.Duration `long:"close-grace" default:"2s" description:"how long to wait for a reload after the last viewer closed"`
	Verbose    bool          `short:"v" long:"verbose" description:"enable debug logging"`
}

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// CLI wires stdio and the display into a ChartRenderer.
type CLI struct {
	Variant Variant
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer

	// Builds the display from the parsed options. Defaults to a
	// BrowserDisplay.
	NewDisplay func(Options) Display
}

func NewCLI(variant Variant) *CLI {
	return &CLI{
		Variant: variant,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func browserDisplay(opts Options) Display {
	d := &BrowserDisplay{
		Host:        opts.Host,
		Port:        opts.Port,
		CloseGrace:  opts.CloseGrace,
		OpenBrowser: OpenBrowser,
	}

	if opts.NoBrowser {
		d.OpenBrowser = nil
	}

	return d
}

// Run parses args and renders stdin. It returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(c.Stdout, err)
			return ExitOK
		}

		fmt.Fprintln(c.Stderr, err)
		return ExitUsage
	}

	logrus.SetOutput(c.Stderr)
	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logger := logrus.WithField("tag", "CLI")

	if f, ok := c.Stdin.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		logger.Info("reading plot request from stdin, finish with Ctrl-D")
	}

	newDisplay := c.NewDisplay
	if newDisplay == nil {
		newDisplay = browserDisplay
	}

	renderer := NewChartRenderer(c.Variant, newDisplay(opts))
	if err := renderer.Run(ctx, c.Stdin, c.Stdout); err != nil {
		logger.WithError(err).Debug("failed to render chart")
		fmt.Fprintf(c.Stderr, "%+v\n", err)
		return ExitError
	}

	return ExitOK
}
