package vecplot

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A Display shows a chart and blocks until the user is done with it.
type Display interface {
	Show(ctx context.Context, chart *Chart) error
}

const shutdownTimeout = 2 * time.Second

// BrowserDisplay shows the chart in a browser tab served from a local HTTP
// server. Show returns once every tab showing the chart has been closed, or
// when ctx is canceled.
type BrowserDisplay struct {
	Host string
	Port int

	// How long to wait for a viewer to come back after the last one closed.
	CloseGrace time.Duration

	// Called with the viewer URL once the server is listening. Nil means the
	// URL is only logged.
	OpenBrowser func(url string)

	// Called with the bound listener address, mostly for tests. Optional.
	OnListen func(addr net.Addr)
}

func (d *BrowserDisplay) Show(ctx context.Context, chart *Chart) error {
	sessionID := uuid.NewString()
	logger := logrus.WithFields(logrus.Fields{"tag": "BrowserDisplay", "session": sessionID})

	server, err := NewHttpServer(chart, NewMetadata(chart, sessionID))
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(d.Host, strconv.Itoa(d.Port)))
	if err != nil {
		return errors.Wrap(err, "cannot listen for viewers")
	}

	url := "http://" + listener.Addr().String()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(listener)
	})

	g.Go(func() error {
		server.WaitViewersGone(gctx, d.CloseGrace)
		logger.Debug("shutting down viewer server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if d.OnListen != nil {
		d.OnListen(listener.Addr())
	}

	logger.WithField("url", url).Info("chart is ready, close the browser tab to exit")
	if d.OpenBrowser != nil {
		d.OpenBrowser(url)
	}

	return g.Wait()
}
