package vecplot

import (
	"context"
	"encoding/json"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

// HttpServer serves a single chart to any number of viewers and keeps track
// of how many of them are still open.
type HttpServer struct {
	chart    *Chart
	metadata Metadata
	mux      *http.ServeMux
	server   *http.Server
	logger   logrus.FieldLogger

	// Encoded METADATA and DATA messages, sent to every new viewer.
	greeting [][]byte

	mutex   sync.Mutex
	viewers int

	// Receives a value whenever the number of viewers drops to zero.
	viewersGone chan struct{}

	// Closed when the server starts shutting down, so open viewers are told
	// before their connection goes away. Guarded by mutex together with
	// shuttingDown so handlers.Add never races handlers.Wait.
	done         chan struct{}
	shuttingDown bool
	handlers     sync.WaitGroup
}

func NewHttpServer(chart *Chart, metadata Metadata) (*HttpServer, error) {
	s := &HttpServer{
		chart:       chart,
		metadata:    metadata,
		mux:         http.NewServeMux(),
		logger:      logrus.WithFields(logrus.Fields{"tag": "HttpServer", "session": metadata.SessionID}),
		viewersGone: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	metadataMsg, err := EncodeWSMessage(WSMessage{
		Header:  EnvelopeHeader{Type: MessageTypeMetadata},
		Payload: metadata,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode metadata message")
	}

	dataMsg, err := EncodeWSMessage(WSMessage{
		Header:  EnvelopeHeader{Type: MessageTypeData},
		Payload: DataMessage{X: chart.X, Y: chart.Y},
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode data message")
	}

	s.greeting = [][]byte{metadataMsg, dataMsg}

	subFS, err := fs.Sub(webuiFiles, "webui")
	if err != nil {
		return nil, errors.Wrap(err, "cannot open embedded web ui")
	}

	s.mux.Handle("/", http.FileServer(http.FS(subFS)))
	s.mux.HandleFunc("/chart.svg", s.handleChart)
	s.mux.HandleFunc("/metadata", s.handleMetadata)
	s.mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *HttpServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	if !s.beginHandler() {
		http.Error(w, "renderer is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.handlers.Done()

	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	s.viewerJoined()
	defer s.viewerLeft()

	// The viewer never sends anything. CloseRead cancels ctx once the viewer
	// goes away, which is how a closed window is noticed.
	ctx := c.CloseRead(req.Context())

	for _, msg := range s.greeting {
		if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
			s.logger.WithError(err).Warn("websocket write failed and closed")
			return
		}
	}

	select {
	case <-ctx.Done():
		s.logger.Info("viewer closed")
		c.Close(websocket.StatusNormalClosure, "")
	case <-s.done:
		s.sendStreamEnd(ctx, c)
		c.Close(websocket.StatusGoingAway, "renderer exited")
	}
}

func (s *HttpServer) sendStreamEnd(ctx context.Context, c *websocket.Conn) {
	msg, err := EncodeWSMessage(WSMessage{
		Header:  EnvelopeHeader{Type: MessageTypeStreamEnd},
		Payload: StreamEndMessage{Msg: "renderer exited"},
	})
	if err != nil {
		s.logger.WithError(err).Error("cannot encode stream end message")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageBinary, msg); err != nil {
		s.logger.WithError(err).Debug("failed to send stream end")
	}
}

func (s *HttpServer) handleChart(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(s.chart.SVG)
}

func (s *HttpServer) handleMetadata(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(s.metadata)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
	}
}

// Registers a websocket handler, unless Shutdown has started.
func (s *HttpServer) beginHandler() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.shuttingDown {
		return false
	}

	s.handlers.Add(1)
	return true
}

func (s *HttpServer) viewerJoined() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.viewers++
	s.logger.WithField("viewers", s.viewers).Info("viewer connected")
}

func (s *HttpServer) viewerLeft() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.viewers--
	s.logger.WithField("viewers", s.viewers).Debug("viewer disconnected")

	if s.viewers == 0 {
		select {
		case s.viewersGone <- struct{}{}:
		default:
		}
	}
}

func (s *HttpServer) activeViewers() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.viewers
}

// WaitViewersGone blocks until every viewer that connected has closed and none
// reconnected within grace, or until ctx is done. It waits forever if no
// viewer ever connects.
func (s *HttpServer) WaitViewersGone(ctx context.Context, grace time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.viewersGone:
		}

		// A page reload closes the socket and opens a new one right away.
		timer := time.NewTimer(grace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if s.activeViewers() == 0 {
			return
		}
	}
}

// Serve blocks until Shutdown is called. It returns nil after a shutdown.
func (s *HttpServer) Serve(listener net.Listener) error {
	s.logger.Infof("starting HTTP server at http://%s", listener.Addr())
	err := s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown tells open viewers the renderer is going away, then stops the
// server. Websocket handlers are hijacked connections which http.Server does
// not wait for, so they are waited on here.
func (s *HttpServer) Shutdown(ctx context.Context) error {
	s.mutex.Lock()
	if !s.shuttingDown {
		s.shuttingDown = true
		close(s.done)
	}
	s.mutex.Unlock()

	err := s.server.Shutdown(ctx)

	handlersDone := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(handlersDone)
	}()

	select {
	case <-handlersDone:
	case <-ctx.Done():
		s.logger.Warn("timed out waiting for viewers to disconnect")
	}

	return err
}
