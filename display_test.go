package vecplot

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type showResult struct {
	err error
}

func startShow(t *testing.T, ctx context.Context, d *BrowserDisplay) (<-chan net.Addr, <-chan showResult) {
	t.Helper()

	addrs := make(chan net.Addr, 1)
	d.OnListen = func(addr net.Addr) { addrs <- addr }

	chart := testChart(t)
	results := make(chan showResult, 1)
	go func() {
		results <- showResult{err: d.Show(ctx, chart)}
	}()

	return addrs, results
}

func TestBrowserDisplay_ReturnsWhenViewerCloses(t *testing.T) {
	var opened []string
	d := &BrowserDisplay{
		Host:        "127.0.0.1",
		CloseGrace:  10 * time.Millisecond,
		OpenBrowser: func(url string) { opened = append(opened, url) },
	}

	addrs, results := startShow(t, context.Background(), d)

	var addr net.Addr
	select {
	case addr = <-addrs:
	case <-time.After(2 * time.Second):
		t.Fatal("display never started listening")
	}

	c, err := dialWebSocket("http://" + addr.String())
	require.NoError(t, err)
	metadata, _ := readGreeting(t, c)
	assert.NotEmpty(t, metadata.SessionID)

	c.Close(websocket.StatusNormalClosure, "")

	select {
	case res := <-results:
		require.NoError(t, res.err)
	case <-time.After(3 * time.Second):
		t.Fatal("Show did not return after the viewer closed")
	}

	require.Len(t, opened, 1)
	assert.True(t, strings.HasPrefix(opened[0], "http://127.0.0.1:"), opened[0])
}

func TestBrowserDisplay_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &BrowserDisplay{Host: "127.0.0.1", CloseGrace: time.Second}

	addrs, results := startShow(t, ctx, d)

	select {
	case <-addrs:
	case <-time.After(2 * time.Second):
		t.Fatal("display never started listening")
	}

	cancel()

	select {
	case res := <-results:
		require.NoError(t, res.err)
	case <-time.After(3 * time.Second):
		t.Fatal("Show did not return after cancel")
	}
}

func TestBrowserDisplay_ListenError(t *testing.T) {
	d := &BrowserDisplay{Host: "127.0.0.1", Port: -1}
	err := d.Show(context.Background(), testChart(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot listen for viewers")
}
