// Package notify pushes a build-completion event to a Socket.IO
// endpoint, so dashboards watching a book can refresh as soon as new
// artifacts land. Notification is best-effort from the caller's point
// of view: the build has already succeeded when Send runs.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/chartbook/internal/ctxlog"
)

// EventName is the Socket.IO event emitted on build completion.
const EventName = "build_complete"

// DefaultTimeout bounds the connect-and-emit round trip.
const DefaultTimeout = 10 * time.Second

// Summary is the payload emitted with a build event.
type Summary struct {
	Book      string `json:"book"`
	Generated int    `json:"generated"`
	Unchanged int    `json:"unchanged"`
	Removed   int    `json:"removed"`
}

// Client emits build events to a single Socket.IO endpoint.
type Client struct {
	url     string
	timeout time.Duration
}

// NewClient returns a client for the given endpoint URL. The URL path
// selects the Socket.IO mount point; the fragment, if any, selects the
// namespace.
func NewClient(rawURL string) *Client {
	return &Client{url: rawURL, timeout: DefaultTimeout}
}

// Send connects, emits the build event and waits for the server's
// acknowledgement or the timeout, whichever comes first.
func (c *Client) Send(ctx context.Context, summary Summary) error {
	logger := ctxlog.FromContext(ctx).With("url", c.url, "event", EventName)
	logger.Debug("Sending build notification.")

	parsedURL, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("failed to parse notify URL: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := parsedURL.Fragment

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting notify client.")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected, emitting build event.", "sid", io.Id())
		io.Emit(EventName, summary)
		done <- nil
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		if err, ok := errs[0].(error); ok {
			done <- err
			return
		}
		done <- fmt.Errorf("connect error: %v", errs[0])
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("timed out after connecting to %s", c.url)
		}
		return fmt.Errorf("timed out connecting to %s", c.url)
	case err := <-done:
		if err != nil {
			return fmt.Errorf("build notification failed: %w", err)
		}
		logger.Info("Build notification sent.")
		return nil
	}
}
