package fixstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WSFixStream is the primary FixStream transport: a websocket connection to
// a vehicles_info feed, the same message-at-a-time pull model the teacher's
// SSE handler used on the server side of its realtime path.
type WSFixStream struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	conn   *websocket.Conn
}

// NewWSFixStream builds a FixStream dialing url on Connect.
func NewWSFixStream(url string, header http.Header) *WSFixStream {
	return &WSFixStream{url: url, header: header, dialer: websocket.DefaultDialer}
}

// Connect dials the websocket endpoint.
func (w *WSFixStream) Connect(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrTransportFailure, w.url, err)
	}
	w.conn = conn
	return nil
}

// Recv blocks for the next text/binary message.
func (w *WSFixStream) Recv(ctx context.Context) ([]byte, error) {
	if w.conn == nil {
		return nil, fmt.Errorf("%w: not connected", ErrTransportFailure)
	}
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		_, data, err := w.conn.ReadMessage()
		ch <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransportFailure, res.err)
		}
		return res.data, nil
	}
}

// Close closes the underlying websocket connection.
func (w *WSFixStream) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
