// Package transport carries the scoutlink protocol over a WebSocket link.
// Client is the UI side of the link, Server the host side.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/protocol"
)

var (
	// ErrHostUnreachable reports that the link to the host is down.
	ErrHostUnreachable = errors.New("host unreachable")
	// ErrClosed reports use of a link after Close.
	ErrClosed = errors.New("link closed")
)

// HostError is an error reported by the host in reply to a command.
type HostError struct {
	Command string
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host rejected %s: %s", e.Command, e.Message)
}

const (
	defaultUserAgent = "scoutlink/0.1"
	writeTimeout     = 5 * time.Second
)

// Client is the UI-side end of the host link. Host events are emitted into
// the inbound emitter; Emit and Invoke send to the host.
type Client struct {
	conn    *websocket.Conn
	inbound channel.Emitter

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan protocol.Frame
	err     error
	done    chan struct{}
}

var _ channel.Emitter = (*Client)(nil)

// Dial connects to the host at rawURL and starts reading host frames.
func Dial(ctx context.Context, rawURL string, inbound channel.Emitter) (*Client, error) {
	header := http.Header{}
	header.Set("User-Agent", defaultUserAgent)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrHostUnreachable, rawURL, err)
	}
	c := &Client{
		conn:    conn,
		inbound: inbound,
		pending: make(map[string]chan protocol.Frame),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Emit sends a fire-and-forget event to the host. Failures are logged; the
// contract offers no delivery guarantee.
func (c *Client) Emit(name string, payload protocol.Payload) {
	if err := c.send(protocol.EventFrame(name, payload)); err != nil {
		logging.Error(fmt.Errorf("emit %s: %w", name, err))
	}
}

// Invoke sends a command and waits for its reply, decoding the result into
// dest when dest is non-nil.
func (c *Client) Invoke(ctx context.Context, name string, args any, dest any) error {
	id := uuid.NewString()
	frame, err := protocol.InvokeFrame(id, name, args)
	if err != nil {
		return err
	}

	reply := make(chan protocol.Frame, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(frame); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", name, ctx.Err())
	case <-c.done:
		return c.Err()
	case f := <-reply:
		if f.Error != "" {
			return &HostError{Command: name, Message: f.Error}
		}
		return protocol.DecodeValue(f.Result, dest)
	}
}

// Done is closed once the link is down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the link went down, or nil while it is up.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the link down. Pending invocations fail with ErrClosed.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.fail(ErrClosed)
	return c.conn.Close()
}

func (c *Client) send(f protocol.Frame) error {
	if err := c.Err(); err != nil {
		return err
	}
	data, err := protocol.Encode(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.fail(fmt.Errorf("%w: %v", ErrHostUnreachable, err))
		// Unblocks readLoop so the loss reaches the inbound emitter.
		_ = c.conn.Close()
		return c.Err()
	}
	events.Link.Send(f.Kind, f.Name, f.ID)
	return nil
}

// readLoop is the only producer of host events on the inbound emitter, so
// the link-down event it emits on exit follows every event already read.
func (c *Client) readLoop() {
	defer func() {
		if c.inbound != nil {
			c.inbound.Emit(protocol.EventLinkDown, protocol.Text(c.Err().Error()))
		}
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("%w: %v", ErrHostUnreachable, err))
			return
		}
		frame, err := protocol.Decode(data)
		if err != nil {
			logging.Error(err)
			continue
		}
		events.Link.Receive(frame.Kind, frame.Name, frame.ID)
		switch frame.Kind {
		case protocol.KindEvent:
			if c.inbound != nil {
				c.inbound.Emit(frame.Name, *frame.Payload)
			}
		case protocol.KindReply:
			c.mu.Lock()
			reply, ok := c.pending[frame.ID]
			c.mu.Unlock()
			if ok {
				select {
				case reply <- frame:
				default:
				}
			}
		default:
			logging.Errorf("unexpected %s frame from host", frame.Kind)
		}
	}
}

// fail records the first link error and releases waiters.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	close(c.done)
	events.Link.Closed(err)
}
