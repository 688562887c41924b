package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spigell/interviewer/internal/interview"
)

const writeTimeout = 10 * time.Second

// wsChannel adapts a WebSocket connection to interview.Channel. Every
// transport error is reported as interview.ErrChannelClosed because gorilla
// connections are unusable after a failed read or write.
type wsChannel struct {
	conn          *websocket.Conn
	answerTimeout time.Duration

	closeOnce sync.Once
}

func newWSChannel(conn *websocket.Conn, answerTimeout time.Duration, maxFrame int64) *wsChannel {
	if maxFrame > 0 {
		conn.SetReadLimit(maxFrame)
	}
	return &wsChannel{conn: conn, answerTimeout: answerTimeout}
}

func (c *wsChannel) Send(ctx context.Context, msg interview.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", interview.ErrChannelClosed, err)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: write: %v", interview.ErrChannelClosed, err)
	}
	return nil
}

// Receive waits for the next frame. Cancelling ctx closes the connection to
// unblock the read.
func (c *wsChannel) Receive(ctx context.Context) ([]byte, error) {
	if c.answerTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.answerTimeout))
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", interview.ErrChannelClosed, err)
	}
	if msgType != websocket.BinaryMessage {
		return nil, interview.ErrUnexpectedFrame
	}
	return data, nil
}

func (c *wsChannel) Close() {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
	})
}
