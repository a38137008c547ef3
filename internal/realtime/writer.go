package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16

	// highWaterMark is the maximum number of unsent bytes buffered for a
	// session before further messages to it are dropped.
	highWaterMark = 16 * 1024
)

// sessionWriter owns all writes to one WebSocket connection. Messages are
// enqueued through TryEnqueue; a full buffer means the caller drops the
// message rather than waiting.
type sessionWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	// pendingBytes counts enqueued-but-unsent bytes against highWaterMark.
	pendingBytes atomic.Int64
}

func newSessionWriter(connection *websocket.Conn, clock clockwork.Clock, onPong func()) *sessionWriter {
	w := &sessionWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	w.updateReadDeadline()
	connection.SetPongHandler(func(string) error {
		w.updateReadDeadline()
		if onPong != nil {
			onPong()
		}
		return nil
	})
	w.wg.Add(1)
	go w.run()
	return w
}

// TryEnqueue attempts to buffer a message for sending. Returns false when the
// session is over the high-water mark or its message buffer is full; the
// message is then dropped for this recipient.
func (w *sessionWriter) TryEnqueue(msg []byte) bool {
	select {
	case <-w.doneChannel:
		return false
	default:
	}
	if w.pendingBytes.Load() >= highWaterMark {
		return false
	}
	select {
	case w.sendChannel <- msg:
		w.pendingBytes.Add(int64(len(msg)))
		return true
	default:
		return false
	}
}

func (w *sessionWriter) run() {
	ticker := w.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer w.wg.Done()

	for {
		select {
		case msg, ok := <-w.sendChannel:
			if !ok {
				return
			}
			w.updateWriteDeadline()
			err := w.connection.WriteMessage(websocket.TextMessage, msg)
			w.pendingBytes.Add(-int64(len(msg)))
			if err != nil {
				return
			}
		case <-ticker.Chan():
			w.updateWriteDeadline()
			if err := w.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-w.doneChannel:
			return
		}
	}
}

func (w *sessionWriter) stop() {
	w.stopOnce.Do(func() {
		close(w.doneChannel)
		_ = w.connection.Close()
	})
	w.wg.Wait()
}

// stopGraceful sends a close frame with the given code and reason before
// closing the connection. Safe against concurrent writes: the run goroutine
// has exited before the frame is written.
func (w *sessionWriter) stopGraceful(code int, reason string) {
	w.stopOnce.Do(func() {
		close(w.doneChannel)
		w.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(code, reason)
		w.updateWriteDeadline()
		_ = w.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = w.connection.Close()
	})
	w.wg.Wait()
}

func (w *sessionWriter) updateWriteDeadline() {
	_ = w.connection.SetWriteDeadline(w.clock.Now().Add(writeDeadline))
}

func (w *sessionWriter) updateReadDeadline() {
	_ = w.connection.SetReadDeadline(w.clock.Now().Add(pongDeadline))
}
