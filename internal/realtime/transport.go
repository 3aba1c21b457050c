package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
)

// State is the authoritative connection state of a voice session transport.
// There is exactly one current-state field; no boolean listening flags.
type State string

const (
	StateIdle                 State = "idle"
	StateConnecting           State = "connecting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateActive               State = "active"
	StateClosing              State = "closing"
	StateClosed               State = "closed"
	StateFailed               State = "failed"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	sendBufferSize  = 256
	audioBufferSize = 64
)

// Transport errors
var (
	ErrNotActive         = errors.New("audio rejected: configuration not yet acknowledged")
	ErrCredentialExpired = errors.New("session credential expired")
	ErrAlreadyStarted    = errors.New("transport already started")
	ErrRemoteClosed      = errors.New("remote closed the session")
	ErrSendBufferFull    = errors.New("outbound buffer full")
	ErrClosed            = errors.New("transport closed")
)

// WriteData is one outbound websocket frame
type WriteData struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// RawMessage is one inbound structured message, forwarded to the interpreter
type RawMessage struct {
	Data []byte
}

// Transport owns one duplex realtime connection to the external speech
// service: outbound audio frames, inbound audio (spoken confirmations), and
// the structured event channel, multiplexed on a single websocket.
//
// A transport is single-use. Once it reaches StateFailed or StateClosed the
// owning controller must create a new one with a freshly minted credential;
// there is no reconnection with a stale credential.
type Transport struct {
	serviceURL   string
	instructions string
	logger       *zap.Logger
	dialer       *websocket.Dialer
	now          func() time.Time

	mu     sync.Mutex
	state  State
	err    error
	cred   *entities.SessionCredential
	conn   *websocket.Conn
	expiry *time.Timer

	send  chan WriteData
	raw   chan RawMessage
	audio chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

// NewTransport creates an idle transport aimed at the speech service
func NewTransport(serviceURL, instructions string, logger *zap.Logger) *Transport {
	return &Transport{
		serviceURL:   serviceURL,
		instructions: instructions,
		logger:       logger,
		dialer:       websocket.DefaultDialer,
		now:          time.Now,
		state:        StateIdle,
		send:         make(chan WriteData, sendBufferSize),
		raw:          make(chan RawMessage, sendBufferSize),
		audio:        make(chan []byte, audioBufferSize),
		done:         make(chan struct{}),
	}
}

// Connect dials the speech service with the given credential, sends the
// configuration message, and leaves the transport awaiting the remote
// acknowledgment. Audio is rejected until that acknowledgment arrives.
func (t *Transport) Connect(ctx context.Context, cred *entities.SessionCredential) error {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = StateConnecting
	t.cred = cred
	t.mu.Unlock()

	if cred.Expired(t.now()) {
		t.fail(ErrCredentialExpired)
		return ErrCredentialExpired
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.Secret)

	conn, _, err := t.dialer.DialContext(ctx, t.serviceURL, header)
	if err != nil {
		dialErr := fmt.Errorf("speech service handshake failed: %w", err)
		t.fail(dialErr)
		return dialErr
	}

	t.mu.Lock()
	if t.state != StateConnecting {
		// Failed or closed while dialing (e.g. expiry watchdog, seat switch)
		err := t.err
		t.mu.Unlock()
		conn.Close()
		if err == nil {
			err = ErrClosed
		}
		return err
	}
	t.conn = conn
	t.state = StateAwaitingConfirmation

	// Configuration goes out first; audio must wait for the acknowledgment.
	payload, err := json.Marshal(ConfigureMessage{
		BaseMessage:   BaseMessage{Type: MessageTypeConfigure},
		Instructions:  t.instructions,
		CatalogDigest: cred.CatalogDigest,
	})
	if err != nil {
		t.mu.Unlock()
		t.fail(fmt.Errorf("failed to encode configuration: %w", err))
		return t.Err()
	}
	t.send <- WriteData{Type: websocket.TextMessage, Payload: payload}

	remaining := cred.TimeRemaining(t.now())
	t.expiry = time.AfterFunc(remaining, func() {
		t.logger.Warn("Session credential expired mid-session",
			zap.String("restaurantID", cred.RestaurantID))
		t.fail(ErrCredentialExpired)
	})
	t.mu.Unlock()

	go t.writePump(conn)
	go t.readPump(conn)

	t.logger.Info("Realtime session connecting",
		zap.String("restaurantID", cred.RestaurantID),
		zap.Duration("credentialRemaining", remaining))

	return nil
}

// SendAudio queues one outbound audio frame. It is rejected unless the
// configuration has been acknowledged and the credential is still live.
func (t *Transport) SendAudio(frame []byte) error {
	t.mu.Lock()
	state := t.state
	cred := t.cred
	t.mu.Unlock()

	if cred != nil && cred.Expired(t.now()) {
		t.fail(ErrCredentialExpired)
		return ErrCredentialExpired
	}
	if state != StateActive {
		return ErrNotActive
	}

	select {
	case t.send <- WriteData{Type: websocket.BinaryMessage, Payload: frame}:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears the session down explicitly (seat switch, user cancel).
// Safe to call at any point and more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	switch t.state {
	case StateClosed, StateFailed:
		t.mu.Unlock()
		return nil
	case StateIdle:
		t.state = StateClosed
		t.mu.Unlock()
		t.signalDone()
		return nil
	}
	t.state = StateClosing
	conn := t.conn
	expiry := t.expiry
	t.mu.Unlock()

	if expiry != nil {
		expiry.Stop()
	}
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		conn.Close()
	}

	t.mu.Lock()
	t.state = StateClosed
	t.mu.Unlock()
	t.signalDone()

	t.logger.Info("Realtime session closed")
	return nil
}

// State returns the current connection state
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the terminal error once the transport has failed
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Raw is the structured event stream consumed by the interpreter.
// Closed when the connection ends.
func (t *Transport) Raw() <-chan RawMessage {
	return t.raw
}

// Audio is the inbound audio stream (spoken confirmations) for playback
func (t *Transport) Audio() <-chan []byte {
	return t.audio
}

// Done is closed when the transport reaches a terminal state
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

func (t *Transport) fail(err error) {
	t.mu.Lock()
	if t.state == StateFailed || t.state == StateClosed {
		t.mu.Unlock()
		return
	}
	t.state = StateFailed
	t.err = err
	conn := t.conn
	expiry := t.expiry
	t.mu.Unlock()

	if expiry != nil {
		expiry.Stop()
	}
	if conn != nil {
		conn.Close()
	}
	t.signalDone()

	t.logger.Error("Realtime session failed", zap.Error(err))
}

func (t *Transport) signalDone() {
	t.doneOnce.Do(func() { close(t.done) })
}

// readPump pumps messages from the websocket connection: structured text
// frames to the interpreter, binary frames to audio playback.
func (t *Transport) readPump(conn *websocket.Conn) {
	defer close(t.raw)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			closing := t.state == StateClosing || t.state == StateClosed
			t.mu.Unlock()
			if !closing {
				t.fail(fmt.Errorf("connection read failed: %w", err))
			}
			return
		}

		switch messageType {
		case websocket.TextMessage:
			t.handleControl(message)
		case websocket.BinaryMessage:
			select {
			case t.audio <- message:
			default:
				t.logger.Warn("Dropping inbound audio frame, playback buffer full")
			}
		default:
			t.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// handleControl applies protocol-level messages to the state machine and
// forwards everything else to the interpreter untouched.
func (t *Transport) handleControl(message []byte) {
	var base BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		t.logger.Warn("Failed to parse structured message", zap.Error(err))
		return
	}

	switch base.Type {
	case MessageTypeReady:
		t.mu.Lock()
		if t.state == StateAwaitingConfirmation {
			t.state = StateActive
			t.mu.Unlock()
			t.logger.Info("Configuration acknowledged, audio unlocked")
			return
		}
		state := t.state
		t.mu.Unlock()
		t.logger.Warn("Unexpected configuration acknowledgment",
			zap.String("state", string(state)))

	case MessageTypeError:
		var errMsg ErrorMessage
		if err := json.Unmarshal(message, &errMsg); err != nil {
			t.fail(errors.New("remote reported an unparseable error"))
			return
		}
		t.fail(fmt.Errorf("remote session error: %s", errMsg.Message))

	case MessageTypeClosed:
		t.fail(ErrRemoteClosed)

	default:
		select {
		case t.raw <- RawMessage{Data: message}:
		case <-t.done:
		}
	}
}

// writePump pumps queued frames onto the websocket connection
func (t *Transport) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-t.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(message.Type, message.Payload); err != nil {
				t.mu.Lock()
				closing := t.state == StateClosing || t.state == StateClosed
				t.mu.Unlock()
				if !closing {
					t.fail(fmt.Errorf("connection write failed: %w", err))
				}
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-t.done:
			return
		}
	}
}
