// Package adapters owns the transport edge: the WebSocket upgrade, the
// per-connection read/write pumps and the decoding of inbound events into
// coordinator calls.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/app"
	"github.com/syncpad/syncpad/internal/config"
	"github.com/syncpad/syncpad/internal/core"
	"github.com/syncpad/syncpad/internal/domain"
	"github.com/syncpad/syncpad/internal/protocol"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsPeer is a transport endpoint implementing core.PeerLink. TrySend never
// blocks: when the buffer is full the frame is refused and the caller's
// policy decides what that means.
type wsPeer struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan core.Frame
}

func (p *wsPeer) TrySend(f core.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrBackpressure
	}
	select {
	case p.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (p *wsPeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.send)
	_ = p.conn.Close()
}

type WSController struct {
	Coord    *app.Coordinator
	Cfg      *config.Config
	validate *validator.Validate
}

func NewWSController(coord *app.Coordinator, cfg *config.Config) *WSController {
	return &WSController{
		Coord:    coord,
		Cfg:      cfg,
		validate: validator.New(),
	}
}

// Handle upgrades the request, assigns the connection its id and starts the
// pumps. The id is opaque and lives exactly as long as the socket.
func (ctl *WSController) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Err(err).Msg("upgrade failed")
		return
	}

	id := domain.ConnID(uuid.NewString())
	peer := &wsPeer{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	// Bound enough for base64 audio payloads; never unbounded.
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.Register(id, peer, cancel)
	log.Info().Str("module", "adapters.ws").Str("conn", string(id)).Str("remote", c.Request.RemoteAddr).Msg("connection accepted")

	go ctl.writePump(ctx, id, peer)
	go ctl.readPump(ctx, id, peer)
}

// writePump owns the transport resources and closes them on exit, so a
// canceled connection unblocks the read side as well.
func (ctl *WSController) writePump(ctx context.Context, id domain.ConnID, p *wsPeer) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	defer p.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-p.send:
			if !ok {
				return
			}
			_ = p.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drives the connection lifecycle: when the read side ends, for
// whatever reason, the connection's presence and call state are unwound.
func (ctl *WSController) readPump(ctx context.Context, id domain.ConnID, p *wsPeer) {
	defer func() {
		ctl.Coord.OnDisconnect(id)
		p.Close()
	}()

	pongWait := ctl.Cfg.PingPeriod + ctl.Cfg.WriteTimeout
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := p.conn.ReadMessage()
			if err != nil {
				log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("read ended")
				return
			}
			ctl.handleEvent(id, data)
		}
	}
}

// handleEvent decodes the envelope and dispatches to the coordinator. A
// malformed or invalid event is dropped with a log; nothing is answered and
// no state is touched. Clients are expected to self-validate.
func (ctl *WSController) handleEvent(id domain.ConnID, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("bad envelope dropped")
		return
	}

	switch env.Event {
	case protocol.EventJoin:
		var p protocol.JoinPayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.Join(id, domain.RoomID(p.RoomID), p.DisplayName)

	case protocol.EventRequestSync:
		var p protocol.RequestSyncPayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.RequestSync(id, domain.RoomID(p.RoomID))

	case protocol.EventSyncCode:
		var p protocol.SubmitCodePayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.SubmitUpdate(id, domain.RoomID(p.RoomID), *p.Code)

	case protocol.EventMessageSend:
		var p protocol.SendMessagePayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.SendMessage(id, domain.RoomID(p.RoomID), p.DisplayName, p.Type, p.Body, p.AudioPayload, p.Duration)

	case protocol.EventVoiceCallOffer:
		var p protocol.OfferPayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.Offer(id, domain.RoomID(p.RoomID), p.Offer, p.DisplayName)

	case protocol.EventVoiceCallAnswer:
		var p protocol.AnswerPayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.Answer(id, domain.RoomID(p.RoomID), p.Answer, domain.ConnID(p.TargetConnID))

	case protocol.EventVoiceCallICE:
		var p protocol.ICECandidatePayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.ICECandidate(id, domain.RoomID(p.RoomID), p.Candidate)

	case protocol.EventVoiceCallEnd:
		var p protocol.EndCallPayload
		if !ctl.decode(id, env, &p) {
			return
		}
		ctl.Coord.EndCall(id, domain.RoomID(p.RoomID), p.DisplayName)

	default:
		log.Warn().Str("module", "adapters.ws").Str("conn", string(id)).Str("event", env.Event).Msg("unknown event dropped")
	}
}

func (ctl *WSController) decode(id domain.ConnID, env protocol.Envelope, dst any) bool {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("conn", string(id)).Str("event", env.Event).Err(err).Msg("bad payload dropped")
		return false
	}
	if err := ctl.validate.Struct(dst); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("conn", string(id)).Str("event", env.Event).Err(err).Msg("invalid payload dropped")
		return false
	}
	return true
}
