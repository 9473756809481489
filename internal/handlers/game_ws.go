// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/n1kozver/memelords/internal/database"
	"github.com/n1kozver/memelords/internal/game"
)

const handshakeTimeout = 30 * time.Second

// GameWSHandler runs the websocket session for one player: handshake
// (first frame must be a connect envelope carrying an invite code),
// admission into the lobby, then the read loop until disconnect.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Authenticate before upgrading: a fresh guest needs its cookie
		// written with the 101 response.
		userID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.WithError(err).Warn("websocket auth failed")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust in production.
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept error")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}

		connData, err := readConnectFrame(r.Context(), c)
		if err != nil {
			logger.WithError(err).Warn("websocket handshake failed")
			c.Close(InvalidHandshakeError, "expected a connect envelope")
			return
		}

		lobby, ok := gs.Lobbies.Get(connData.InviteCode)
		if !ok {
			c.Close(InvalidInviteCodeError, "unknown invite code")
			return
		}

		// Identity comes from the user row; the connect payload only
		// fills gaps for guests without a profile.
		info := game.PlayerInfo{UserID: userID, Name: connData.Name, AvatarURL: connData.AvatarURL}
		if u, dbErr := database.GetUserByID(r.Context(), userID); dbErr == nil {
			if u.Name != "" {
				info.Name = u.Name
			}
			if u.AvatarURL != "" {
				info.AvatarURL = u.AvatarURL
			}
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := newWSConn(c, cancel)
		player := game.NewPlayer(info, conn, lobby)

		if err := lobby.AddPlayer(player); err != nil {
			switch {
			case errors.Is(err, game.ErrLobbyFull):
				c.Close(LobbyFullError, "lobby is full")
			case errors.Is(err, game.ErrGameInProgress):
				c.Close(GameInProgressError, "game already in progress")
			default:
				c.Close(websocket.StatusPolicyViolation, err.Error())
			}
			return
		}

		logger.WithFields(logrus.Fields{
			"user":   userID,
			"lobby":  connData.InviteCode,
			"remote": r.RemoteAddr,
		}).Info("player connected")

		go conn.writePump(ctx, logger)
		readPump(ctx, c, player, logger)

		// The read loop exited: the transport is gone or the client said
		// goodbye. Either way the player leaves exactly once.
		player.Leave()
		logger.WithField("user", userID).Info("player disconnected")
	}
}

// readConnectFrame reads the handshake frame and requires a connect
// envelope with an invite code.
func readConnectFrame(ctx context.Context, c *websocket.Conn) (*game.ConnectData, error) {
	readCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	typ, raw, err := c.Read(readCtx)
	if err != nil {
		return nil, fmt.Errorf("handshake read: %w", err)
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("handshake must be a text frame")
	}

	var ev game.ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("malformed handshake envelope: %w", err)
	}
	if ev.Type != game.EventConnect {
		return nil, fmt.Errorf("expected connect, got %q", ev.Type)
	}

	var data game.ConnectData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return nil, fmt.Errorf("malformed connect payload: %w", err)
	}
	if data.InviteCode == "" {
		return nil, fmt.Errorf("connect payload missing invite code")
	}
	return &data, nil
}

// readPump feeds inbound frames to the player's dispatcher until the
// connection dies. Protocol errors are logged and answered with an error
// event; they never take the lobby down.
func readPump(ctx context.Context, c *websocket.Conn, player *game.Player, logger *logrus.Logger) {
	for {
		typ, raw, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.WithError(err).WithField("user", player.UserID).Warn("websocket read error")
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		if err := player.HandleMessage(raw); err != nil {
			logger.WithError(err).WithField("user", player.UserID).Warn("protocol error")
			player.SendEvent(game.ServerEvent{
				Type: game.EventError,
				Data: game.ErrorData{Message: err.Error()},
			})
		}
	}
}

// wsConn adapts a coder/websocket connection to game.Conn: Send enqueues
// onto a buffered channel drained by writePump, preserving per-connection
// FIFO order without blocking the lobby.
type wsConn struct {
	c      *websocket.Conn
	out    chan game.ServerEvent
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(c *websocket.Conn, cancel context.CancelFunc) *wsConn {
	return &wsConn{
		c:      c,
		out:    make(chan game.ServerEvent, 16),
		cancel: cancel,
		closed: make(chan struct{}),
	}
}

func (wc *wsConn) Send(ev game.ServerEvent) error {
	select {
	case <-wc.closed:
		return fmt.Errorf("connection closed")
	default:
	}

	select {
	case wc.out <- ev:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (wc *wsConn) Close(reason string) {
	wc.closeOnce.Do(func() {
		close(wc.closed)
		wc.c.Close(websocket.StatusNormalClosure, reason)
		wc.cancel()
	})
}

// writePump drains the out channel onto the websocket and pings
// periodically so dead peers are detected even when idle.
func (wc *wsConn) writePump(ctx context.Context, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-wc.closed:
			return
		case ev := <-wc.out:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.WithError(err).Warnf("failed to marshal %s event", ev.Type)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = wc.c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithError(err).Warn("websocket write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := wc.c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.WithError(err).Warn("websocket ping failed, assuming disconnect")
				return
			}
		}
	}
}
