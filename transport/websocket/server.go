package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, row, col int) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) error
}

type handlerFunc func(ctx context.Context, msg *Message, conn *websocket.Conn) error

type Server struct {
	logger *slog.Logger
	uGame  gameUseCase

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	srv *http.Server

	connsMutex sync.Mutex
	conns      map[*websocket.Conn]struct{}
}

// New builds the websocket server. An empty allowedOrigin accepts any origin.
func New(logger *slog.Logger, port, allowedOrigin string, uGame gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,

		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigin),
		},
		handlers: make(map[string]handlerFunc),
		conns:    make(map[*websocket.Conn]struct{}),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameLeave] = server.handleGameLeave

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.ServeHTTP)

	server.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start() error {
	that.logger.Info("Starting WebSocket server", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and closes the open websockets with a
// going-away frame. http.Server does not track upgraded connections itself.
func (that *Server) Shutdown(ctx context.Context) error {
	err := that.srv.Shutdown(ctx)

	that.closeConnections()

	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// ServeHTTP upgrades the connection and serves its messages until the client
// goes away.
func (that *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	that.trackConnection(conn)
	defer that.untrackConnection(conn)

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	if err = that.handleMessages(req.Context(), conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client one by one.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
				log.Info("client disconnected")
				return nil
			}

			if isDecodeError(err) {
				log.Warn("failed to unmarshal message", "error", err)

				if err = that.sendErrorResponse(conn, "", "malformed message"); err != nil {
					return err
				}

				continue
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)

			if err := that.sendErrorResponse(conn, message.Action, "unknown action"); err != nil {
				return err
			}

			continue
		}

		if err := handler(ctx, &message, conn); err != nil {
			return fmt.Errorf("failed to process %s: %w", message.Action, err)
		}
	}
}

func (that *Server) trackConnection(conn *websocket.Conn) {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	that.conns[conn] = struct{}{}
}

func (that *Server) untrackConnection(conn *websocket.Conn) {
	that.connsMutex.Lock()
	delete(that.conns, conn)
	that.connsMutex.Unlock()

	_ = conn.Close()
}

func (that *Server) closeConnections() {
	that.connsMutex.Lock()
	defer that.connsMutex.Unlock()

	closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	deadline := time.Now().Add(time.Second)

	for conn := range that.conns {
		// WriteControl and Close are safe next to a running read loop
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, deadline)
		_ = conn.Close()

		delete(that.conns, conn)
	}

	that.logger.Info("closed websocket connections")
}

func checkOrigin(allowedOrigin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowedOrigin == "" {
			return true
		}

		return r.Header.Get("Origin") == allowedOrigin
	}
}

func isDecodeError(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
