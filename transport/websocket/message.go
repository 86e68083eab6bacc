package websocket

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	actionConnect   = "connect"
	actionGameNew   = "game:new"
	actionGameTurn  = "game:turn"
	actionGameLeave = "game:leave"
)

// Message is a client request: an action and its loosely typed payload.
type Message struct {
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Response is what the server sends back for every message.
type Response struct {
	Action  string          `json:"action"`
	Payload ResponsePayload `json:"payload"`
}

type ResponsePayload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type playerRef struct {
	ID string `mapstructure:"id"`
}

type requestPayload struct {
	Player *playerRef `mapstructure:"player"`
	Row    *int       `mapstructure:"row"`
	Col    *int       `mapstructure:"col"`
}

var errNotInteger = errors.New("number is not an integer")

func decodePayload(msg *Message) (*requestPayload, error) {
	var payload requestPayload

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: integersOnly,
		Result:     &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err = decoder.Decode(msg.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	return &payload, nil
}

// integersOnly stops JSON numbers with a fraction from being truncated into
// int fields.
func integersOnly(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Int || (from.Kind() != reflect.Float64 && from.Kind() != reflect.Float32) {
		return data, nil
	}

	f := reflect.ValueOf(data).Float()
	if math.Trunc(f) != f || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", errNotInteger, data)
	}

	return data, nil
}

func (that *Server) sendMessage(conn *websocket.Conn, action string, payload ResponsePayload) error {
	if err := conn.WriteJSON(Response{Action: action, Payload: payload}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Server) sendErrorResponse(conn *websocket.Conn, action, errorMsg string) error {
	if err := that.sendMessage(conn, action, ResponsePayload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
