// Package mqtt defines the MQTT wire protocol spoken with cart controllers:
// topic layout and the JSON payloads for state, commands and acks.
package mqtt

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

// Publisher sends raw payloads to a topic. kind selects the QoS class
// ("state", "ack").
type Publisher interface {
	Publish(topic, kind string, payload []byte) error
}

// StateTopic is where the position of a cart is published.
func StateTopic(prefix, cartID string) string {
	return fmt.Sprintf("%s/cart/%s/state", strings.TrimSuffix(prefix, "/"), cartID)
}

// StateWildcard subscribes to the reports of every cart.
func StateWildcard(prefix string) string {
	return StateTopic(prefix, "+")
}

// CommandTopic is where a cart receives grid commands.
func CommandTopic(prefix, cartID string) string {
	return fmt.Sprintf("%s/cart/%s/command", strings.TrimSuffix(prefix, "/"), cartID)
}

// CommandWildcard subscribes to the commands of every cart.
func CommandWildcard(prefix string) string {
	return CommandTopic(prefix, "+")
}

// AckTopic is where the result of a command is reported.
func AckTopic(prefix, cartID string) string {
	return fmt.Sprintf("%s/cart/%s/ack", strings.TrimSuffix(prefix, "/"), cartID)
}

// ParseCommandTopic extracts the cart id from a command topic.
func ParseCommandTopic(prefix, topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/cart/")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	id, ok := strings.CutSuffix(rest, "/command")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	return id, nil
}

// StateMessage is the periodic cart report.
type StateMessage struct {
	CartID    string              `json:"cart_id"`
	Status    string              `json:"status"`
	Position  model.GridPosition  `json:"position"`
	Target    *model.GridPosition `json:"target,omitempty"`
	CargoType string              `json:"cargo_type,omitempty"`
	Tick      uint64              `json:"tick"`
	Timestamp int64               `json:"timestamp"`
}

// NewStateMessage builds the report of c at tick.
func NewStateMessage(c model.Cart, tick uint64, at time.Time) StateMessage {
	msg := StateMessage{
		CartID:    c.ID,
		Status:    string(c.Status),
		Position:  c.Position,
		Tick:      tick,
		Timestamp: at.UnixMilli(),
	}
	if t, ok := c.CurrentTarget(); ok {
		msg.Target = &t
	}
	if c.Cargo != nil {
		msg.CargoType = c.Cargo.Type
	}
	return msg
}

// CommandMessage is a manual grid move. Missing coordinates are rejected
// by the dispatcher.
type CommandMessage struct {
	CommandID string   `json:"command_id,omitempty"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

// AckMessage reports whether a command was applied.
type AckMessage struct {
	CommandID string `json:"command_id"`
	CartID    string `json:"cart_id"`
	Accepted  bool   `json:"accepted"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
