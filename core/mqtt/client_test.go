package mqtt

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

func TestTopics(t *testing.T) {
	if got := StateTopic("factory/", "cart-1"); got != "factory/cart/cart-1/state" {
		t.Fatalf("state topic %q", got)
	}
	if got := CommandWildcard("factory"); got != "factory/cart/+/command" {
		t.Fatalf("wildcard %q", got)
	}
	if got := StateWildcard("factory"); got != "factory/cart/+/state" {
		t.Fatalf("state wildcard %q", got)
	}
	if got := AckTopic("factory", "cart-2"); got != "factory/cart/cart-2/ack" {
		t.Fatalf("ack topic %q", got)
	}
}

func TestParseCommandTopic(t *testing.T) {
	tests := []struct {
		topic string
		id    string
		ok    bool
	}{
		{"factory/cart/cart-1/command", "cart-1", true},
		{"factory/cart/cart-1/state", "", false},
		{"other/cart/cart-1/command", "", false},
		{"factory/cart//command", "", false},
		{"factory/cart/a/b/command", "", false},
	}
	for _, tt := range tests {
		id, err := ParseCommandTopic("factory", tt.topic)
		if tt.ok {
			if err != nil || id != tt.id {
				t.Fatalf("%s: got %q, %v", tt.topic, id, err)
			}
			continue
		}
		if !errors.Is(err, ErrBadTopic) {
			t.Fatalf("%s: expected ErrBadTopic, got %v", tt.topic, err)
		}
	}
}

func TestNewStateMessage(t *testing.T) {
	c := model.NewCart("cart-1", model.Pos(100, 100), 1)
	at := time.UnixMilli(1234)
	msg := NewStateMessage(*c, 7, at)
	if msg.Target != nil || msg.CargoType != "" || msg.Status != "idle" {
		t.Fatalf("unexpected idle message: %+v", msg)
	}

	c.Assign([]model.GridPosition{model.Pos(600, 100)}, &model.Cargo{ID: "c", Type: model.CargoGoods})
	msg = NewStateMessage(*c, 8, at)
	if msg.Target == nil || *msg.Target != model.Pos(600, 100) {
		t.Fatalf("missing target: %+v", msg)
	}
	if msg.CargoType != model.CargoGoods || msg.Timestamp != 1234 || msg.Tick != 8 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
