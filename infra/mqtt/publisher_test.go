package mqtt

import "testing"

func TestMockPublisher(t *testing.T) {
	p := NewMockPublisher()
	p.FailTopics["bad"] = true
	if err := p.Publish("bad", "state", nil); err == nil {
		t.Fatalf("expected failure")
	}
	payload := []byte("a")
	if err := p.Publish("good", "state", payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	payload[0] = 'b'
	msgs := p.On("good")
	if len(msgs) != 1 || string(msgs[0].Payload) != "a" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if len(p.Messages()) != 1 {
		t.Fatalf("failed publish recorded")
	}
}
