// Package events holds the payloads the engine publishes on the event bus.
//
// Delivery lifecycle transitions travel as DeliveryEvent, cart arrivals,
// recalls and manual moves as CartEvent. A CommandRejectedEvent is published
// when a command fails validation before touching state, and every step ends
// with a TickEvent summary.
package events
