// Package cartstatus keeps the last known state of every cart for external
// readers. The Tracker feeds a Store from the event bus; MemoryStore serves
// a single process and RedisStore shares the view with other services.
package cartstatus
