// Package journal keeps an append-only audit trail of delivery transitions,
// cart movements and refused commands. Backends are selected by name through
// Open: "jsonl", "rotating" (lumberjack) or "sqlite".
package journal
