// Package engine advances the cart pool one tick at a time and runs the
// follow-up work scheduled by arrivals.
//
// Engine is single threaded. Runner owns an Engine, drives it from a
// ticker and serializes every external command between ticks.
package engine
