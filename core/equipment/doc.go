// Package equipment simulates the production machines of the factory floor
// and the factory wide production counter.
package equipment
