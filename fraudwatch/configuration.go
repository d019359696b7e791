// SPDX-License-Identifier: GPL-3.0-or-later
package fraudwatch

import "fmt"

const (
	DefaultLimit          = 200
	DefaultKeepaliveEvery = 50
)

type ConfigFunc func(c *configuration) error

// Limit caps the batch to the n most recent messages.
func Limit(n int) ConfigFunc {
	return func(c *configuration) error {
		if n <= 0 {
			return fmt.Errorf("Limit must be positive, got %d", n)
		}

		c.Limit = n
		return nil
	}
}

// KeepaliveEvery probes connection liveness every n processed
// messages.
func KeepaliveEvery(n int) ConfigFunc {
	return func(c *configuration) error {
		if n <= 0 {
			return fmt.Errorf("KeepaliveEvery must be positive, got %d", n)
		}

		c.KeepaliveEvery = n
		return nil
	}
}

type configuration struct {
	Limit          int
	KeepaliveEvery int
}
