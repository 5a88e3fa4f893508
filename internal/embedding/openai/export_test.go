package openai

import "time"

// DisableBackoff removes retry sleeps so tests run fast.
func (c *Client) DisableBackoff() { c.sleep = func(time.Duration) {} }

var RetryDelay = retryDelay
