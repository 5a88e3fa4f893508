package llm

import "time"

// DisableBackoff removes retry sleeps so tests run fast.
func (p *OpenAI) DisableBackoff() { p.sleep = func(time.Duration) {} }
