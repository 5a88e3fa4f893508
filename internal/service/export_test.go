package service

import "time"

// SetNow fixes the orchestrator clock.
func (o *Orchestrator) SetNow(now func() time.Time) { o.now = now }
