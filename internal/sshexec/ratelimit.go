package sshexec

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// MachineRateLimiter bounds command dispatch per machine so a chatty session
// cannot hammer one host.
type MachineRateLimiter struct {
	perMachine sync.Map // map[string]*rate.Limiter
	rateLimit  float64
}

// NewMachineRateLimiter creates a limiter allowing rateLimit commands/second
// per machine, with a burst of twice the rate.
func NewMachineRateLimiter(rateLimit float64) *MachineRateLimiter {
	return &MachineRateLimiter{rateLimit: rateLimit}
}

func (rl *MachineRateLimiter) limiterFor(machineID string) *rate.Limiter {
	if l, ok := rl.perMachine.Load(machineID); ok {
		return l.(*rate.Limiter)
	}

	burst := int(rl.rateLimit * 2)
	if burst < 1 {
		burst = 1
	}
	l, _ := rl.perMachine.LoadOrStore(machineID, rate.NewLimiter(rate.Limit(rl.rateLimit), burst))
	return l.(*rate.Limiter)
}

// Wait blocks until the machine's limiter permits another command, or the
// context is cancelled.
func (rl *MachineRateLimiter) Wait(ctx context.Context, machineID string) error {
	return rl.limiterFor(machineID).Wait(ctx)
}
