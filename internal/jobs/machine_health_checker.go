package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"sshmate/internal/services"
)

// MachineHealthChecker probes every registered machine over SSH and reports
// reachability transitions. With Redis configured, transitions are also
// published to other server instances.
type MachineHealthChecker struct {
	machines *services.MachineService
	pubsub   *services.PubSubService

	mu       sync.Mutex
	statuses map[string]bool // machineID -> last known reachability
}

// NewMachineHealthChecker creates a new health checker job
func NewMachineHealthChecker(machines *services.MachineService, pubsub *services.PubSubService) *MachineHealthChecker {
	return &MachineHealthChecker{
		machines: machines,
		pubsub:   pubsub,
		statuses: make(map[string]bool),
	}
}

// Run probes all machines once.
func (c *MachineHealthChecker) Run(ctx context.Context) error {
	machines, err := c.machines.List(ctx)
	if err != nil {
		return err
	}
	if len(machines) == 0 {
		return nil
	}

	log.Printf("[HEALTH-JOB] Probing %d machine(s)...", len(machines))
	reachable := 0

	for _, machine := range machines {
		select {
		case <-ctx.Done():
			log.Println("[HEALTH-JOB] Cancelled")
			return ctx.Err()
		default:
		}

		ok, err := c.machines.Probe(ctx, machine.ID)
		if err != nil {
			log.Printf("[HEALTH-JOB] %s (%s): probe error: %v", machine.Name, machine.Host, err)
			ok = false
		}
		if ok {
			reachable++
		}

		c.recordTransition(ctx, machine.ID, machine.Name, ok)

		// Small delay between probes to avoid bursts of SSH handshakes
		time.Sleep(500 * time.Millisecond)
	}

	log.Printf("[HEALTH-JOB] Probe complete: %d/%d reachable", reachable, len(machines))
	if m := services.GetMetrics(); m != nil {
		m.RecordMachineHealth(reachable, len(machines))
	}
	return nil
}

func (c *MachineHealthChecker) recordTransition(ctx context.Context, machineID, name string, reachable bool) {
	c.mu.Lock()
	previous, known := c.statuses[machineID]
	c.statuses[machineID] = reachable
	c.mu.Unlock()

	if known && previous == reachable {
		return
	}

	if reachable {
		log.Printf("✅ [HEALTH-JOB] Machine %s is reachable", name)
	} else {
		log.Printf("❌ [HEALTH-JOB] Machine %s is unreachable", name)
	}

	if c.pubsub != nil {
		if err := c.pubsub.PublishMachineStatus(ctx, machineID, reachable); err != nil {
			log.Printf("⚠️ [HEALTH-JOB] Failed to publish status for %s: %v", machineID, err)
		}
	}
}

// Status returns the last known reachability per machine.
func (c *MachineHealthChecker) Status() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]bool, len(c.statuses))
	for id, ok := range c.statuses {
		out[id] = ok
	}
	return out
}
