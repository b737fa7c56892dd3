// Package utils holds small helpers shared by the sanction stores and adapters.
package utils

import (
	"strconv"
	"sync"
	"time"
)

// Epoch is the snowflake epoch, 2015-01-01T00:00:00Z, shared with Discord ids.
const Epoch int64 = 1420070400000

const (
	machineBits  = 10
	sequenceBits = 12
	machineMask  = 1<<machineBits - 1
	sequenceMask = 1<<sequenceBits - 1
)

// IDGenerator generates snowflake violation ids.
type IDGenerator struct {
	mu        sync.Mutex
	now       func() time.Time
	lastTime  int64
	sequence  int64
	machineID int64
}

// NewIDGenerator creates a new ID generator for machine 0.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorWithMachine(0)
}

// NewIDGeneratorWithMachine creates a new ID generator with a specific machine ID.
func NewIDGeneratorWithMachine(machineID int64) *IDGenerator {
	return &IDGenerator{
		now:       time.Now,
		machineID: machineID & machineMask,
	}
}

// Generate returns a new unique id.
func (g *IDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli() - Epoch
	if ms < g.lastTime {
		// Clock went backwards; keep ids monotonic.
		ms = g.lastTime
	}

	if ms == g.lastTime {
		g.sequence = (g.sequence + 1) & sequenceMask
		if g.sequence == 0 {
			for ms <= g.lastTime {
				time.Sleep(100 * time.Microsecond)
				ms = g.now().UnixMilli() - Epoch
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = ms

	id := (ms << (machineBits + sequenceBits)) | (g.machineID << sequenceBits) | g.sequence
	return strconv.FormatInt(id, 10)
}
