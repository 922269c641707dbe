package callbridge

import (
	"sync"
	"sync/atomic"
	"time"
)

// MethodStats summarises the boundary calls made to one host method.
type MethodStats struct {
	Calls         uint64
	Failures      uint64
	TotalDuration time.Duration
	LastError     string
}

// AverageDuration returns the mean time spent per call.
func (m MethodStats) AverageDuration() time.Duration {
	if m.Calls == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.Calls)
}

// Stats is a point-in-time snapshot of boundary activity for one adapter
// binding and every clone of it.
type Stats struct {
	Methods map[string]MethodStats

	// Attaches counts threads attached by the bridge.
	Attaches uint64

	// Closes counts handle close notifications delivered to the host.
	Closes uint64

	// SkippedCloses counts handle releases whose close notification was
	// dropped because the releasing thread could not attach.
	SkippedCloses uint64
}

type methodCounters struct {
	calls    atomic.Uint64
	failures atomic.Uint64
	nanos    atomic.Int64
	lastErr  atomic.Value // string
}

// boundaryStats collects counters without sharing a lock with the runtime
// binding; every field is updated atomically.
type boundaryStats struct {
	methods       sync.Map // method name -> *methodCounters
	attaches      atomic.Uint64
	closes        atomic.Uint64
	skippedCloses atomic.Uint64
}

func (s *boundaryStats) observe(method string, start time.Time, err error) {
	v, ok := s.methods.Load(method)
	if !ok {
		v, _ = s.methods.LoadOrStore(method, &methodCounters{})
	}
	c := v.(*methodCounters)
	c.calls.Add(1)
	c.nanos.Add(int64(time.Since(start)))
	if err != nil {
		c.failures.Add(1)
		c.lastErr.Store(err.Error())
	}
}

func (s *boundaryStats) snapshot() Stats {
	out := Stats{
		Methods:       make(map[string]MethodStats),
		Attaches:      s.attaches.Load(),
		Closes:        s.closes.Load(),
		SkippedCloses: s.skippedCloses.Load(),
	}
	s.methods.Range(func(key, value any) bool {
		c := value.(*methodCounters)
		ms := MethodStats{
			Calls:         c.calls.Load(),
			Failures:      c.failures.Load(),
			TotalDuration: time.Duration(c.nanos.Load()),
		}
		if last, ok := c.lastErr.Load().(string); ok {
			ms.LastError = last
		}
		out.Methods[key.(string)] = ms
		return true
	})
	return out
}
