package tracker

import "fmt"

// Status is a point-in-time, machine-parsable summary of the tracker's
// health, the way the teacher's memorystore.HealthCheck reports on the
// buffer subsystem.
type Status struct {
	OK      bool
	Dropped uint64
	Tags    int
	Nodes   int
}

func (s Status) String() string {
	state := "ok"
	if !s.OK {
		state = "degraded"
	}
	return fmt.Sprintf("nmt: %s dropped=%d tags=%d nodes=%d", state, s.Dropped, s.Tags, s.Nodes)
}
