package monitor

import "time"

type Status struct {
	Dependencies map[string]bool `json:"dependencies"`
	BufferSize   int             `json:"buffer_size"`
	LastCheck    time.Time       `json:"last_check"`
}

// Healthy reports whether every probed dependency answered.
func (s Status) Healthy() bool {
	for _, ok := range s.Dependencies {
		if !ok {
			return false
		}
	}
	return true
}
