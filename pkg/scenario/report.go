package scenario

import (
	"time"

	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

// Report summarises one profile run.
type Report struct {
	Profile    string          `json:"profile" yaml:"profile"`
	Requests   int             `json:"requests" yaml:"requests"`
	Outcomes   map[Outcome]int `json:"outcomes" yaml:"outcomes"`
	Duration   time.Duration   `json:"-" yaml:"-"`
	DurationMs float64         `json:"duration_ms" yaml:"duration_ms"`
	Throughput float64         `json:"throughput_rps" yaml:"throughput_rps"`
	Stats      vectordb.Stats  `json:"engine" yaml:"engine"`
	Breaker    string          `json:"breaker_state,omitempty" yaml:"breaker_state,omitempty"`
}

// Succeeded returns how many requests carried documents.
func (r *Report) Succeeded() int {
	n := 0
	for o, c := range r.Outcomes {
		if o.Succeeded() {
			n += c
		}
	}
	return n
}

// SuccessRate returns Succeeded over Requests, or 0 for an empty run.
func (r *Report) SuccessRate() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Succeeded()) / float64(r.Requests)
}

func (r *Report) finish(elapsed time.Duration, stats vectordb.Stats) {
	r.Duration = elapsed
	r.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 {
		r.Throughput = float64(r.Requests) / elapsed.Seconds()
	}
	r.Stats = stats
}
