package engine

import "github.com/bhanukaranwal/Satyashield/pkg/models"

// Metrics is an on-demand aggregate over the result store and queue set.
type Metrics struct {
	TotalTracked         int            `json:"total_tracked"`
	Queued               int            `json:"queued"`
	Processing           int            `json:"processing"`
	Completed            int            `json:"completed"`
	Failed               int            `json:"failed"`
	QueueDepths          map[string]int `json:"queue_depths"`
	AvgProcessingSeconds float64        `json:"avg_processing_seconds"`
	SuccessRate          float64        `json:"success_rate"`
}

// Metrics computes counts per status, per-tier queue depth, the average
// processing duration over completed records, and the completed/total success
// rate (zero when nothing is tracked yet).
func (e *Engine) Metrics() Metrics {
	st := e.results.stats()

	depths := make(map[string]int, len(e.queues))
	for tier, depth := range e.queues.depths() {
		depths[tier.String()] = depth
	}

	m := Metrics{
		TotalTracked:         st.total,
		Queued:               st.queued,
		Processing:           st.processing,
		Completed:            st.completed,
		Failed:               st.failed,
		QueueDepths:          depths,
		AvgProcessingSeconds: st.avgSeconds,
	}
	if st.total > 0 {
		m.SuccessRate = float64(st.completed) / float64(st.total)
	}
	return m
}

// QueueDepths reports the current length of each tier's queue.
func (e *Engine) QueueDepths() map[models.Priority]int {
	return e.queues.depths()
}
