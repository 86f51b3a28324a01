package engine

import "github.com/bhanukaranwal/Satyashield/pkg/models"

// tierQueues holds one bounded FIFO queue per priority tier. A buffered
// channel gives exactly the required semantics: strict FIFO within a tier,
// length never exceeding capacity, and a blocking send when full.
type tierQueues map[models.Priority]chan models.AnalysisRequest

func newTierQueues(normalCap, highCap, criticalCap int) tierQueues {
	return tierQueues{
		models.PriorityNormal:   make(chan models.AnalysisRequest, normalCap),
		models.PriorityHigh:     make(chan models.AnalysisRequest, highCap),
		models.PriorityCritical: make(chan models.AnalysisRequest, criticalCap),
	}
}

// depths reports the current number of queued descriptors per tier.
func (q tierQueues) depths() map[models.Priority]int {
	out := make(map[models.Priority]int, len(q))
	for tier, ch := range q {
		out[tier] = len(ch)
	}
	return out
}

func (q tierQueues) closeAll() {
	for _, ch := range q {
		close(ch)
	}
}
