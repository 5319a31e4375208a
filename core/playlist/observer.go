package playlist

import (
	"sort"
	"sync"
)

// ObservedSet is a VisibilityObserver for remote clients: it tracks which
// rows still wait for a reveal call.
type ObservedSet struct {
	mu  sync.Mutex
	set map[int]struct{}
}

func NewObservedSet() *ObservedSet {
	return &ObservedSet{set: make(map[int]struct{})}
}

func (o *ObservedSet) Observe(index int) {
	o.mu.Lock()
	o.set[index] = struct{}{}
	o.mu.Unlock()
}

func (o *ObservedSet) Unobserve(index int) {
	o.mu.Lock()
	delete(o.set, index)
	o.mu.Unlock()
}

// Pending returns the observed indices in ascending order.
func (o *ObservedSet) Pending() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]int, 0, len(o.set))
	for i := range o.set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
