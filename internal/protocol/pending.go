package protocol

import (
	"sync"
	"time"
)

// completionSlot is the one-shot value holder spec.md calls a "PendingRequests
// completion slot": a channel of capacity one, resolved by exactly one of a
// response delivery, a timeout, or a controller shutdown.
type completionSlot struct {
	subtype  string
	response chan *ControlResponse
	deadline time.Time
}

// PendingRequests correlates outbound control requests with their inbound
// control_response by request id.
//
// Invariant: at most one entry exists per request id at any time, and every
// entry is removed exactly once — by whichever of {matching response
// arrives, wait times out, controller shuts down} happens first. The other
// two paths must find nothing left to remove.
type PendingRequests struct {
	mu   sync.RWMutex
	byID map[string]*completionSlot
}

func newPendingRequests() *PendingRequests {
	return &PendingRequests{byID: make(map[string]*completionSlot, 10)}
}

// register inserts a completion slot for requestID and returns the channel
// the caller should select on. The slot is buffered so a response delivered
// after the caller has already stopped waiting (timeout/shutdown raced the
// response) never blocks the router.
func (p *PendingRequests) register(requestID, subtype string, timeout time.Duration) <-chan *ControlResponse {
	slot := &completionSlot{
		subtype:  subtype,
		response: make(chan *ControlResponse, 1),
		deadline: time.Now().Add(timeout),
	}

	p.mu.Lock()
	p.byID[requestID] = slot
	p.mu.Unlock()

	return slot.response
}

// complete hands resp to the slot registered for requestID, atomically
// claiming (and removing) the entry so a racing timeout cannot also claim
// it. Reports false if no slot was outstanding for requestID — either it
// was never registered, or something else already resolved it.
func (p *PendingRequests) complete(requestID string, resp *ControlResponse) bool {
	p.mu.Lock()

	slot, ok := p.byID[requestID]
	if ok {
		delete(p.byID, requestID)
	}

	p.mu.Unlock()

	if !ok {
		return false
	}

	slot.response <- resp

	return true
}

// forget removes requestID's entry without delivering a response. Used by a
// caller that is abandoning its own wait (its own timeout fired, its
// context was cancelled, or the controller is shutting down) so the entry
// doesn't linger for a response that will never be claimed.
func (p *PendingRequests) forget(requestID string) {
	p.mu.Lock()
	delete(p.byID, requestID)
	p.mu.Unlock()
}

// count reports how many requests are currently outstanding.
func (p *PendingRequests) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.byID)
}

// idsSnapshot returns the request ids currently outstanding. It exists for
// tests that need to observe a mid-flight request without a public
// send-and-wait API of their own; production code never needs it since
// SendRequest owns the full lifecycle of its own id.
func (p *PendingRequests) idsSnapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, id)
	}

	return ids
}
