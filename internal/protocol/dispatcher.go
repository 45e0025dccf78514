package protocol

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// runningCallback tracks one inbound control_request currently being
// serviced by a registered handler, keyed by its request id so a later
// control_cancel_request from the CLI can reach it.
type runningCallback struct {
	subtype   string
	cancel    context.CancelFunc
	startedAt time.Time
	settled   bool
}

// CallbackDispatcher runs the handlers registered for inbound control
// requests — hook callbacks, canUseTool decisions, mcp_message rejection —
// off the transport's reader goroutine, so a callback that blocks (waiting
// on a human decision, say) never stalls delivery of unrelated conversation
// messages or other control traffic. Each dispatched callback gets its own
// cancellable context, tracked so a control_cancel_request can stop it
// mid-flight.
type CallbackDispatcher struct {
	log *slog.Logger

	handlersMu sync.RWMutex
	handlers   map[string]RequestHandler

	runningMu sync.Mutex
	running   map[string]*runningCallback

	wg sync.WaitGroup
}

func newCallbackDispatcher(log *slog.Logger) *CallbackDispatcher {
	return &CallbackDispatcher{
		log:      log.With("component", "dispatcher"),
		handlers: make(map[string]RequestHandler, 10),
		running:  make(map[string]*runningCallback, 10),
	}
}

// register binds handler to subtype. Only one handler may be registered per
// subtype; a later call for the same subtype replaces the earlier one.
func (d *CallbackDispatcher) register(subtype string, handler RequestHandler) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()

	d.log.Debug("registering callback handler", "subtype", subtype)
	d.handlers[subtype] = handler
}

// dispatch starts req's handler on its own goroutine if one is registered
// for req's subtype, and reports whether a handler was found. settle is
// invoked exactly once, from that goroutine, once the handler returns or is
// cancelled.
func (d *CallbackDispatcher) dispatch(
	parent context.Context,
	req *ControlRequest,
	settle func(payload map[string]any, err error, cancelled bool),
) bool {
	subtype := req.Subtype()

	d.handlersMu.RLock()
	handler, ok := d.handlers[subtype]
	d.handlersMu.RUnlock()

	if !ok {
		return false
	}

	opCtx, cancel := context.WithCancel(parent)

	entry := &runningCallback{subtype: subtype, cancel: cancel, startedAt: time.Now()}

	d.runningMu.Lock()
	d.running[req.RequestID] = entry
	d.runningMu.Unlock()

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		defer func() {
			d.runningMu.Lock()
			entry.settled = true
			delete(d.running, req.RequestID)
			d.runningMu.Unlock()
			cancel()
		}()

		payload, err := handler(opCtx, req)

		d.runningMu.Lock()
		entry.settled = true
		d.runningMu.Unlock()

		settle(payload, err, opCtx.Err() == context.Canceled)
	}()

	return true
}

// cancel signals the running callback for requestID to stop. found reports
// whether a callback was still tracked for that id; alreadySettled reports
// whether it had already produced a result before the cancel arrived (in
// which case cancelling is a no-op but the CLI still gets an acknowledgment).
func (d *CallbackDispatcher) cancel(requestID string) (found, alreadySettled bool) {
	d.runningMu.Lock()
	defer d.runningMu.Unlock()

	entry, ok := d.running[requestID]
	if !ok {
		return false, false
	}

	if !entry.settled {
		entry.cancel()
	}

	return true, entry.settled
}

// cancelAll stops every callback still running. Used during controller
// shutdown so no handler goroutine outlives the connection it was serving.
func (d *CallbackDispatcher) cancelAll() {
	d.runningMu.Lock()
	defer d.runningMu.Unlock()

	for _, entry := range d.running {
		if !entry.settled {
			entry.cancel()
		}
	}
}

// wait blocks until every dispatched callback goroutine has returned.
func (d *CallbackDispatcher) wait() {
	d.wg.Wait()
}
