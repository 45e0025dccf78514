// Package protocol implements the control plane described in spec.md §4.3:
// a Controller owns the Transport for the lifetime of a connection and
// composes three collaborators — ControlRouter (router.go),
// PendingRequests (pending.go), and CallbackDispatcher (dispatcher.go) —
// rather than one undifferentiated read loop.
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/claudecode/agent-sdk-go/internal/errors"
	"github.com/oklog/ulid/v2"
)

// Transport is the minimal interface Controller needs from the underlying
// connection, satisfied by subprocess.CLITransport and by test doubles.
type Transport interface {
	ReadMessages(ctx context.Context) (<-chan map[string]any, <-chan error)
	SendMessage(ctx context.Context, data []byte) error
}

// Controller is the connection-scoped control-plane owner described by
// spec.md §4.3: it demultiplexes everything the CLI writes to stdout,
// resolves outbound control requests against inbound responses, and runs
// inbound control requests (hook callbacks, permission decisions, MCP
// passthrough) against handlers the caller registers.
type Controller struct {
	log       *slog.Logger
	transport Transport

	pending    *PendingRequests
	dispatcher *CallbackDispatcher

	// conversation carries every non-control-plane message the CLI emits.
	conversation chan map[string]any

	errMu    sync.RWMutex
	fatalErr error

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewController wires a Controller around transport. Call Start before
// SendRequest or any registered handler can do anything.
func NewController(log *slog.Logger, transport Transport) *Controller {
	scoped := log.With("component", "controller")

	return &Controller{
		log:          scoped,
		transport:    transport,
		pending:      newPendingRequests(),
		dispatcher:   newCallbackDispatcher(scoped),
		conversation: make(chan map[string]any, 100),
		done:         make(chan struct{}),
	}
}

func (c *Controller) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// SetFatalError latches a transport-level failure and wakes every waiter by
// closing done. Only the first call sticks; later calls are no-ops beyond
// the wakeup, so a slow second failure can't overwrite the real cause.
func (c *Controller) SetFatalError(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.closeDone()
}

// FatalError returns the latched transport failure, if any.
func (c *Controller) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Done is closed once the controller has stopped, whether via Stop or a
// fatal transport error.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start launches the goroutine that reads from transport and classifies
// every message it sees. It must be called once before SendRequest or
// RegisterHandler can have any effect.
func (c *Controller) Start(ctx context.Context) error {
	c.log.Debug("starting controller")

	messages, errs := c.transport.ReadMessages(ctx)

	c.wg.Add(1)

	go c.readLoop(ctx, messages, errs)

	c.log.Info("controller started")

	return nil
}

// Stop signals shutdown, cancels every callback still running, and blocks
// until the read loop and all dispatched callbacks have exited. Safe to
// call more than once.
func (c *Controller) Stop() {
	c.log.Debug("stopping controller")

	c.closeDone()

	c.dispatcher.cancelAll()
	c.wg.Wait()
	c.dispatcher.wait()

	c.log.Info("controller stopped")
}

// Messages returns the channel of conversation messages — everything the
// CLI wrote that wasn't a control_response, control_request, or
// control_cancel_request. Closed once the read loop exits.
func (c *Controller) Messages() <-chan map[string]any {
	return c.conversation
}

// RegisterHandler binds handler to subtype for inbound control requests.
// Must be called before Start for the handler to see every request; calling
// it after Start is fine too, but risks a race against an incoming request
// of that subtype arriving before registration completes.
func (c *Controller) RegisterHandler(subtype string, handler RequestHandler) {
	c.dispatcher.register(subtype, handler)
}

// SendRequest sends a control_request of the given subtype and blocks for
// up to timeout for the matching control_response, or until ctx is
// cancelled or the controller stops. On success it returns the decoded
// response; on an error response it returns the CLI's error message as a Go
// error.
func (c *Controller) SendRequest(
	ctx context.Context,
	subtype string,
	payload map[string]any,
	timeout time.Duration,
) (*ControlResponse, error) {
	requestID := c.generateRequestID()

	c.log.Debug("sending control request", "request_id", requestID, "subtype", subtype)

	responseChan := c.pending.register(requestID, subtype, timeout)

	requestPayload := map[string]any{"subtype": subtype}
	maps.Copy(requestPayload, payload)

	req := &ControlRequest{
		Type:      "control_request",
		RequestID: requestID,
		Request:   requestPayload,
	}

	data, err := json.Marshal(req)
	if err != nil {
		c.pending.forget(requestID)
		c.log.Error("failed to marshal control request", "error", err)

		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := c.transport.SendMessage(ctx, data); err != nil {
		c.pending.forget(requestID)
		c.log.Error("failed to send control request", "error", err)

		return nil, fmt.Errorf("send request: %w", err)
	}

	c.log.Debug("control request sent, awaiting response", "request_id", requestID)

	select {
	case resp := <-responseChan:
		if resp.IsError() {
			errMsg := resp.ErrorMessage()
			c.log.Warn("control request returned error", "request_id", requestID, "error", errMsg)

			return nil, fmt.Errorf("request error: %s", errMsg)
		}

		c.log.Debug("received control response", "request_id", requestID)

		return resp, nil

	case <-c.done:
		c.pending.forget(requestID)

		if err := c.FatalError(); err != nil {
			c.log.Warn("transport error during request", "request_id", requestID, "error", err)

			return nil, fmt.Errorf("transport error: %w", err)
		}

		c.log.Debug("controller stopped during request", "request_id", requestID)

		return nil, errors.ErrControllerStopped

	case <-time.After(timeout):
		c.pending.forget(requestID)

		c.log.Warn("control request timed out", "request_id", requestID, "timeout", timeout)

		return nil, fmt.Errorf("%w after %s", errors.ErrRequestTimeout, timeout)

	case <-ctx.Done():
		c.pending.forget(requestID)

		c.log.Debug("control request cancelled", "request_id", requestID)

		return nil, ctx.Err()
	}
}

// generateRequestID mints a process-scoped-unique id for a new outbound
// control request. A ULID gives both properties spec.md §4.3.2's suggested
// "req_<monotonic>_<uuid>" scheme is chasing — a sortable, millisecond-
// precision prefix plus 80 bits of random suffix — in a single value.
func (c *Controller) generateRequestID() string {
	return ulid.Make().String()
}

// readLoop pulls decoded envelopes off the transport and routes each one
// per ControlRouter's classification, until the context is cancelled, the
// transport closes, or Stop is called.
func (c *Controller) readLoop(ctx context.Context, messages <-chan map[string]any, errs <-chan error) {
	defer c.wg.Done()
	defer close(c.conversation)
	defer c.log.Debug("controller read loop stopped")

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				c.log.Debug("transport message channel closed")

				return
			}

			c.route(ctx, msg)

		case err, ok := <-errs:
			if !ok {
				c.log.Debug("transport error channel closed")

				return
			}

			if err != nil {
				c.log.Debug("transport reported error", "error", err)
				c.SetFatalError(err)

				return
			}

		case <-c.done:
			c.log.Debug("stop signal received")

			return

		case <-ctx.Done():
			c.log.Debug("context cancelled in read loop")

			return
		}
	}
}

// route delivers msg to whichever collaborator ControlRouter's classify
// names for it.
func (c *Controller) route(ctx context.Context, msg map[string]any) {
	switch classify(msg) {
	case envelopeControlResponse:
		c.resolveResponse(msg)

	case envelopeControlRequest:
		c.acceptRequest(ctx, msg)

	case envelopeCancelRequest:
		c.acceptCancel(ctx, msg)

	default:
		select {
		case c.conversation <- msg:
		case <-c.done:
		case <-ctx.Done():
		}
	}
}

// resolveResponse completes the PendingRequests entry named by msg's
// nested request_id, if one is still outstanding.
func (c *Controller) resolveResponse(msg map[string]any) {
	responseData, ok := msg["response"].(map[string]any)
	if !ok {
		c.log.Warn("control_response missing 'response' field")

		return
	}

	requestID, ok := responseData["request_id"].(string)
	if !ok {
		c.log.Warn("control_response missing request_id")

		return
	}

	resp := &ControlResponse{Type: "control_response", Response: responseData}

	if !c.pending.complete(requestID, resp) {
		c.log.Warn("no pending request for control_response", "request_id", requestID)
	}
}

// acceptRequest hands an inbound control_request to the CallbackDispatcher
// and wires its eventual result back onto the wire as a control_response.
func (c *Controller) acceptRequest(ctx context.Context, msg map[string]any) {
	requestID, ok := msg["request_id"].(string)
	if !ok {
		c.log.Warn("control_request missing request_id")

		return
	}

	requestData, ok := msg["request"].(map[string]any)
	if !ok {
		c.log.Warn("control_request missing 'request' field")

		return
	}

	req := &ControlRequest{Type: "control_request", RequestID: requestID, Request: requestData}

	c.log.Debug("received control request from CLI", "request_id", requestID, "subtype", req.Subtype())

	started := c.dispatcher.dispatch(ctx, req, func(payload map[string]any, err error, cancelled bool) {
		switch {
		case cancelled:
			c.log.Debug("callback cancelled", "request_id", requestID)
			c.sendErrorResponse(ctx, requestID, errors.ErrOperationCancelled.Error())

		case err != nil:
			c.log.Warn("callback returned error", "request_id", requestID, "error", err.Error())
			c.sendErrorResponse(ctx, requestID, err.Error())

		default:
			c.sendSuccessResponse(ctx, requestID, payload)
		}
	})

	if !started {
		c.log.Warn("no handler registered for control request subtype", "subtype", req.Subtype())
		c.sendErrorResponse(ctx, requestID, "no handler registered")
	}
}

// acceptCancel handles a control_cancel_request by asking the
// CallbackDispatcher to cancel the named operation, then acknowledging
// whatever it found.
func (c *Controller) acceptCancel(ctx context.Context, msg map[string]any) {
	requestID, ok := msg["request_id"].(string)
	if !ok {
		c.log.Warn("control_cancel_request missing request_id")

		return
	}

	c.log.Debug("received cancel request", "request_id", requestID)

	found, alreadySettled := c.dispatcher.cancel(requestID)
	if !found {
		c.log.Debug("cancel request for unknown operation", "request_id", requestID)
	}

	c.sendCancelAcknowledgment(ctx, requestID, found, alreadySettled)
}

func (c *Controller) sendSuccessResponse(ctx context.Context, requestID string, payload map[string]any) {
	c.sendResponse(ctx, map[string]any{
		"subtype":    "success",
		"request_id": requestID,
		"response":   payload,
	})
}

func (c *Controller) sendErrorResponse(ctx context.Context, requestID, errMsg string) {
	if ctx.Err() != nil {
		c.log.Debug("skipping error response during shutdown", "request_id", requestID)

		return
	}

	c.sendResponse(ctx, map[string]any{
		"subtype":    "error",
		"request_id": requestID,
		"error":      errMsg,
	})
}

func (c *Controller) sendCancelAcknowledgment(ctx context.Context, requestID string, found, alreadyCompleted bool) {
	c.sendResponse(ctx, map[string]any{
		"subtype":           "cancel_acknowledgment",
		"request_id":        requestID,
		"found":             found,
		"already_completed": alreadyCompleted,
	})
}

// sendResponse marshals response as a control_response envelope and writes
// it to the transport, logging (rather than propagating) failures — the
// caller of a control-plane handler has no return path for a write error
// once the handler has already produced its result.
func (c *Controller) sendResponse(ctx context.Context, response map[string]any) {
	resp := &ControlResponse{Type: "control_response", Response: response}

	data, err := json.Marshal(resp)
	if err != nil {
		c.log.Error("failed to marshal control response", "error", err)

		return
	}

	if err := c.transport.SendMessage(ctx, data); err != nil {
		c.log.Error("failed to send control response", "error", err)
	}
}
