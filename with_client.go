package claudesdk

import (
	"context"
	"fmt"
)

// WithClient starts a Client, runs fn against it, and closes it
// unconditionally afterward — the Client equivalent of a `defer file.Close()`
// pattern, for callers who don't need the client to outlive a single block.
// fn's error is returned as-is; a Close failure is only logged, so it never
// masks the more informative error from fn.
//
//	err := claudesdk.WithClient(ctx, func(c claudesdk.Client) error {
//	    if err := c.Query(ctx, "Hello"); err != nil {
//	        return err
//	    }
//	    for msg, err := range c.ReceiveResponse(ctx) {
//	        if err != nil {
//	            return err
//	        }
//	        // handle msg
//	    }
//	    return nil
//	}, claudesdk.WithPermissionMode("acceptEdits"))
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyAgentOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	c := NewClient()
	if err := c.Start(ctx, opts...); err != nil {
		return fmt.Errorf("start client: %w", err)
	}

	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("failed to close client", "error", err)
		}
	}()

	return fn(c)
}
