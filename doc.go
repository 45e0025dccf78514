// Package claudesdk drives the `claude` CLI as a subprocess and exposes its
// conversation and control protocol as ordinary Go values: typed messages
// in, typed options and control calls out.
//
// # One-shot queries
//
// Query launches the CLI, sends a single prompt, and streams back
// everything it says until the run finishes:
//
//	ctx := context.Background()
//	for msg, err := range claudesdk.Query(ctx, "What is 2+2?",
//	    claudesdk.WithPermissionMode("acceptEdits"),
//	    claudesdk.WithMaxTurns(1),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    switch m := msg.(type) {
//	    case *claudesdk.AssistantMessage:
//	        for _, block := range m.Content {
//	            if text, ok := block.(*claudesdk.TextBlock); ok {
//	                fmt.Println(text.Text)
//	            }
//	        }
//	    case *claudesdk.ResultMessage:
//	        fmt.Printf("completed in %dms\n", m.DurationMs)
//	    }
//	}
//
// # Multi-turn sessions
//
// For anything that needs more than one exchange — or that needs to
// interrupt, change permission mode, or switch models mid-conversation —
// use Client. WithClient handles the start/close lifecycle automatically:
//
//	err := claudesdk.WithClient(ctx, func(c claudesdk.Client) error {
//	    if err := c.Query(ctx, "Hello Claude"); err != nil {
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
//
// NewClient gives more direct control over the same lifecycle:
//
//	client := claudesdk.NewClient()
//	defer client.Close()
//
//	if err := client.Start(ctx, claudesdk.WithLogger(slog.Default())); err != nil {
//	    log.Fatal(err)
//	}
//
// # Logging
//
// Both entry points accept WithLogger for a *slog.Logger; every internal
// package logs through it at Debug for protocol traffic and Info/Warn/Error
// for lifecycle events:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	messages := claudesdk.Query(ctx, "Hello Claude", claudesdk.WithLogger(logger))
//
// # Errors
//
// Failures are typed so a caller can branch on cause rather than parsing
// error strings:
//
//	for msg, err := range claudesdk.Query(ctx, prompt) {
//	    if err != nil {
//	        if cliErr, ok := errors.AsType[*claudesdk.CLINotFoundError](err); ok {
//	            log.Fatalf("claude CLI not found, searched: %v", cliErr.SearchedPaths)
//	        }
//	        if procErr, ok := errors.AsType[*claudesdk.ProcessError](err); ok {
//	            log.Fatalf("CLI exited %d: %s", procErr.ExitCode, procErr.Stderr)
//	        }
//	        log.Fatal(err)
//	    }
//	    // handle msg
//	}
//
// # Requirements
//
// The `claude` CLI must be installed where the SDK can find it (the
// CLAUDE_CODE_CLI_PATH environment variable, PATH, or a common install
// directory), or its location given explicitly via WithCliPath.
package claudesdk
