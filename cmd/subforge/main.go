package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"subforge/internal/llmjson"
	"subforge/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			printError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// printError writes err followed by a next-step hint when one applies.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, describeError(err))
	if hint := services.Hint(err); hint != "" {
		fmt.Fprintf(w, "hint: %s\n", hint)
	}
}

// describeError collapses marker-prefixed chains into the message a user
// should see for the common failure classes.
func describeError(err error) string {
	switch {
	case errors.Is(err, llmjson.ErrNoJSON):
		return "model output could not be interpreted as JSON"
	default:
		return err.Error()
	}
}
