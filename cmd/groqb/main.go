package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/reoring/groqb/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "groqb:", err)
		os.Exit(1)
	}
}
