package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/romangod6/store-insights/tools/storeprobe/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands.ExecuteContext(ctx)
}
