package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshuadavidthomas/vibeusage/internal/cli"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.ExecuteContext(ctx)

	stop()
	httpclient.Close()
	os.Exit(code)
}
