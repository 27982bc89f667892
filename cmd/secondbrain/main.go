// cmd/secondbrain/main.go
//
// This is the entry point for the secondbrain CLI. The agent host calls
// `secondbrain hook <name>` for every configured hook; people use the
// freshness, status and browse commands.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/kingrea/secondbrain/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
