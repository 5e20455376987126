// Command denaroctl inspects and edits the ledger from a terminal. It opens
// the same backend as the server and publishes its writes over AMQP.
package main

import (
	"context"
	"os"

	"denaro/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := newRootCmd(openFromEnv).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
