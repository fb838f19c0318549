package main

import (
	"context"
	"os"
	"os/signal"

	vvscmd "github.com/vvs-dev/vvs/pkg/cmd"
)

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := vvscmd.NewRootCommand(vvscmd.DefaultConfig())
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
