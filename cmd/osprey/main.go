package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/simonhull/firebird-suite/osprey/internal/commands"
	"github.com/simonhull/firebird-suite/osprey/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := commands.NewApp().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	output.Error(err.Error())
	if errors.Is(err, commands.ErrViolationsFound) {
		os.Exit(1)
	}
	os.Exit(2)
}
