// Package cli implements the closectl subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/subcommands"

	"github.com/odyssey-erp/closeboard/internal/app"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

// Env carries what every subcommand needs.
type Env struct {
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger
	// Open builds the services over the configured backend.
	Open func(ctx context.Context) (*app.Services, error)
	// Enqueue hands a rollover to the worker; nil runs it in-process.
	Enqueue func(ctx context.Context, trigger string) error
}

// Register the subcommands.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&companyAddCmd{env: env}, "companies")
	c.Register(&companyListCmd{env: env}, "companies")
	c.Register(&companyStartCmd{env: env}, "companies")
	c.Register(&companyToggleCmd{env: env}, "companies")
	c.Register(&companyRemoveCmd{env: env}, "companies")

	c.Register(&boardCmd{env: env}, "board")
	c.Register(&moveCmd{env: env}, "board")
	c.Register(&notesCmd{env: env}, "board")

	c.Register(&reportCmd{env: env}, "data")
	c.Register(&importCmd{env: env}, "data")
	c.Register(&dumpCmd{env: env}, "data")
	c.Register(&rolloverCmd{env: env}, "data")
}

// run opens the services, calls fn and maps its error to an exit status.
func (e *Env) run(ctx context.Context, fn func(*app.Services) error) subcommands.ExitStatus {
	services, err := e.Open(ctx)
	if err != nil {
		fmt.Fprintln(e.Err, err)
		return subcommands.ExitFailure
	}
	defer services.Close(e.Logger)
	if err := fn(services); err != nil {
		fmt.Fprintf(e.Err, "%s (%v)\n", shared.UserMessage(err), err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (e *Env) usageError(msg string) subcommands.ExitStatus {
	fmt.Fprintln(e.Err, msg)
	return subcommands.ExitUsageError
}
