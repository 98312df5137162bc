package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/closeboard/cmd/closectl/cli"
	"github.com/odyssey-erp/closeboard/internal/app"
	"github.com/odyssey-erp/closeboard/jobs"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}
	logger := app.NewLogger(cfg)

	env := &cli.Env{
		Out:    os.Stdout,
		Err:    os.Stderr,
		Logger: logger,
		Open: func(ctx context.Context) (*app.Services, error) {
			return app.OpenServices(ctx, cfg, logger, nil)
		},
		Enqueue: func(ctx context.Context, trigger string) error {
			client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			if err != nil {
				return err
			}
			defer client.Close()
			info, err := client.EnqueueRollover(ctx, trigger)
			if err != nil {
				return err
			}
			logger.Info("rollover enqueued", "task_id", info.ID, "queue", info.Queue)
			return nil
		},
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander, env)

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
