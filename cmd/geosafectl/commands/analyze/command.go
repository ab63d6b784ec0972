package analyze

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/vasuse7en/geosafe/cmd/geosafectl/helpers"
	"github.com/vasuse7en/geosafe/pkg/artifact"
	"github.com/vasuse7en/geosafe/pkg/commands"
	"github.com/vasuse7en/geosafe/server/controller"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	publicBaseURL  *string
	workerStoreDir *string
	timeLimit      *time.Duration
	wait           *bool
	pollInterval   *time.Duration
}

// Usage prints the syntax of arguments for this command.
func (cmd Command) Usage() string {
	return "<analysis ID>"
}

// Description explains what this verb commands to do.
func (cmd Command) Description() string {
	return "submit the compute-then-ingest chain of an analysis"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flagSet *flag.FlagSet) {
	cmd.publicBaseURL = flagSet.String("public-base-url", "http://127.0.0.1:8080", "the base URL the analysis workers reach this deployment at")
	cmd.workerStoreDir = flagSet.String("worker-store-dir", "", "the path the file store is mounted at on the analysis workers; empty means the workers download layers over HTTP")
	cmd.timeLimit = flagSet.Duration("time-limit", time.Hour, "the wall-clock budget of the compute stage")
	cmd.wait = flagSet.Bool("wait", false, "poll the compute stage until it reaches a terminal state")
	cmd.pollInterval = flagSet.Duration("poll-interval", time.Second, "how often to poll with -wait")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) != 1 {
		return commands.ErrArgs{Err: fmt.Errorf("expected exactly one analysis ID, received %d arguments", len(args))}
	}
	analysisID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return commands.ErrArgs{Err: fmt.Errorf("unable to parse analysis ID '%s': %w", args[0], err)}
	}

	cat, err := helpers.NewCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer cat.Close()

	queue, err := helpers.ConnectQueue(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	resolver := &artifact.Resolver{
		PublicBaseURL:  *cmd.publicBaseURL,
		WorkerStoreDir: *cmd.workerStoreDir,
	}
	ctrl := controller.New(ctx, cat, queue.Client, resolver, &artifact.Fetcher{}, *cmd.timeLimit, 0)
	defer ctrl.Close()

	result, err := ctrl.PrepareAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	if !cfg.IsQuiet {
		fmt.Printf("%s\n", result.TaskID)
	}

	if !*cmd.wait {
		return nil
	}
	record, err := result.Wait(ctx, *cmd.pollInterval)
	if err != nil {
		return err
	}
	if !cfg.IsQuiet {
		fmt.Printf("%s\n", helpers.RenderState(record.State))
	}
	return nil
}
