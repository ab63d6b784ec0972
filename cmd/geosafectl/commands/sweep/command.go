package sweep

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/vasuse7en/geosafe/cmd/geosafectl/helpers"
	"github.com/vasuse7en/geosafe/pkg/commands"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/server/controller"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	wait         *bool
	pollInterval *time.Duration
}

// Usage prints the syntax of arguments for this command.
func (cmd Command) Usage() string {
	return ""
}

// Description explains what this verb commands to do.
func (cmd Command) Description() string {
	return "trigger the retention sweep"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flagSet *flag.FlagSet) {
	cmd.wait = flagSet.Bool("wait", false, "poll the sweep task until it reaches a terminal state")
	cmd.pollInterval = flagSet.Duration("poll-interval", time.Second, "how often to poll with -wait")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("no arguments expected")}
	}

	queue, err := helpers.ConnectQueue(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	sig, err := taskqueue.NewSignature(controller.TaskCleanImpactResult, controller.QueueGeoSAFE, nil)
	if err != nil {
		return err
	}
	result, err := queue.Client.Enqueue(ctx, sig)
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
