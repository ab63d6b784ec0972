package status

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/vasuse7en/geosafe/cmd/geosafectl/helpers"
	"github.com/vasuse7en/geosafe/pkg/commands"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/pkg/types"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	wait         *bool
	pollInterval *time.Duration
}

// Usage prints the syntax of arguments for this command.
func (cmd Command) Usage() string {
	return "<task ID>"
}

// Description explains what this verb commands to do.
func (cmd Command) Description() string {
	return "report the state of a submitted task"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flagSet *flag.FlagSet) {
	cmd.wait = flagSet.Bool("wait", false, "poll until the task reaches a terminal state")
	cmd.pollInterval = flagSet.Duration("poll-interval", time.Second, "how often to poll with -wait")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) != 1 {
		return commands.ErrArgs{Err: fmt.Errorf("expected exactly one task ID, received %d arguments", len(args))}
	}
	taskID, err := types.ParseTaskID(args[0])
	if err != nil {
		return commands.ErrArgs{Err: fmt.Errorf("unable to parse task ID '%s': %w", args[0], err)}
	}

	queue, err := helpers.ConnectQueue(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	result := queue.Client.Result(taskID)

	var record taskqueue.TaskRecord
	if *cmd.wait {
		record, err = result.Wait(ctx, *cmd.pollInterval)
	} else {
		record, err = result.Record(ctx)
	}
	if err != nil {
		// An unknown record is a valid answer: either nobody submitted
		// the task yet or its record already expired.
		if errors.As(err, &taskqueue.ErrStateNotFound{}) {
			fmt.Printf("%s\n", helpers.RenderState(types.TaskStatePending))
			return nil
		}
		return err
	}

	fmt.Printf("%s\n", helpers.RenderState(record.State))
	if cfg.IsQuiet {
		return nil
	}
	if len(record.Result) != 0 {
		fmt.Printf("result: %s\n", record.Result)
	}
	if record.Error != "" {
		fmt.Printf("error: %s\n", record.Error)
	}
	return nil
}
