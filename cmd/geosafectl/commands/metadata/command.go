package metadata

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/vasuse7en/geosafe/cmd/geosafectl/helpers"
	"github.com/vasuse7en/geosafe/pkg/commands"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/server/controller"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	fixOnly *bool
}

// Usage prints the syntax of arguments for this command.
func (cmd Command) Usage() string {
	return "<layer ID>"
}

// Description explains what this verb commands to do.
func (cmd Command) Description() string {
	return "re-run the metadata pipeline of a layer"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flagSet *flag.FlagSet) {
	cmd.fixOnly = flagSet.Bool("fix-only", false, "only reconcile the XML copies, skip the keyword lookup")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) != 1 {
		return commands.ErrArgs{Err: fmt.Errorf("expected exactly one layer ID, received %d arguments", len(args))}
	}
	layerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return commands.ErrArgs{Err: fmt.Errorf("unable to parse layer ID '%s': %w", args[0], err)}
	}

	queue, err := helpers.ConnectQueue(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	tasks := []string{controller.TaskCreateMetadataObject, controller.TaskFixMetadata}
	if *cmd.fixOnly {
		tasks = []string{controller.TaskFixMetadata}
	}
	for _, task := range tasks {
		sig, err := taskqueue.NewSignature(task, controller.QueueGeoSAFE, []any{layerID})
		if err != nil {
			return err
		}
		result, err := queue.Client.Enqueue(ctx, sig)
		if err != nil {
			return err
		}
		if !cfg.IsQuiet {
			fmt.Printf("%s: %s\n", task, result.TaskID)
		}
	}
	return nil
}
