package commands

import (
	"context"
	"flag"
)

// Command is one verb of the geosafectl CLI.
type Command interface {
	// Usage prints the syntax of arguments for this command.
	Usage() string

	// Description explains what this verb commands to do.
	Description() string

	// SetupFlagSet is called to allow the command implementation to
	// setup which option flags it has.
	SetupFlagSet(flagSet *flag.FlagSet)

	// Execute is the main function here. It is responsible to start the
	// execution of the command.
	//
	// `args` are the arguments left unused by the verb itself and its
	// options.
	Execute(ctx context.Context, cfg Config, args []string) error
}

// Config carries the settings shared by every verb: where the shared
// infrastructure lives.
type Config struct {
	IsQuiet bool

	// DatabaseURL addresses the catalog database, see catalog.New for
	// the accepted forms.
	DatabaseURL string

	// FileStoreURL addresses the layer file store, see filestore.New.
	FileStoreURL string

	// QueueURL addresses the task queue broker and result backend, see
	// taskqueue.NewBroker.
	QueueURL string
}
