package helpers

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"

	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/commands"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/pkg/types"
)

// Queue is a connected task queue: the client together with the transports
// it has to release on Close.
type Queue struct {
	Broker  taskqueue.Broker
	Backend taskqueue.Backend
	Client  *taskqueue.Client
}

// ConnectQueue dials the broker and the result backend of cfg.QueueURL
// and wraps them into a submitter.
func ConnectQueue(cfg commands.Config) (*Queue, error) {
	broker, err := taskqueue.NewBroker(cfg.QueueURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect the queue broker '%s': %w", cfg.QueueURL, err)
	}
	backend, err := taskqueue.NewBackend(cfg.QueueURL)
	if err != nil {
		_ = broker.Close()
		return nil, fmt.Errorf("unable to connect the result backend '%s': %w", cfg.QueueURL, err)
	}
	client, err := taskqueue.NewClient(broker, backend)
	if err != nil {
		_ = broker.Close()
		_ = backend.Close()
		return nil, err
	}
	return &Queue{
		Broker:  broker,
		Backend: backend,
		Client:  client,
	}, nil
}

// Close releases the queue transports.
func (queue *Queue) Close() error {
	var result *multierror.Error
	result = multierror.Append(result, queue.Broker.Close())
	result = multierror.Append(result, queue.Backend.Close())
	return result.ErrorOrNil()
}

// NewCatalog connects the catalog record store addressed by the config.
func NewCatalog(ctx context.Context, cfg commands.Config) (*catalog.Catalog, error) {
	return catalog.New(ctx, cfg.DatabaseURL, cfg.FileStoreURL, nil, nil)
}

// RenderState colors a task state for terminal output: green for success,
// red for failure, yellow for everything in flight.
func RenderState(state types.TaskState) string {
	switch state {
	case types.TaskStateSuccess:
		return color.GreenString(state.String())
	case types.TaskStateFailure:
		return color.RedString(state.String())
	default:
		return color.YellowString(state.String())
	}
}
