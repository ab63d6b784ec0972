package controller

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/artifact"
	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/headless"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
)

const testWaitPollInterval = 10 * time.Millisecond

// testEnv is a controller wired to in-process infrastructure: a shared
// in-memory SQLite catalog, a filesystem file store and a "mem://" queue.
//
// The worker is assembled but not served; tests that want the task loop
// running call startWorker, the rest inspect the broker directly.
type testEnv struct {
	Ctx        context.Context
	Controller *Controller
	Catalog    *catalog.Catalog
	Broker     taskqueue.Broker
	Backend    taskqueue.Backend
	Client     *taskqueue.Client
	Worker     *taskqueue.Worker
	Resolver   *artifact.Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	ctx, cancelFn := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancelFn)

	// a uniquely named shared in-memory database, so that every pooled
	// connection sees the same tables, while tests stay isolated
	dbName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbURL := fmt.Sprintf("sqlite3://file:%s?mode=memory&cache=shared", dbName)

	cat, err := catalog.New(ctx, dbURL, "fs://"+t.TempDir(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, cat.Close())
	})
	require.NoError(t, cat.InitSchema(ctx))

	broker, err := taskqueue.NewBroker("mem://")
	require.NoError(t, err)
	backend, err := taskqueue.NewBackend("mem://")
	require.NoError(t, err)
	client, err := taskqueue.NewClient(broker, backend)
	require.NoError(t, err)

	resolver := &artifact.Resolver{
		PublicBaseURL: "https://geosafe.test",
	}
	fetcher := &artifact.Fetcher{
		ScratchBaseDir: t.TempDir(),
	}

	ctrl := New(ctx, cat, client, resolver, fetcher, time.Minute, 0)
	t.Cleanup(func() {
		require.NoError(t, ctrl.Close())
	})

	worker := taskqueue.NewWorker(broker, backend,
		QueueGeoSAFE, headless.QueueAnalysis, headless.QueueMetadata)
	worker.PollInterval = time.Millisecond
	ctrl.RegisterTaskHandlers(worker)

	return &testEnv{
		Ctx:        ctx,
		Controller: ctrl,
		Catalog:    cat,
		Broker:     broker,
		Backend:    backend,
		Client:     client,
		Worker:     worker,
		Resolver:   resolver,
	}
}

// startWorker runs the task loop until the test ends. Handlers must be
// registered before the call.
func (env *testEnv) startWorker(t *testing.T) {
	serveCtx, stopServing := context.WithCancel(env.Ctx)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- env.Worker.Serve(serveCtx)
	}()
	t.Cleanup(func() {
		stopServing()
		require.NoError(t, <-serveDone)
	})
}

// saveTestLayer ingests a small dataset (the main file plus companions
// keyed by file name) and returns the created layer.
func (env *testEnv) saveTestLayer(t *testing.T, fileName string, companions map[string]string) *catalog.Layer {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, fileName), []byte("dataset of "+fileName), 0644))
	for name, content := range companions {
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0644))
	}
	layer, err := env.Catalog.SaveLayerFile(env.Ctx, srcDir, fileName, false)
	require.NoError(t, err)
	return layer
}

// popInvocation pops one message from the queue and decodes it; the queue
// must not be empty.
func (env *testEnv) popInvocation(t *testing.T, queue string) taskqueue.Invocation {
	message, err := env.Broker.Pop(env.Ctx, queue)
	require.NoError(t, err)

	var inv taskqueue.Invocation
	require.NoError(t, json.Unmarshal(message, &inv))
	return inv
}

// drainQueue throws away everything waiting in the queue (for example the
// follow-up tasks the layer-saved hook submits during fixture setup).
func (env *testEnv) drainQueue(t *testing.T, queue string) {
	for {
		_, err := env.Broker.Pop(env.Ctx, queue)
		if errors.As(err, &taskqueue.ErrEmptyQueue{}) {
			return
		}
		require.NoError(t, err)
	}
}

// requireQueueEmpty asserts that nothing waits in the queue.
func (env *testEnv) requireQueueEmpty(t *testing.T, queue string) {
	_, err := env.Broker.Pop(env.Ctx, queue)
	require.True(t, errors.As(err, &taskqueue.ErrEmptyQueue{}), "queue '%s' is not empty", queue)
}

type zipMember struct {
	Name    string
	Content string
}

// writeTestZip builds a zip archive with the members in the given order
// (the candidate search depends on it) and returns its path.
func writeTestZip(t *testing.T, dir string, zipName string, members []zipMember) string {
	zipPath := filepath.Join(dir, zipName)
	zipFile, err := os.Create(zipPath)
	require.NoError(t, err)

	zipWriter := zip.NewWriter(zipFile)
	for _, member := range members {
		memberWriter, err := zipWriter.Create(member.Name)
		require.NoError(t, err)
		_, err = memberWriter.Write([]byte(member.Content))
		require.NoError(t, err)
	}
	require.NoError(t, zipWriter.Close())
	require.NoError(t, zipFile.Close())
	return zipPath
}

func TestControllerCloseTwiceIsSafe(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.Controller.Close())
	// the fixture's cleanup closes once more
}

func TestControllerSweepLoop(t *testing.T) {
	env := newTestEnv(t)

	// a second controller with the sweeper enabled, sharing the fixture's
	// infrastructure
	sweeping := New(env.Ctx, env.Catalog, env.Client, env.Resolver,
		env.Controller.Fetcher, time.Minute, 5*time.Millisecond)
	t.Cleanup(func() {
		require.NoError(t, sweeping.Close())
	})

	disposable := &catalog.Analysis{
		HazardLayerID:    1,
		ExposureLayerID:  2,
		ImpactFunctionID: "FloodRasterBuildingFunction",
	}
	require.NoError(t, env.Catalog.CreateAnalysis(env.Ctx, disposable))

	require.Eventually(t, func() bool {
		_, err := env.Catalog.Analysis(env.Ctx, disposable.ID)
		return errors.As(err, &catalog.ErrNotFound{})
	}, 5*time.Second, testWaitPollInterval)
}

func TestLayerSavedHookSubmitsFollowUps(t *testing.T) {
	env := newTestEnv(t)

	layer := env.saveTestLayer(t, "flood.shp", nil)

	tasks := map[string]bool{}
	for i := 0; i < 2; i++ {
		inv := env.popInvocation(t, QueueGeoSAFE)
		tasks[inv.Task] = true

		var layerID int64
		require.NoError(t, inv.DecodeArgs(&layerID))
		require.Equal(t, layer.ID, layerID)
	}
	require.True(t, tasks[TaskCreateMetadataObject])
	require.True(t, tasks[TaskFixMetadata])
	env.requireQueueEmpty(t, QueueGeoSAFE)
}
