// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/vasuse7en/geosafe/pkg/artifact"
	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/doccache"
	"github.com/vasuse7en/geosafe/pkg/headless"
	"github.com/vasuse7en/geosafe/pkg/observability"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/server/controller"
	"github.com/vasuse7en/geosafe/server/httpapi"
)

const (
	docCacheSizeDefault      = 256 << 20 // 256MiB
	analysisTimeLimitDefault = time.Hour
	sweepIntervalDefault     = time.Hour
)

func assertNoError(ctx context.Context, err error) {
	if err != nil {
		logger.FromCtx(ctx).Fatalf("%v", err)
	}
}

func usageExit() {
	pflag.Usage()
	os.Exit(2) // The default Go's exitcode on flag.Parse() problems
}

func defaultDatabaseURL() string {
	if dbURL := os.Getenv("GEOSAFE_DB_URL"); dbURL != "" {
		return dbURL
	}
	dbAddr := os.Getenv("DBHOST")
	if dbAddr == "" {
		dbAddr = "127.0.0.1:3306"
	}
	return "mysql://" + (&mysql.Config{
		User:      os.Getenv("DBUSER"),
		Passwd:    os.Getenv("DBPASS"),
		Net:       "tcp",
		Addr:      dbAddr,
		DBName:    "geosafe",
		ParseTime: true,
	}).FormatDSN()
}

func main() {
	logLevel := logger.LevelInfo // the default value

	pflag.Var(&logLevel, "log-level", "logging level")
	netPprofAddr := pflag.String("net-pprof-addr", "", "if non-empty then listens with net/http/pprof")
	httpBindAddr := pflag.String("http-bind-addr", ":8080", "the address of the layer-serving HTTP endpoint")
	dbURL := pflag.String("db-url", defaultDatabaseURL(), "the catalog database URL (env fallback: GEOSAFE_DB_URL)")
	fileStoreURL := pflag.String("filestore-url", "fs:///srv/geosafed", "the layer file store URL")
	queueURL := pflag.String("queue-url", "redis://127.0.0.1:6379", "the task queue URL")
	publicBaseURL := pflag.String("public-base-url", "http://127.0.0.1:8080", "the base URL the analysis workers reach this daemon at")
	workerStoreDir := pflag.String("worker-store-dir", "", "the path the file store is mounted at on the analysis workers; empty disables direct layer file access")
	mirrorStoreDir := pflag.String("mirror-store-dir", "", "the locally reachable path of the workers' private store copy; empty disables the sidecar mirror")
	impactBaseURL := pflag.String("impact-base-url", "", "the public URL prefix the workers report impact artifacts under")
	impactDir := pflag.String("impact-dir", "", "where the workers' impact output directory is mounted locally; empty means impact artifacts are downloaded")
	scratchDir := pflag.String("scratch-dir", os.TempDir(), "where downloaded artifacts are staged")
	analysisTimeLimit := pflag.Duration("analysis-time-limit", analysisTimeLimitDefault, "the wall-clock budget of one compute stage")
	sweepInterval := pflag.Duration("sweep-interval", sweepIntervalDefault, "how often the retention sweeper runs; 0 disables the loop")
	amountOfWorkers := pflag.Uint("workers", uint(runtime.NumCPU()), "amount of concurrent task executors")
	docCacheSize := pflag.Uint64("doc-cache-size", docCacheSizeDefault, "the memory limit of the metadata document cache")
	pflag.Parse()
	if pflag.NArg() != 0 {
		usageExit()
	}

	ctx := observability.WithBelt(
		context.Background(),
		logLevel,
		"geosafed", true,
	)
	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelFn()

	log := logger.FromCtx(ctx)

	if *netPprofAddr != "" {
		go func() {
			err := http.ListenAndServe(*netPprofAddr, nil)
			log.Errorf("unable to start listening for https/net/pprof: %v", err)
		}()
	}

	docCache, err := doccache.New(*docCacheSize)
	if err != nil {
		log.Panic(err)
	}

	cat, err := catalog.New(ctx, *dbURL, *fileStoreURL, docCache, log)
	if err != nil {
		log.Panic(err)
	}
	defer cat.Close()

	broker, err := taskqueue.NewBroker(*queueURL)
	if err != nil {
		log.Panic(err)
	}
	defer broker.Close()

	backend, err := taskqueue.NewBackend(*queueURL)
	if err != nil {
		log.Panic(err)
	}
	defer backend.Close()

	queueClient, err := taskqueue.NewClient(broker, backend)
	assertNoError(ctx, err)

	resolver := &artifact.Resolver{
		PublicBaseURL:  *publicBaseURL,
		WorkerStoreDir: *workerStoreDir,
		MirrorStoreDir: *mirrorStoreDir,
		ImpactBaseURL:  *impactBaseURL,
		ImpactDir:      *impactDir,
	}
	fetcher := &artifact.Fetcher{
		ScratchBaseDir: *scratchDir,
	}

	ctrl := controller.New(ctx, cat, queueClient, resolver, fetcher, *analysisTimeLimit, *sweepInterval)
	defer func() {
		assertNoError(ctx, ctrl.Close())
	}()
	log.Debugf("created a controller")

	// The daemon consumes only its own queue; the headless queues belong
	// to the remote compute workers.
	worker := taskqueue.NewWorker(broker, backend, controller.QueueGeoSAFE)
	worker.Concurrency = *amountOfWorkers
	ctrl.RegisterTaskHandlers(worker)

	// Submitted chains route their compute stages to the headless
	// workers' queues, see pkg/headless.
	log.Infof("compute queue: '%s', local queue: '%s'", headless.QueueAnalysis, controller.QueueGeoSAFE)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Serve(groupCtx)
	})
	group.Go(func() error {
		return httpapi.NewServer(cat).Serve(groupCtx, *httpBindAddr, logLevel)
	})
	assertNoError(ctx, group.Wait())
}
