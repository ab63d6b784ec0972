// A one-shot helper which creates (or re-applies) the catalog schema on
// the configured database. Safe to run repeatedly.
package main

import (
	"context"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"

	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/observability"
)

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
	logLevel := logger.LevelDebug // the default value
	dbURL := pflag.String("db-url", defaultDatabaseURL(), "the catalog database URL (env fallback: GEOSAFE_DB_URL)")
	fileStoreURL := pflag.String("filestore-url", "fs:///srv/geosafed", "the layer file store URL")
	pflag.Var(&logLevel, "log-level", "logging level")
	pflag.Parse()

	ctx := observability.WithBelt(context.Background(), logLevel, "", true)
	log := logger.FromCtx(ctx)

	cat, err := catalog.New(ctx, *dbURL, *fileStoreURL, nil, log)
	if err != nil {
		log.Panic(err)
	}
	defer cat.Close()

	if err := cat.InitSchema(ctx); err != nil {
		log.Panic(err)
	}
	log.Infof("the schema is in place")
}
