// docs-sync：把本地文档树写入 PostgreSQL 文档表，供网络宿主的数据库策略读取
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"geodata/internal/config"
	"geodata/internal/docsync"
	"geodata/internal/logger"
	"geodata/internal/migrate"
	"geodata/internal/store"
	"geodata/internal/utils"
)

type options struct {
	src         string
	dsn         string
	concurrency int
	dryRun      bool
	prune       bool
	timeout     time.Duration
}

func main() {
	config.LoadDotEnv()
	l := logger.Setup()
	if err := run(); err != nil {
		l.Error("docs_sync_error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	opt := &options{}
	pflag.StringVar(&opt.src, "src", config.FromEnv().Geo.DataDir, "Root directory of the document tree to mirror.")
	pflag.StringVar(&opt.dsn, "dsn", "", "PostgreSQL DSN. Defaults to one built from the PG_* environment variables.")
	pflag.IntVar(&opt.concurrency, "concurrency", 4, "Number of documents written in parallel.")
	pflag.BoolVar(&opt.dryRun, "dry-run", false, "Validate and count documents without writing.")
	pflag.BoolVar(&opt.prune, "prune", false, "Delete stored documents that no longer exist in the tree.")
	pflag.DurationVar(&opt.timeout, "timeout", 10*time.Minute, "Upper bound for the whole run.")
	pflag.Parse()

	fs := afero.NewOsFs()
	if ok, _ := afero.DirExists(fs, opt.src); !ok {
		return fmt.Errorf("--src %s is not a directory", opt.src)
	}
	if opt.dsn == "" {
		opt.dsn = utils.BuildPostgresDSNFromEnv()
	}
	db, err := utils.OpenPostgres(opt.dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	if !opt.dryRun {
		if err := migrate.EnsureSchema(db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opt.timeout)
	defer cancel()
	st := store.AttachDB(db)
	res, err := docsync.Sync(ctx, fs, opt.src, st, docsync.Options{
		Concurrency: opt.concurrency,
		DryRun:      opt.dryRun,
		Prune:       opt.prune,
	})
	if err != nil {
		return err
	}
	if !opt.dryRun {
		total, err := st.CountDocuments(ctx)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		logger.L().Info("docs_sync_total", "documents", total)
	}
	if len(res.Invalid) > 0 {
		return fmt.Errorf("%d invalid documents, first: %s", len(res.Invalid), res.Invalid[0])
	}
	return nil
}
