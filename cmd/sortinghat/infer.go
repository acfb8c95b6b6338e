package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sortinghat/internal/core"
	"github.com/JonMunkholm/sortinghat/internal/database"
)

type inferOptions struct {
	classifier string
	maxRows    int
	query      string
	record     bool
	codes      bool
}

func (a *app) newInferCmd() *cobra.Command {
	opts := &inferOptions{}

	cmd := &cobra.Command{
		Use:   "infer [file|-]",
		Short: "Infer feature types for a CSV file or SQL query",
		Example: `  sortinghat infer data.csv
  cat data.csv | sortinghat infer - -o json
  sortinghat infer --query "SELECT * FROM customers" --max-rows 10000
  sortinghat infer data.csv --classifier remote --record`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInfer(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.classifier, "classifier", "c", "", "classifier backend (default from INFERENCE_CLASSIFIER)")
	f.IntVar(&opts.maxRows, "max-rows", 0, "rows to sample (default from INFERENCE_MAX_ROWS)")
	f.StringVarP(&opts.query, "query", "q", "", "SQL query to load the dataset from DATABASE_URL")
	f.BoolVar(&opts.record, "record", false, "save the run to the database run history")
	f.BoolVar(&opts.codes, "codes", false, "print the full run including classifier codes")
	return cmd
}

func (a *app) runInfer(cmd *cobra.Command, args []string, opts *inferOptions) error {
	ctx := cmd.Context()

	if opts.query != "" && len(args) > 0 {
		return errors.New("pass either a file or --query, not both")
	}
	if opts.query == "" && len(args) == 0 {
		return errors.New("missing input: pass a CSV file, - for stdin, or --query")
	}

	maxRows := a.cfg.Inference.MaxRows
	if opts.maxRows > 0 {
		maxRows = opts.maxRows
	}

	var conn *pgx.Conn
	if opts.query != "" || opts.record {
		var err error
		if conn, err = a.connect(ctx); err != nil {
			return err
		}
		defer conn.Close(context.Background())
	}

	var (
		ds     *core.Dataset
		source string
		err    error
	)
	if opts.query != "" {
		ds, err = database.LoadQuery(ctx, conn, opts.query, maxRows)
		source = "sql"
	} else {
		ds, source, err = a.readCSV(cmd, args[0], maxRows)
	}
	if err != nil {
		return fmt.Errorf("%s: %s", core.FormatUserError(err), err)
	}

	var store core.RunStore = core.NewMemoryRunStore(1)
	if opts.record {
		runs := database.NewRunStore(conn)
		if err := runs.Migrate(ctx); err != nil {
			return err
		}
		store = runs
	}

	run, err := a.newService(store).Infer(ctx, core.InferRequest{
		Dataset:    ds,
		Source:     source,
		Classifier: opts.classifier,
	})
	if err != nil {
		return fmt.Errorf("%s: %s", core.FormatUserError(err), err)
	}

	if opts.codes {
		return a.write(cmd, run)
	}
	return a.write(cmd, run.Metadata)
}

func (a *app) readCSV(cmd *cobra.Command, path string, maxRows int) (*core.Dataset, string, error) {
	var (
		r      io.Reader
		source string
	)
	if path == "-" {
		r, source = cmd.InOrStdin(), "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		r, source = f, filepath.Base(path)
	}

	ds, err := core.ReadCSV(r, core.CSVOptions{
		MaxBytes: a.cfg.Inference.MaxFileSize,
		MaxRows:  maxRows,
	})
	return ds, source, err
}

// connect opens a single connection to DATABASE_URL.
func (a *app) connect(ctx context.Context) (*pgx.Conn, error) {
	if a.cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL (or --database-url) is required for this command")
	}
	conn, err := pgx.Connect(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return conn, nil
}
