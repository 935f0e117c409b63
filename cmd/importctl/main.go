package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/auth"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/extract"
	"github.com/joseph-ayodele/hr-ingest/internal/pipeline"
	repo "github.com/joseph-ayodele/hr-ingest/internal/repository"
)

const usage = `usage: importctl <command> [flags]

commands:
  preview  -file staff.csv|staff.xlsx       classify rows without writing
  commit   -file staff.csv [-dry-run] [-allow-invalid]
  token    -user USER_ID                   mint a bearer token
  role     -user USER_ID -role hr          assign a role
`

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError(usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var (
		file         = fs.String("file", "", "CSV or spreadsheet to import")
		dryRun       = fs.Bool("dry-run", false, "validate everything but skip the write")
		allowInvalid = fs.Bool("allow-invalid", false, "skip invalid rows instead of refusing the commit")
		user         = fs.String("user", "", "user id (token subject)")
		role         = fs.String("role", constants.RoleHR, "role to assign")
		inmem        = fs.Bool("inmem", false, "use an in-memory SQLite database")
	)
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	cfg.Log.Format = "text"
	logger := common.NewLogger(cfg.Log)
	ctx := context.Background()

	if cmd == "token" {
		if *user == "" || cfg.Auth.JWTSecret == "" {
			printError("Error: -user and JWT_SECRET are required\n")
			os.Exit(2)
		}
		tok, err := auth.New(cfg.Auth, nil, logger).IssueToken(*user)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	if *inmem {
		cfg.Database.DSN = "sqlite:file:importctl?mode=memory"
	}
	if cfg.Database.DSN == "" {
		printError("Error: DB_URL is required (or pass -inmem)\n")
		os.Exit(2)
	}
	db, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		printError("Error: opening DB: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		printError("Error: migrate: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "role":
		if *user == "" {
			printError("Error: -user is required\n")
			os.Exit(2)
		}
		if err := repo.NewRoleRepository(db, logger).SetRole(ctx, *user, *role); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s -> %s\n", *user, *role)

	case "preview", "commit":
		if *file == "" {
			printError("Error: -file is required\n")
			os.Exit(2)
		}
		data, err := os.ReadFile(*file)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		bulk := pipeline.NewBulk(logger, repo.NewEmployeeRepository(db, logger))
		out, err := run(ctx, bulk, cmd, *file, data, pipeline.CommitOptions{DryRun: *dryRun, AllowInvalid: *allowInvalid})
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)

	default:
		printError(usage)
		os.Exit(2)
	}
}

func run(ctx context.Context, bulk *pipeline.Bulk, cmd, file string, data []byte, opts pipeline.CommitOptions) (any, error) {
	format := constants.DetectFormat(file, "")
	switch format {
	case constants.FormatCSV:
		if cmd == "preview" {
			return bulk.Preview(ctx, data)
		}
		return bulk.Commit(ctx, data, opts)
	case constants.FormatExcel:
		rows, err := extract.FirstSheetRows(data, constants.IsLegacyExcel(file))
		if err != nil {
			return nil, &common.ParseError{Format: string(format), Err: err}
		}
		if cmd == "preview" {
			return bulk.PreviewRows(ctx, rows)
		}
		return bulk.CommitRows(ctx, rows, opts)
	default:
		return nil, &common.UnsupportedFormatError{FileName: filepath.Base(file), MimeType: strings.TrimPrefix(filepath.Ext(file), ".")}
	}
}
