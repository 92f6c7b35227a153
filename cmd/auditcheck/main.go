// Command auditcheck validates an audit file from disk without the HTTP API.
//
// Usage:
//
//	auditcheck [-key signer.pem] [-json] [-warnings] file.json
//
// Tolerances and policy flags come from the same environment variables as
// the API (DELTA_LINE, CONTINUOUS_LINES, SIGN_VALIDATION, ...). Without -key
// signature checks are skipped. The exit status is 0 for a valid file, 1 for
// an invalid one and 2 when the file cannot be read. A .env file in the
// working directory is read first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/josh-kwaku/audit-validator/internal/config"
	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/logging"
	"github.com/josh-kwaku/audit-validator/internal/report"
	"github.com/josh-kwaku/audit-validator/internal/service"
	"github.com/josh-kwaku/audit-validator/internal/signer"
	"github.com/josh-kwaku/audit-validator/internal/validate"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitFailure = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("auditcheck", flag.ContinueOnError)
	flags.SetOutput(stderr)
	keyPath := flags.String("key", "", "PEM public key used to verify document signatures")
	asJSON := flags.Bool("json", false, "print the findings as JSON lines")
	warnings := flags.Bool("warnings", true, "include warnings in the output")
	logLevel := flags.String("log-level", "error", "log level for engine diagnostics")
	if err := flags.Parse(args); err != nil {
		return exitFailure
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: auditcheck [flags] file.json")
		return exitFailure
	}

	ctx = logging.WithLogger(ctx, logging.New(stderr, "auditcheck", *logLevel, "development"))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	cfg, err := config.LoadValidation()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	var verifier signer.Signer = signer.Accept{}
	if *keyPath != "" {
		key, err := signer.LoadPublicKeyFile(*keyPath)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitFailure
		}
		verifier = signer.NewRSAVerifier(key)
	} else {
		cfg.SignValidation = false
	}

	af, err := readAuditFile(flags.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	svc := service.NewValidationService(validate.NewEngine(cfg, verifier), nil)
	run, err := svc.Validate(ctx, af)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	for _, e := range run.Entries {
		if e.Severity == report.SeverityWarning && !*warnings {
			continue
		}
		if *asJSON {
			if err := enc.Encode(e); err != nil {
				fmt.Fprintln(stderr, "error:", err)
				return exitFailure
			}
			continue
		}
		fmt.Fprintf(stdout, "%-9s %s\n", e.Severity, e)
	}

	verdict := "valid"
	if !run.Valid {
		verdict = "invalid"
	}
	fmt.Fprintf(stderr, "%s: %s (%d errors, %d warnings)\n", flags.Arg(0), verdict, run.ErrorCount(), run.WarningCount())

	if !run.Valid {
		return exitInvalid
	}
	return exitValid
}

func readAuditFile(path string) (*domain.AuditFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readAuditFile: %w", err)
	}
	defer f.Close()

	var af domain.AuditFile
	if err := json.NewDecoder(f).Decode(&af); err != nil {
		return nil, fmt.Errorf("readAuditFile %s: %w", path, err)
	}
	return &af, nil
}
