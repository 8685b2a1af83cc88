package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/erdschema"
	"github.com/tordrt/erdschema/internal/config"
	"github.com/tordrt/erdschema/internal/logging"
	"github.com/tordrt/erdschema/internal/schema"
)

type cliFlags struct {
	input      string
	dbURL      string
	mysqlURL   string
	sqlitePath string
	tables     string
	exclude    string
	schemaName string
	format     string
	outputFile string
	outputDir  string
	title      string
	database   string
	noInfer    bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "erdschema",
		Short: "Compile a relational schema into an entity-relationship diagram",
		Long: `erdschema reads a schema from a YAML, JSON or DBML file, or from a live PostgreSQL, MySQL or SQLite database,
and writes it as a drawDB diagram document, DBML, markdown or compact text.
Relationships are inferred from <entity>_id field names unless --no-infer is set.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Schema file (.yaml, .yml, .json or .dbml)")
	flags.StringVar(&f.dbURL, "db-url", "", "PostgreSQL connection string")
	flags.StringVar(&f.mysqlURL, "mysql-url", "", "MySQL connection string")
	flags.StringVar(&f.sqlitePath, "sqlite", "", "SQLite database file path")
	flags.StringVarP(&f.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	flags.StringVar(&f.exclude, "exclude", "", "Tables to leave out (comma-separated, optional)")
	flags.StringVarP(&f.schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL, the DSN database for MySQL)")
	flags.StringVarP(&f.format, "format", "f", "", "Output format: "+strings.Join(erdschema.Formats, ", ")+" (default: all)")
	flags.StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	flags.StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory")
	flags.StringVar(&f.title, "title", "", "Diagram title (default: the schema title)")
	flags.StringVar(&f.database, "database", "", "Database tag written to the diagram (default: generic)")
	flags.BoolVar(&f.noInfer, "no-infer", false, "Do not infer relationships from <entity>_id fields")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: warn)")

	return cmd
}

// applyFlags lets explicitly set flags win over environment configuration
func applyFlags(cmd *cobra.Command, f *cliFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("title") {
		cfg.Output.Title = f.title
	}
	if changed("database") {
		cfg.Output.Database = f.database
	}
	if changed("no-infer") {
		cfg.Infer.Disabled = f.noInfer
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

func run(cmd *cobra.Command, f *cliFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := checkOutputFlags(cfg.Output.Format, f.outputFile, f.outputDir); err != nil {
		return err
	}

	s, err := loadSource(ctx, f, logger)
	if err != nil {
		return err
	}
	logger.Infow("loaded schema", "tables", len(s.Tables), "relationships", len(s.Relationships))

	out := &erdschema.OutputOptions{
		Format:    cfg.Output.Format,
		Writer:    cmd.OutOrStdout(),
		OutputDir: f.outputDir,
	}
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Warnw("failed to close output file", "error", err)
			}
		}()
		out.Writer = file
	}

	compileOpts := &erdschema.CompileOptions{
		Title:            cfg.Output.Title,
		Database:         cfg.Output.Database,
		DisableInference: cfg.Infer.Disabled,
		TableSuffixes:    cfg.Infer.TableSuffixes,
		Logger:           logger,
	}
	if compileOpts.TableSuffixes == nil {
		compileOpts.TableSuffixes = []string{}
	}

	if err := erdschema.CompileAndFormat(s, compileOpts, out); err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	logger.Infow("wrote diagram", "format", cfg.Output.Format, "output", describeOutput(f))
	return nil
}

// checkOutputFlags rejects flag combinations that cannot be written
func checkOutputFlags(format, outputFile, outputDir string) error {
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	if (format == "" || format == erdschema.FormatAll) && outputDir == "" {
		return fmt.Errorf("format all requires --output-dir; pick a single --format to write to a file or stdout")
	}
	return nil
}

// loadSource reads the schema from exactly one of the source flags
func loadSource(ctx context.Context, f *cliFlags, logger *zap.SugaredLogger) (*schema.Schema, error) {
	count := 0
	for _, v := range []string{f.input, f.dbURL, f.mysqlURL, f.sqlitePath} {
		if v != "" {
			count++
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("one of --input, --db-url, --mysql-url, or --sqlite must be specified")
	}
	if count > 1 {
		return nil, fmt.Errorf("only one of --input, --db-url, --mysql-url, or --sqlite can be specified")
	}

	tableList := parseTableList(f.tables)
	excludeList := parseTableList(f.exclude)

	if f.input != "" {
		logger.Debugw("loading schema file", "path", f.input)
		s, err := erdschema.LoadSchema(f.input)
		if err != nil {
			return nil, err
		}
		s.FilterTables(tableList, excludeList)
		return s, nil
	}

	url := databaseURL(f)
	logger.Debugw("extracting schema", "tables", tableList, "exclude", excludeList)
	s, err := erdschema.ExtractSchema(ctx, url, &erdschema.Options{
		Tables:        tableList,
		ExcludeTables: excludeList,
		SchemaName:    f.schemaName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return s, nil
}

// databaseURL turns the source flags into a URL understood by erdschema.ExtractSchema
func databaseURL(f *cliFlags) string {
	switch {
	case f.sqlitePath != "":
		return "sqlite://" + f.sqlitePath
	case f.mysqlURL != "":
		if strings.HasPrefix(f.mysqlURL, "mysql://") {
			return f.mysqlURL
		}
		return "mysql://" + f.mysqlURL
	default:
		return f.dbURL
	}
}

func describeOutput(f *cliFlags) string {
	switch {
	case f.outputDir != "":
		return f.outputDir
	case f.outputFile != "":
		return f.outputFile
	default:
		return "stdout"
	}
}

// parseTableList splits a comma-separated list, dropping blanks
func parseTableList(list string) []string {
	if list == "" {
		return nil
	}
	var tables []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

func execute(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
