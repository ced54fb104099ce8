package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/app"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/dialect"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/services"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "welfarectl",
		Short: "Translate welfare questions to SQL and check query safety",
		Long: `welfarectl runs the welfare NL2SQL pipeline locally.

Questions are translated with the configured language model, falling back to
built-in patterns when no model is available. SQL is normalized to T-SQL and
checked by the same safety rules the server applies before execution.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath, "Path to the YAML configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline activity to stderr")

	root.AddCommand(
		newTranslateCmd(opts),
		newValidateCmd(),
		newNormalizeCmd(),
		newExplainCmd(),
		newSchemaCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func newTranslateCmd(opts *rootOptions) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "translate <question>",
		Short: "Translate a question into validated SQL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath, Version)
			if err != nil {
				return err
			}
			cfg.ResolveDockerHosts()

			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := app.Build(cmd.Context(), cfg, app.Options{SkipHistory: true, SkipExecutor: !execute}, nil, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Service.Ask(cmd.Context(), models.TranslationRequest{
				Question: strings.Join(args, " "),
				Execute:  execute,
			})
			if err != nil {
				return err
			}
			if resp.Result != nil {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return writeJSON(cmd.OutOrStdout(), resp.Translation)
		},
	}
	cmd.Flags().BoolVar(&execute, "execute", false, "Run the SQL against the configured database when it is safe")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <sql>",
		Short: "Normalize SQL to T-SQL and report its safety verdict",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalizer, err := newNormalizer()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			normalized := normalizer.Normalize(query)
			verdict := sqlparse.Validate(normalized)

			return writeJSON(cmd.OutOrStdout(), models.SQLValidation{
				OriginalSQL:   query,
				NormalizedSQL: normalized,
				Safe:          verdict.Safe,
				Reason:        verdict.Reason,
				Message:       verdict.Reason.Message(),
			})
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	var listRules bool

	cmd := &cobra.Command{
		Use:   "normalize <sql>",
		Short: "Rewrite SQL into the T-SQL dialect of the welfare schema",
		Args: func(cmd *cobra.Command, args []string) error {
			if listRules {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			normalizer, err := newNormalizer()
			if err != nil {
				return err
			}
			if listRules {
				for _, r := range normalizer.Rules() {
					fmt.Fprintln(cmd.OutOrStdout(), r)
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), normalizer.Normalize(strings.Join(args, " ")))
			return nil
		},
	}
	cmd.Flags().BoolVar(&listRules, "rules", false, "List the rewrite rules in the order they apply")
	return cmd
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <sql>",
		Short: "Describe what a query does in plain English",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), services.Explain(strings.Join(args, " ")))
		},
	}
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema catalog, or check it against the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Welfare()
			if err != nil {
				return err
			}
			if !check {
				return writeJSON(cmd.OutOrStdout(), cat.Describe())
			}

			cfg, err := config.LoadFile(opts.configPath, Version)
			if err != nil {
				return err
			}
			cfg.ResolveDockerHosts()
			if !cfg.Datasource.Enabled() {
				return fmt.Errorf("schema check needs a datasource: set MSSQL_HOST")
			}

			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := app.Build(cmd.Context(), cfg, app.Options{SkipHistory: true}, nil, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			drift, err := services.CheckSchema(cmd.Context(), a.Catalog, a.Executor)
			if err != nil {
				return err
			}
			if len(drift) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema matches the database")
				return nil
			}
			for _, d := range drift {
				fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			return fmt.Errorf("%d schema differences found", len(drift))
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Compare the catalog with the live database")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func newNormalizer() (*dialect.Normalizer, error) {
	cat, err := catalog.Welfare()
	if err != nil {
		return nil, err
	}
	return dialect.New(cat)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
