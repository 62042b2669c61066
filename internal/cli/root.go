// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/nbfix/internal/config"
	"github.com/aidanlsb/nbfix/internal/widgets"
)

// options holds flag values and the settings resolved from them.
type options struct {
	policy     widgets.Policy
	configPath string
	indent     int
	dryRun     bool
	failFast   bool
	jsonOutput bool
	verbose    bool

	extension string
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "nbfix <notebook.ipynb> [notebook.ipynb ...]",
		Short: "Repair notebook widget metadata for GitHub rendering",
		Long: `nbfix rewrites metadata.widgets in Jupyter notebooks so renderers that
expect a top-level "state" key (such as GitHub) can display them.

Two policies are available and produce different files:
  restructure  wrap legacy widget state as {"state": {...}}
  delete       remove metadata.widgets entirely

Files are only rewritten when they change. Missing files and files without
the notebook extension are reported and skipped.`,
		Version:       currentVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// run prints usage; a broken config must not hide it.
				return nil
			}
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}
	cmd.SetVersionTemplate("nbfix {{.Version}}\n")

	flags := cmd.Flags()
	flags.SetNormalizeFunc(normalizeFlagName)
	flags.Var(&opts.policy, "policy", "How to repair widget metadata: "+strings.Join(widgets.PolicyNames(), " or "))
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (TOML or YAML)")
	flags.IntVar(&opts.indent, "indent", 1, "Spaces per indentation level in rewritten files")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report what would change without writing files")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first notebook that cannot be read or parsed")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details to stderr")

	return cmd
}

// normalizeFlagName accepts the config file spelling of a flag, so
// --fail_fast and --dry_run work like --fail-fast and --dry-run.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// resolve merges config file settings under any flags set explicitly.
func (o *options) resolve(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path := config.ResolvePath(o.configPath)
	var (
		cfg *config.Config
		err error
	)
	if o.configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return o.fail(cmd, ErrConfigInvalid, err, "Check the config file or pass --config")
	}
	o.logger.Debug("loaded config", "path", path, "policy", cfg.Policy)

	flags := cmd.Flags()
	if !flags.Changed("policy") {
		if err := o.policy.Set(cfg.Policy); err != nil {
			return o.fail(cmd, ErrConfigInvalid, err, "")
		}
	}
	if !flags.Changed("indent") {
		o.indent = cfg.Indent
	} else if o.indent < 0 || o.indent > 8 {
		return o.fail(cmd, ErrInvalidInput, fmt.Errorf("--indent must be between 0 and 8, got %d", o.indent), "")
	}
	if !flags.Changed("fail-fast") {
		o.failFast = cfg.FailFast
	}
	o.extension = cfg.Extension
	return nil
}

// fail reports err once, in the active output mode, and returns it so the
// process exits non-zero.
func (o *options) fail(cmd *cobra.Command, code string, err error, suggestion string) error {
	cmd.SilenceErrors = true
	if o.jsonOutput {
		outputError(cmd.OutOrStdout(), code, err.Error(), nil, suggestion)
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// Execute runs the CLI.
func Execute() error {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}
