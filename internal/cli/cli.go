package cli

import (
	"context"
	"errors"
	"io"

	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/specialistvlad/pipegraph/internal/emit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is reported by --version.
var Version = "0.1.0"

const (
	exitInvalid = 1
	exitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError   { return &ExitError{Code: exitUsage, Message: err.Error()} }
func invalidError(err error) *ExitError { return &ExitError{Code: exitInvalid, Message: err.Error()} }

// options collects the flags shared by every command.
type options struct {
	configFile string
	logLevel   string
	logFormat  string
	format     string
	output     string
}

// Execute runs the command line in args. Errors that are not already an
// ExitError come from flag or argument parsing and map to the usage code.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return usageError(err)
}

// NewRootCommand builds the pipegraph command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pipegraph",
		Short: "Compile typed bioinformatics pipeline definitions",
		Long: `pipegraph reads pipeline definitions written in HCL, checks every
binding against the type registry, resolves scatter/gather types and
emits a portable description of the validated graph.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: "+app.DefaultConfigFile+" if present)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "logging level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log output format: text or json")

	root.AddCommand(
		newValidateCommand(opts, outW, errW),
		newEmitCommand(opts, outW, errW),
		newGroupingsCommand(opts, outW, errW),
		newInspectCommand(opts, outW, errW),
		newTypesCommand(opts, outW, errW),
	)
	return root
}

func addFormatFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(emit.FormatYAML), "output format: yaml, json or hcl")
}

// config merges the config file, flags and positional paths. Flags win over
// the file only when set explicitly.
func (o *options) config(cmd *cobra.Command, paths []string) (*app.Config, error) {
	path, required := o.configFile, true
	if path == "" {
		path, required = app.DefaultConfigFile, false
	}
	fc, err := app.LoadFileConfig(path, required)
	if err != nil {
		return nil, usageError(err)
	}

	cfg := app.Config{
		Paths:     fc.Paths,
		LogLevel:  fc.LogLevel,
		LogFormat: fc.LogFormat,
		Format:    emit.Format(fc.Format),
		Output:    fc.Output,
	}
	if len(paths) > 0 {
		cfg.Paths = paths
	}

	flags := cmd.Flags()
	override(flags, "log-level", &cfg.LogLevel, o.logLevel)
	override(flags, "log-format", &cfg.LogFormat, o.logFormat)
	override(flags, "output", &cfg.Output, o.output)
	format := string(cfg.Format)
	override(flags, "format", &format, o.format)
	cfg.Format = emit.Format(format)

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return validated, nil
}

// override sets dst from a flag the command defines when the flag was given
// or dst is still empty.
func override(flags *pflag.FlagSet, name string, dst *string, value string) {
	f := flags.Lookup(name)
	if f == nil {
		return
	}
	if f.Changed || *dst == "" {
		*dst = value
	}
}
