package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/spf13/cobra"
)

func newValidateCommand(opts *options, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [PATH...]",
		Short: "Check a pipeline definition and report every error",
		Long: `Loads the .hcl files or directories given as PATH (or the paths of the
config file) and validates the pipeline. Exits with 1 when it is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, args)
			if err != nil {
				return err
			}
			a := app.NewApp(outW, errW, cfg)

			g, report, err := a.Compile(cmd.Context())
			if errors.Is(err, app.ErrInvalidPipeline) {
				for _, e := range report.Errors() {
					fmt.Fprintf(errW, "error: %v\n", e)
				}
				return &ExitError{Code: exitInvalid, Message: fmt.Sprintf("pipeline %q is invalid: %s", g.Name(), report.Summary())}
			}
			if err != nil {
				return invalidError(err)
			}

			fmt.Fprintf(outW, "pipeline %q is valid: %d inputs, %d steps, %d outputs\n",
				g.Name(), len(g.Inputs()), len(g.Steps()), len(g.Outputs()))
			return nil
		},
	}
}

func newEmitCommand(opts *options, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit [PATH...]",
		Short: "Write the portable description of a valid pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, args)
			if err != nil {
				return err
			}
			if _, err := app.NewApp(outW, errW, cfg).Emit(cmd.Context()); err != nil {
				return invalidError(err)
			}
			return nil
		},
	}
	addFormatFlag(cmd, opts)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the description to this file instead of stdout")
	return cmd
}

func newGroupingsCommand(opts *options, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groupings REF",
		Short: "Group reference sequences for parallel processing",
		Long: `Reads the sequence dictionary of REF (ref.fasta reads ref.dict; a .dict
path is read directly) and prints the sequence groupings with and without
the unmapped group.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, nil)
			if err != nil {
				return err
			}
			a := app.NewApp(outW, errW, cfg)
			res, err := a.Groupings(cmd.Context(), args[0])
			if err != nil {
				return invalidError(err)
			}
			return a.WriteGroupings(res)
		},
	}
	addFormatFlag(cmd, opts)
	return cmd
}

func newInspectCommand(opts *options, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect DESCRIPTION [TASK]",
		Short: "Check an emitted description and list its tasks",
		Long: `Reads a YAML or JSON description written by emit and checks that its
tasks are listed in dependency order. Without TASK the task order is
printed; with TASK that task is printed in the chosen format.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, nil)
			if err != nil {
				return err
			}
			a := app.NewApp(outW, errW, cfg)
			d, err := a.Inspect(args[0])
			if err != nil {
				return invalidError(err)
			}

			if len(args) == 2 {
				task, ok := d.Task(args[1])
				if !ok {
					return invalidError(fmt.Errorf("description %q has no task %q", d.Name, args[1]))
				}
				return a.WriteValue(task)
			}

			fmt.Fprintf(outW, "description %q (%s): %d tasks, %d dependencies\n", d.Name, d.ID, len(d.Tasks), len(d.Edges()))
			tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tKIND\tDEPENDS ON")
			for _, id := range d.Order() {
				t, _ := d.Task(id)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Kind, dash(strings.Join(t.DependsOn, ", ")))
			}
			return tw.Flush()
		},
	}
	addFormatFlag(cmd, opts)
	return cmd
}

func newTypesCommand(opts *options, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the built-in kinds and registered transforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, nil)
			if err != nil {
				return err
			}
			a := app.NewApp(outW, errW, cfg)

			tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tCLASS\tBASE\tSECONDARIES\tDOC")
			for _, k := range a.Kinds() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.Name, k.Kind, dash(k.Base), dash(strings.Join(k.Secondaries, " ")), k.Doc)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "TRANSFORM\tVERSION\tINPUTS\tOUTPUTS")
			for _, t := range a.TransformsInfo() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, dash(t.Version), strings.Join(t.Inputs, ", "), strings.Join(t.Outputs, ", "))
			}
			return tw.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
