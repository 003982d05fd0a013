// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/workflow"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps <workflow status file>",
	Short: "List the started steps of a workflow",
	Long: `List the started steps of a workflow, by start time.

The argument is a file holding the status document of the workflow, as JSON or YAML.
Use "-" to read the document from stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := newSession(ctx)
		defer s.close()

		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			wrapFatalln("read workflow status", err)
			return
		}

		opts := []workflow.Option{workflow.Logger(s.l)}
		if s.store != nil || s.cfg.Mode == artifact.ModeLocal {
			opts = append(opts, workflow.Backend(s.cfg, s.store))
		}
		wf, err := workflow.ParseWorkflow(data, opts...)
		if err != nil {
			wrapFatalln("parse workflow status", err)
			return
		}
		steps, err := wf.Steps(ctx, workflow.StepFilter{
			Names:  stowageFlags.steps.Names,
			Keys:   stowageFlags.steps.Keys,
			Phases: stowageFlags.steps.Phases,
			Types:  stowageFlags.steps.Types,
			IDs:    stowageFlags.steps.IDs,
		})
		if err != nil {
			wrapFatalln("list steps", err)
			return
		}
		printSteps(os.Stdout, steps, time.Now())
	},
}

func phaseColor(phase string) func(string, ...interface{}) string {
	switch phase {
	case "Succeeded":
		return color.GreenString
	case "Failed", "Error":
		return color.RedString
	case "Running", "Pending":
		return color.YellowString
	default:
		return fmt.Sprintf
	}
}

func printSteps(w io.Writer, steps []*workflow.Step, now time.Time) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("ID", "NAME", "PHASE", "TYPE", "KEY", "STARTED")
	for _, step := range steps {
		table.AddRow(
			step.ID,
			step.DisplayName,
			phaseColor(step.Phase)(step.Phase),
			step.Type,
			step.Key,
			units.HumanDuration(now.Sub(step.StartedAt))+" ago",
		)
	}
	_, _ = fmt.Fprintln(w, table)
}

func init() {
	addStepFilterFlags(stepsCmd)
	rootCmd.AddCommand(stepsCmd)
}
