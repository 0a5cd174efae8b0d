package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-diecut/pkg/orchestrator"
)

type updateFlags struct {
	source      string
	ref         string
	answersFile string
	dryRun      bool
	format      string
}

func newUpdateCmd(a *app) *cobra.Command {
	flags := &updateFlags{}
	cmd := &cobra.Command{
		Use:   "update [PROJECT]",
		Short: "Update a generated project to a newer template revision",
		Long: `update re-renders the template at the recorded and at the requested revision
using the saved answers and merges the difference into the project.

Files you changed are never overwritten: conflicting updates are written next
to the file as <file>.rej and files removed from the template are flagged with
<file>.removing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			project := "."
			if len(args) == 1 {
				project = args[0]
			}
			o, err := a.newOrchestrator()
			if err != nil {
				return err
			}

			report, err := o.Update(cmd.Context(), orchestrator.UpdateRequest{
				ProjectDir:  project,
				Source:      flags.source,
				Ref:         flags.ref,
				AnswersFile: flags.answersFile,
				DryRun:      flags.dryRun,
			})
			if err != nil {
				return err
			}
			return printUpdate(cmd.OutOrStdout(), flags.format, project, report)
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "", "Template source overriding the one recorded in the answers file")
	cmd.Flags().StringVar(&flags.ref, "ref", "", "Git branch, tag or commit to update to")
	cmd.Flags().StringVar(&flags.answersFile, "answers-file", "", "Answers file name when the template declares a custom one")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Classify changes without applying them")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Output format: text or yaml")
	return cmd
}

func printUpdate(out io.Writer, format, project string, report orchestrator.UpdateReport) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}

	if !report.HasChanges() {
		fmt.Fprintf(out, "%s Project %s is already up to date\n", successStyle.Render("✓"), pathStyle.Render(project))
		return nil
	}

	title := "Update complete:"
	if report.DryRun {
		title = "Dry run:"
	}
	fmt.Fprintf(out, "%s %s %s\n", successStyle.Render("✓"), title, report.String())

	sections := []struct {
		marker string
		label  string
		files  []string
	}{
		{headingStyle.Render("↻"), "Updated:", report.FilesUpdated},
		{successStyle.Render("+"), "Added:", report.FilesAdded},
		{errorStyle.Render("-"), "Marked for removal (review manually):", report.FilesRemoved},
		{warningStyle.Render("!"), "Conflicts (see .rej files):", report.Conflicts},
	}
	for _, s := range sections {
		if len(s.files) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n  %s %s\n", s.marker, s.label)
		for _, f := range s.files {
			fmt.Fprintln(out, listItemStyle.Render(f))
		}
	}
	if report.DryRun {
		fmt.Fprintf(out, "\n%s\n", mutedStyle.Render("Dry run: nothing applied."))
	}
	return nil
}
