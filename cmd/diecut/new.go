package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-diecut/pkg/orchestrator"
)

type newFlags struct {
	output    string
	data      []string
	dataFile  string
	defaults  bool
	overwrite bool
	ref       string
	dryRun    bool
	format    string
}

func newNewCmd(a *app) *cobra.Command {
	flags := &newFlags{}
	cmd := &cobra.Command{
		Use:   "new TEMPLATE",
		Short: "Generate a new project from a template",
		Example: `  diecut new gh:acme/rust-cli -o my-tool
  diecut new ./templates/service -o svc -d project_name=billing --defaults
  diecut new gh:acme/rust-cli --ref v2.0.0 --dry-run --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			data, err := parseData(flags.data)
			if err != nil {
				return err
			}
			o, err := a.newOrchestrator()
			if err != nil {
				return err
			}

			result, err := o.Generate(cmd.Context(), orchestrator.GenerateRequest{
				Template:  args[0],
				Output:    flags.output,
				Data:      data,
				DataFile:  flags.dataFile,
				Defaults:  flags.defaults,
				Overwrite: flags.overwrite,
				Ref:       flags.ref,
				DryRun:    flags.dryRun,
			})
			if err != nil {
				return err
			}
			return printGenerate(cmd.OutOrStdout(), flags, result)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", ".", "Output directory")
	cmd.Flags().StringArrayVarP(&flags.data, "data", "d", nil, "Set a variable value (repeatable): -d key=value")
	cmd.Flags().StringVar(&flags.dataFile, "data-file", "", "YAML file of variable values")
	cmd.Flags().BoolVar(&flags.defaults, "defaults", false, "Use default values without prompting")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Generate into a non-empty output directory")
	cmd.Flags().StringVar(&flags.ref, "ref", "", "Git branch, tag or commit of the template")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show the files that would be generated without writing them")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Output format: text or yaml")
	return cmd
}

func parseData(pairs []string) (map[string]string, error) {
	data := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --data value %q: expected KEY=VALUE", pair)
		}
		data[key] = value
	}
	return data, nil
}

func checkFormat(format string) error {
	switch format {
	case "text", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported --format %q: use text or yaml", format)
	}
}

type planFileView struct {
	Path   string `yaml:"path"`
	Action string `yaml:"action"`
	Size   int    `yaml:"size"`
	Digest string `yaml:"digest"`
}

type generateView struct {
	Template string         `yaml:"template"`
	Version  string         `yaml:"version,omitempty"`
	Output   string         `yaml:"output"`
	Commit   string         `yaml:"commit,omitempty"`
	DryRun   bool           `yaml:"dry_run"`
	Files    []planFileView `yaml:"files"`
	Warnings []string       `yaml:"warnings,omitempty"`
}

func printGenerate(out io.Writer, flags *newFlags, result orchestrator.GenerateResult) error {
	view := generateView{
		Template: result.Template.Config.Template.Name,
		Version:  result.Template.Config.Template.Version,
		Output:   flags.output,
		Commit:   result.Source.Commit,
		DryRun:   result.DryRun,
		Warnings: result.Plan.Warnings,
	}
	rendered, copied := 0, 0
	for _, f := range result.Plan.Files {
		action := "create"
		if f.Copy {
			action = "copy"
			copied++
		} else {
			rendered++
		}
		view.Files = append(view.Files, planFileView{Path: f.Path, Action: action, Size: len(f.Content), Digest: f.Digest})
	}

	if flags.format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}

	if result.DryRun {
		fmt.Fprintf(out, "%s Dry run: files that would be generated in %s\n", headingStyle.Render("==>"), pathStyle.Render(flags.output))
		for _, f := range view.Files {
			fmt.Fprintf(out, "  %s %s\n", successStyle.Render(fmt.Sprintf("%-6s", f.Action)), f.Path)
		}
		fmt.Fprintf(out, "\nSummary: %d rendered, %d copied\n", rendered, copied)
		fmt.Fprintf(out, "%s\n", mutedStyle.Render("Dry run: no files written."))
		return nil
	}

	fmt.Fprintf(out, "%s Generated %s in %s\n", successStyle.Render("✓"), view.Template, pathStyle.Render(flags.output))
	fmt.Fprintf(out, "  %d rendered, %d copied\n", len(result.Project.FilesCreated), len(result.Project.FilesCopied))
	for _, w := range view.Warnings {
		fmt.Fprintf(out, "%s %s\n", warningStyle.Render("warning:"), w)
	}
	return nil
}
