package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cdim-evaluator/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [revision]",
	Short: "Show the bundled document schemas",
	Long:  "Without arguments, list the bundled schema revisions. With a revision, print its YAML description.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		src, err := schema.EmbeddedSource(args[0])
		if err != nil {
			return fmt.Errorf("unknown schema revision %q (available: %v)", args[0], schema.EmbeddedRevisions())
		}
		_, err = out.Write(src)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Revision", "Selected by", "Description"})
	for _, rev := range schema.EmbeddedRevisions() {
		s, err := schema.LoadEmbedded(rev)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{s.Revision, s.Discriminator, s.Description})
	}
	t.Render()
	return nil
}
