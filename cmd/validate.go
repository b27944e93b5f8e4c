package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cdim-evaluator/internal/schema"
)

// Output formats of the validate command.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate evaluation documents",
	Long: "Validate one or more evaluation documents and report every schema violation.\n" +
		"Use - to read a document from standard input. Exits non-zero if any document is invalid.",
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", outputTable, "Output format: table, json or yaml")
}

// fileResult is the outcome of validating one document.
type fileResult struct {
	File       string             `json:"file" yaml:"file"`
	Valid      bool               `json:"valid" yaml:"valid"`
	Revision   string             `json:"revision,omitempty" yaml:"revision,omitempty"`
	SizeBytes  int                `json:"size_bytes" yaml:"size_bytes"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

var errInvalidDocuments = errors.New("invalid evaluation documents")

func runValidate(cmd *cobra.Command, args []string) error {
	switch validateFlags.output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", validateFlags.output)
	}

	v := schema.New()
	results := make([]fileResult, 0, len(args))
	for _, path := range args {
		results = append(results, validateFile(v, path, cmd.InOrStdin()))
	}

	if err := writeResults(cmd.OutOrStdout(), validateFlags.output, results); err != nil {
		return err
	}

	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidDocuments, invalid, len(results))
	}
	return nil
}

func validateFile(v *schema.Validator, path string, stdin io.Reader) fileResult {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fileResult{File: path, Error: err.Error()}
	}
	return validateBytes(v, path, data)
}

func validateBytes(v *schema.Validator, name string, data []byte) fileResult {
	res := fileResult{File: name, SizeBytes: len(data)}
	value, err := schema.Parse(data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Revision = v.Revision(value)
	if _, err := v.Validate(value); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			res.Violations = verr.Violations
		}
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	return res
}

func writeResults(w io.Writer, format string, results []fileResult) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(results)
	}

	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	invalid := 0
	for _, r := range results {
		name := filepath.Base(r.File)
		if r.Valid {
			fmt.Fprintf(w, "%s %s %s\n", ok("VALID  "), name,
				dim(fmt.Sprintf("(%s, %s)", r.Revision, humanize.Bytes(uint64(r.SizeBytes)))))
			continue
		}
		invalid++
		if len(r.Violations) == 0 {
			fmt.Fprintf(w, "%s %s: %s\n", bad("INVALID"), name, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", bad("INVALID"), name,
			dim(fmt.Sprintf("(%s, %d violation(s))", r.Revision, len(r.Violations))))

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Path", "Code", "Reason"})
		for i, v := range r.Violations {
			t.AppendRow(table.Row{i + 1, v.Path, v.Code, v.Reason})
		}
		t.Render()
	}

	fmt.Fprintf(w, "\n%d document(s) checked, %d invalid\n", len(results), invalid)
	return nil
}
