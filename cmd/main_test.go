package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"cdim-evaluator/internal/samples"
	"cdim-evaluator/internal/schema"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateBytes(t *testing.T) {
	v := schema.New()

	tests := []struct {
		name       string
		data       []byte
		valid      bool
		revision   string
		violations bool
	}{
		{"current", samples.Contoso(), true, schema.RevisionCurrent, false},
		{"legacy", samples.LegacyContoso(), true, schema.RevisionLegacy, false},
		{"malformed", []byte(`{"meta"`), false, "", false},
		{"schema", []byte(`{"metadata": {}}`), false, schema.RevisionLegacy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validateBytes(v, tt.name+".json", tt.data)
			if res.Valid != tt.valid {
				t.Errorf("expected valid=%v, got %v (%s)", tt.valid, res.Valid, res.Error)
			}
			if res.Revision != tt.revision {
				t.Errorf("expected revision %q, got %q", tt.revision, res.Revision)
			}
			if (len(res.Violations) > 0) != tt.violations {
				t.Errorf("expected violations=%v, got %d", tt.violations, len(res.Violations))
			}
			if res.SizeBytes != len(tt.data) {
				t.Errorf("expected size %d, got %d", len(tt.data), res.SizeBytes)
			}
		})
	}
}

func TestValidateCommand_JSONOutput(t *testing.T) {
	good := writeTemp(t, "contoso.json", samples.Contoso())
	bad := writeTemp(t, "bad.json", []byte(`{"meta": {}}`))

	out, err := execute(t, "", "validate", "-o", "json", good, bad)

	if !errors.Is(err, errInvalidDocuments) {
		t.Fatalf("expected errInvalidDocuments, got %v", err)
	}
	var results []fileResult
	if jerr := json.Unmarshal([]byte(out), &results); jerr != nil {
		t.Fatalf("output is not JSON: %v\n%s", jerr, out)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Valid || results[1].Valid {
		t.Errorf("expected [valid, invalid], got [%v, %v]", results[0].Valid, results[1].Valid)
	}
	if len(results[1].Violations) == 0 {
		t.Error("expected violations for the invalid document")
	}
}

func TestValidateCommand_YAMLFromStdin(t *testing.T) {
	out, err := execute(t, string(samples.LegacyContoso()), "validate", "--output", "yaml", "-")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var results []fileResult
	if yerr := yaml.Unmarshal([]byte(out), &results); yerr != nil {
		t.Fatalf("output is not YAML: %v\n%s", yerr, out)
	}
	if len(results) != 1 || results[0].File != "-" || results[0].Revision != schema.RevisionLegacy {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestValidateCommand_TableOutput(t *testing.T) {
	bad := writeTemp(t, "partial.json", []byte(`{"meta": {"framework": 1}}`))

	out, err := execute(t, "", "validate", "-o", "table", bad)

	if err == nil {
		t.Fatal("expected error for invalid document")
	}
	for _, want := range []string{"INVALID", "partial.json", "meta.framework", "expected string, got number", "1 document(s) checked, 1 invalid"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestValidateCommand_MissingFile(t *testing.T) {
	out, err := execute(t, "", "validate", "-o", "table", filepath.Join(t.TempDir(), "nope.json"))

	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(out, "INVALID") {
		t.Errorf("expected INVALID line, got %s", out)
	}
}

func TestValidateCommand_UnknownFormat(t *testing.T) {
	good := writeTemp(t, "contoso.json", samples.Contoso())

	_, err := execute(t, "", "validate", "-o", "xml", good)

	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "", "schema")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"current", "legacy", "metadata"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected listing to contain %q\n%s", want, out)
		}
	}

	out, err = execute(t, "", "schema", "current")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "revision: current") {
		t.Errorf("expected raw YAML, got %s", out)
	}

	if _, err := execute(t, "", "schema", "v0"); err == nil {
		t.Error("expected error for unknown revision")
	}
}
