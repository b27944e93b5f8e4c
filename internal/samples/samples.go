// Package samples bundles example evaluation documents used by the demo ingest
// source and by tests.
package samples

import (
	"embed"
	"sort"
	"strings"
)

//go:embed *.json
var files embed.FS

// Contoso returns the reference evaluation in the current document shape.
func Contoso() []byte {
	return mustRead("contoso.json")
}

// LegacyContoso returns the same evaluation in the legacy metadata-keyed shape.
func LegacyContoso() []byte {
	return mustRead("legacy_contoso.json")
}

// Names lists the bundled sample file names.
func Names() []string {
	entries, _ := files.ReadDir(".")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Read returns a bundled sample by file name.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}

func mustRead(name string) []byte {
	data, err := files.ReadFile(name)
	if err != nil {
		panic("samples: " + err.Error())
	}
	return data
}
