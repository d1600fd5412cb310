// Command validate_templates loads every template definition in a directory
// and prints what parsed and what failed. Useful before deploying new
// checklist definitions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/template"
)

func main() {
	dir := flag.String("dir", "templates", "directory of template definition files")
	flag.Parse()

	log := logger.NewNop()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", *dir, err)
		os.Exit(1)
	}

	bad := 0
	good := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		t, err := template.ParseFile(filepath.Join(*dir, e.Name()))
		if err != nil {
			bad++
			var serr *template.SchemaError
			if errors.As(err, &serr) {
				fmt.Printf("FAIL %s\n", e.Name())
				for _, v := range serr.Violations {
					fmt.Printf("     %s: %s\n", v.Path, v.Reason)
				}
			} else {
				fmt.Printf("FAIL %s: %v\n", e.Name(), err)
			}
			continue
		}
		good++
		fmt.Printf("OK   %s  (%s v%s)\n", e.Name(), t.Meta.TemplateID, t.Meta.Version)
	}

	// Confirm the registry agrees with the per-file pass.
	registry := template.NewRegistry(*dir, log)
	loaded, err := registry.LoadAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "registry load failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d valid, %d invalid, %d served by registry\n", good, bad, len(loaded))
	if bad > 0 {
		os.Exit(1)
	}
}
