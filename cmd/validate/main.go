// Command validate checks a CSV of prediction requests before it is used for
// batch scoring or load tests. It prints the distinct values found in the
// categorical and flag columns, then runs every row through the same
// validation and coercion the service applies.
//
// Usage:
//
//	go run ./cmd/validate -in data/test.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/couchcryptid/road-risk-service/internal/batch"
	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/gocarina/gocsv"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps the per-phase error listing.
const maxReported = 20

func main() {
	in := flag.String("in", "", "path to the request CSV")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	code := run(f, os.Stdout)
	f.Close()
	if code != 0 {
		os.Exit(code)
	}
}

func run(in io.Reader, out io.Writer) int {
	fmt.Fprintln(out, "=== Accident Risk Dataset Validation ===")
	fmt.Fprintln(out)

	rows, err := gocsv.CSVToMaps(in)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read csv: %v\n", err)
		return 1
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "FATAL: no data rows")
		return 1
	}

	printInventory(out, rows)

	// ── Run validation phases ──
	requests := make([]validRow, 0, len(rows))
	phases := []*phase{
		validateHeader(rows[0]),
		validateSchema(rows, &requests),
		validateCoercion(requests),
	}

	// ── Report results ──
	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d rows, %d passed validation\n", len(rows), len(requests))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(out, "  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// validRow is a row that passed schema validation, with its CSV line number.
type validRow struct {
	line int
	req  domain.PredictionRequest
}

// ── Inventory ──
// Distinct values of every categorical and flag column.

func printInventory(out io.Writer, rows []map[string]string) {
	var cols []string
	for _, c := range domain.Columns() {
		if domain.IsCategorical(c) || slices.Contains(domain.FlagColumns, c) {
			cols = append(cols, c)
		}
	}

	for _, c := range cols {
		seen := map[string]bool{}
		for _, row := range rows {
			if v, ok := row[c]; ok {
				seen[v] = true
			}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		fmt.Fprintf(out, "%s: %q\n", c, values)
	}
}

// ── Phase 1: Header ──

func validateHeader(first map[string]string) *phase {
	p := &phase{name: "Phase 1: Header completeness"}
	for _, c := range domain.Columns() {
		if _, ok := first[c]; !ok {
			p.errorf("missing column %q", c)
		}
	}
	return p
}

// ── Phase 2: Schema ──

func validateSchema(rows []map[string]string, valid *[]validRow) *phase {
	p := &phase{name: "Phase 2: Schema validation"}
	for i, row := range rows {
		line := i + 2
		req, err := domain.Validate(batch.RowPayload(row))
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				p.errorf("line %d: %s", line, verr.Message)
			} else {
				p.errorf("line %d: %v", line, err)
			}
			continue
		}
		*valid = append(*valid, validRow{line: line, req: req})
	}
	return p
}

// ── Phase 3: Coercion ──

func validateCoercion(rows []validRow) *phase {
	p := &phase{name: "Phase 3: Integer coercion"}
	for _, r := range rows {
		if _, err := domain.Normalize(r.req); err != nil {
			p.errorf("line %d: %v", r.line, err)
		}
	}
	return p
}
