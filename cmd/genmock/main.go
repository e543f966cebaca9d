// Command genmock writes a deterministic CSV of synthetic prediction requests
// for fixtures, batch scoring runs, and load tests. A fraction of rows can be
// corrupted so the rejection paths get exercised too.
//
// Usage:
//
//	go run ./cmd/genmock -rows 1000 -seed 42 -out data/mock/requests.csv
//	go run ./cmd/genmock -rows 200 -invalid-ratio 0.1 -out data/mock/mixed.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/gocarina/gocsv"
)

// mockRow is one generated request. Flags are written the way the source
// dataset writes them.
type mockRow struct {
	ID                   int    `csv:"id"`
	RoadType             string `csv:"road_type"`
	NumLanes             string `csv:"num_lanes"`
	Curvature            string `csv:"curvature"`
	SpeedLimit           string `csv:"speed_limit"`
	Lighting             string `csv:"lighting"`
	Weather              string `csv:"weather"`
	RoadSignsPresent     string `csv:"road_signs_present"`
	PublicRoad           string `csv:"public_road"`
	TimeOfDay            string `csv:"time_of_day"`
	Holiday              string `csv:"holiday"`
	SchoolSeason         string `csv:"school_season"`
	NumReportedAccidents string `csv:"num_reported_accidents"`
}

var speedLimits = []int{25, 35, 45, 60, 70}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.Int("rows", 1000, "number of rows to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	out := flag.String("out", "", "output CSV path")
	invalidRatio := flag.Float64("invalid-ratio", 0, "fraction of rows to corrupt, 0 to 1")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *rows <= 0 {
		return fmt.Errorf("-rows must be positive, got %d", *rows)
	}
	if *invalidRatio < 0 || *invalidRatio > 1 {
		return fmt.Errorf("-invalid-ratio must be between 0 and 1, got %g", *invalidRatio)
	}

	generated := generate(*rows, *seed, *invalidRatio)

	if err := writeCSV(*out, generated); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows: %s", len(generated), *out)

	printStats(os.Stdout, generated)
	return nil
}

func generate(n int, seed uint64, invalidRatio float64) []*mockRow {
	rng := rand.New(rand.NewPCG(seed, seed))
	rows := make([]*mockRow, 0, n)
	for i := range n {
		r := randomRow(rng, i)
		if invalidRatio > 0 && rng.Float64() < invalidRatio {
			corrupt(rng, r)
		}
		rows = append(rows, r)
	}
	return rows
}

func randomRow(rng *rand.Rand, id int) *mockRow {
	return &mockRow{
		ID:                   id,
		RoadType:             pick(rng, domain.RoadTypes),
		NumLanes:             strconv.Itoa(1 + rng.IntN(4)),
		Curvature:            strconv.FormatFloat(float64(rng.IntN(101))/100, 'f', -1, 64),
		SpeedLimit:           strconv.Itoa(pick(rng, speedLimits)),
		Lighting:             pick(rng, domain.Lightings),
		Weather:              pick(rng, domain.Weathers),
		RoadSignsPresent:     boolFlag(rng),
		PublicRoad:           boolFlag(rng),
		TimeOfDay:            pick(rng, domain.TimesOfDay),
		Holiday:              boolFlag(rng),
		SchoolSeason:         boolFlag(rng),
		NumReportedAccidents: strconv.Itoa(rng.IntN(8)),
	}
}

// corrupt breaks one field so the row fails validation or coercion.
func corrupt(rng *rand.Rand, r *mockRow) {
	switch rng.IntN(5) {
	case 0:
		r.RoadType = "motorway"
	case 1:
		r.Lighting = "Night"
	case 2:
		r.Curvature = "1.5"
	case 3:
		r.Weather = "snowy"
	default:
		r.NumLanes = "two"
	}
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}

func boolFlag(rng *rand.Rand) string {
	if rng.IntN(2) == 1 {
		return "True"
	}
	return "False"
}

func writeCSV(path string, rows []*mockRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(w io.Writer, rows []*mockRow) {
	roadTypes := map[string]int{}
	for _, r := range rows {
		roadTypes[r.RoadType]++
	}
	keys := make([]string, 0, len(roadTypes))
	for k := range roadTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n=== Stats ===\n")
	fmt.Fprintf(w, "Total: %d\n", len(rows))
	fmt.Fprintf(w, "By road_type:")
	for _, k := range keys {
		fmt.Fprintf(w, " %s=%d", k, roadTypes[k])
	}
	fmt.Fprintln(w)
}
