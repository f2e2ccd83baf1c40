// Command rowdetect assigns row and position IDs to a blast hole layout
// read from CSV, validates the result, and optionally persists it to
// SQLite and renders plots.
//
// Input CSV columns: id,x,y[,entity]. A header line is skipped when the
// coordinate columns do not parse as numbers.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/geoblast/rowdetect/internal/pattern"
	"github.com/geoblast/rowdetect/internal/report"
	"github.com/geoblast/rowdetect/internal/runstore"
	"github.com/geoblast/rowdetect/internal/version"
)

type summary struct {
	RunID       string                    `json:"run_id,omitempty"`
	PatternType pattern.PatternType       `json:"pattern_type"`
	Method      pattern.Method            `json:"method"`
	HoleCount   int                       `json:"hole_count"`
	RowCount    int                       `json:"row_count"`
	Status      pattern.ValidationStatus  `json:"status"`
	GridStyle   pattern.GridStyle         `json:"grid_style"`
	Confidence  float64                   `json:"confidence"`
	Serpentine  bool                      `json:"serpentine"`
	Issues      []string                  `json:"issues,omitempty"`
	Warnings    []string                  `json:"warnings,omitempty"`
	Metrics     pattern.ValidationMetrics `json:"metrics"`
	Holes       []assignment              `json:"holes"`
}

type assignment struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	RowID int     `json:"row_id"`
	PosID int     `json:"pos_id"`
}

func main() {
	input := flag.String("input", "", "Input CSV file (id,x,y[,entity]); - for stdin")
	paramsPath := flag.String("params", "", "Detector parameter overrides (JSON file)")
	entity := flag.String("entity", "", "Entity name recorded with the run")
	startRow := flag.Int("start-row", 0, "First row ID to assign (0 = default)")
	renumber := flag.Bool("renumber", false, "Renumber rows to a contiguous 1..k range")
	forceDir := flag.String("direction", "", "Force traversal direction: forward or serpentine")
	dbPath := flag.String("db", "", "SQLite database to persist the run to")
	listRuns := flag.Int("list", 0, "List the N most recent runs from -db and exit")
	pngPath := flag.String("png", "", "Write a PNG scatter plot to this path")
	chartPath := flag.String("chart", "", "Write an interactive HTML chart to this path")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listRuns > 0 {
		if *dbPath == "" {
			fmt.Fprintln(os.Stderr, "-list requires -db")
			os.Exit(1)
		}
		if err := printRuns(*dbPath, *listRuns); err != nil {
			fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "-input is required")
		flag.Usage()
		os.Exit(1)
	}

	holes, err := readHoles(*input, *entity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	params := pattern.DefaultParams()
	if *paramsPath != "" {
		params, err = pattern.LoadParams(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load params: %v\n", err)
			os.Exit(1)
		}
	}

	opts := pattern.Options{
		Params:     params,
		StartRowID: *startRow,
		Renumber:   *renumber,
	}
	switch *forceDir {
	case "":
	case "forward":
		opts.ForceDirection = pattern.TraversalForward
	case "serpentine":
		opts.ForceDirection = pattern.TraversalSerpentine
	default:
		fmt.Fprintf(os.Stderr, "unknown -direction %q\n", *forceDir)
		os.Exit(1)
	}

	classification := pattern.Classify(holes, params)

	detection, err := pattern.Detect(holes, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		os.Exit(1)
	}

	validation := pattern.Validate(holes)
	confidence := pattern.CombineConfidence(validation, detection.Method)

	out := buildSummary(holes, detection, validation, confidence)
	out.PatternType = classification.Type

	if *dbPath != "" {
		runID, err := persistRun(*dbPath, *entity, holes, detection, validation, confidence, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "persist run: %v\n", err)
			os.Exit(1)
		}
		out.RunID = runID
	}

	rep := &report.Report{
		Title:      *entity,
		Holes:      holes,
		Detection:  detection,
		Validation: validation,
		Confidence: confidence,
	}
	if *pngPath != "" {
		if err := rep.SavePNG(*pngPath); err != nil {
			fmt.Fprintf(os.Stderr, "write png: %v\n", err)
			os.Exit(1)
		}
	}
	if *chartPath != "" {
		f, err := os.Create(*chartPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "write chart: %v\n", err)
			os.Exit(1)
		}
		if err := rep.RenderHTML(f); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "render chart: %v\n", err)
			os.Exit(1)
		}
		f.Close()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode summary: %v\n", err)
		os.Exit(1)
	}
}

func readHoles(path, entity string) ([]*pattern.Hole, error) {
	var src io.Reader
	if path == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		src = f
	}
	return parseHoleCSV(src, entity)
}

func parseHoleCSV(src io.Reader, entity string) ([]*pattern.Hole, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var holes []*pattern.Hole
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: expected id,x,y got %d fields", line, len(rec))
		}

		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if errX != nil || errY != nil {
			// Tolerate a header on the first line only.
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: bad coordinates %q,%q", line, rec[1], rec[2])
		}

		h := &pattern.Hole{
			ID:         strings.TrimSpace(rec[0]),
			X:          x,
			Y:          y,
			EntityName: entity,
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			h.EntityName = strings.TrimSpace(rec[3])
		}
		holes = append(holes, h)
	}

	if len(holes) == 0 {
		return nil, fmt.Errorf("no holes in input")
	}
	return holes, nil
}

func buildSummary(holes []*pattern.Hole, detection *pattern.DetectionResult, validation *pattern.ValidationResult, confidence float64) *summary {
	out := &summary{
		Method:     detection.Method,
		HoleCount:  len(holes),
		RowCount:   detection.RowCount,
		Status:     validation.Status,
		GridStyle:  validation.GridStyle,
		Confidence: confidence,
		Issues:     validation.Issues,
		Warnings:   validation.Warnings,
		Metrics:    validation.Metrics,
	}
	if detection.Serpentine != nil && detection.Serpentine.Pattern == pattern.TraversalSerpentine {
		out.Serpentine = true
	}
	for _, h := range holes {
		out.Holes = append(out.Holes, assignment{
			ID: h.ID, X: h.X, Y: h.Y, RowID: h.RowID, PosID: h.PosID,
		})
	}
	return out
}

func persistRun(dbPath, entity string, holes []*pattern.Hole, detection *pattern.DetectionResult, validation *pattern.ValidationResult, confidence float64, params pattern.Params) (string, error) {
	store, err := runstore.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	metricsJSON, err := json.Marshal(validation.Metrics)
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}

	rec := &runstore.RunRecord{
		EntityName: entity,
		Method:     string(detection.Method),
		HoleCount:  len(holes),
		RowCount:   detection.RowCount,
		Confidence: confidence,
		Status:     string(validation.Status),
		GridStyle:  string(validation.GridStyle),
		Params:     paramsJSON,
		Metrics:    metricsJSON,
	}

	assignments := make([]runstore.HoleAssignment, 0, len(holes))
	for _, h := range holes {
		assignments = append(assignments, runstore.HoleAssignment{
			HoleID: h.ID, X: h.X, Y: h.Y, RowID: h.RowID, PosID: h.PosID,
		})
	}

	if err := store.SaveRun(rec, assignments); err != nil {
		return "", err
	}
	return rec.RunID, nil
}

func printRuns(dbPath string, limit int) error {
	store, err := runstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(runs)
}
