package pattern

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MaxParamsFileSize bounds the size of a params JSON file.
const MaxParamsFileSize = 1 << 20

// Params holds the tunable thresholds of the detection pipeline. The
// defaults were tuned empirically for typical blast-hole spacing (3-5 m)
// and are load-bearing for existing fixtures; override them only with
// site-specific calibration data.
type Params struct {
	// LineFitTolerance is the maximum perpendicular distance in metres for
	// a hole to be absorbed into a fitted row line.
	LineFitTolerance float64 `json:"line_fit_tolerance_m"`

	// GridBinFactor scales the estimated spacing into the adaptive-grid
	// bin width.
	GridBinFactor float64 `json:"grid_bin_factor"`

	// WindingReversalThreshold is the bearing change in degrees treated as
	// a row break in winding-sequence detection.
	WindingReversalThreshold float64 `json:"winding_reversal_threshold_deg"`

	// WindingWindowSize is how many steps back the bearing comparison
	// reaches when looking for a reversal.
	WindingWindowSize int `json:"winding_window_size"`

	// WindingMinHolesPerRow is the minimum segment length between winding
	// row breaks.
	WindingMinHolesPerRow int `json:"winding_min_holes_per_row"`

	// SplineTolFactor scales the estimated spacing into the B-spline
	// deviation tolerance that starts a new row.
	SplineTolFactor float64 `json:"spline_tol_factor"`
}

// DefaultParams returns the empirically tuned defaults.
func DefaultParams() Params {
	return Params{
		LineFitTolerance:         2.0,
		GridBinFactor:            0.8,
		WindingReversalThreshold: 90,
		WindingWindowSize:        4,
		WindingMinHolesPerRow:    3,
		SplineTolFactor:          0.5,
	}
}

// LoadParams overlays a partial JSON params file on the defaults. Fields
// omitted from the file keep their default values, so partial configs are
// safe.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return p, fmt.Errorf("params file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return p, fmt.Errorf("stat params file: %w", err)
	}
	if info.Size() > MaxParamsFileSize {
		return p, fmt.Errorf("params file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return p, fmt.Errorf("read params file: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse params file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects non-positive thresholds.
func (p Params) Validate() error {
	if p.LineFitTolerance <= 0 {
		return fmt.Errorf("line_fit_tolerance_m must be positive, got %v", p.LineFitTolerance)
	}
	if p.GridBinFactor <= 0 {
		return fmt.Errorf("grid_bin_factor must be positive, got %v", p.GridBinFactor)
	}
	if p.WindingReversalThreshold <= 0 || p.WindingReversalThreshold > 180 {
		return fmt.Errorf("winding_reversal_threshold_deg must be in (0, 180], got %v", p.WindingReversalThreshold)
	}
	if p.WindingWindowSize < 1 {
		return fmt.Errorf("winding_window_size must be at least 1, got %d", p.WindingWindowSize)
	}
	if p.WindingMinHolesPerRow < 1 {
		return fmt.Errorf("winding_min_holes_per_row must be at least 1, got %d", p.WindingMinHolesPerRow)
	}
	if p.SplineTolFactor <= 0 {
		return fmt.Errorf("spline_tol_factor must be positive, got %v", p.SplineTolFactor)
	}
	return nil
}
