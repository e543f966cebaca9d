package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize coerces a validated request into the model's FeatureRow. Any
// coercion failure is returned as a *ScoringError.
func Normalize(req PredictionRequest) (FeatureRow, error) {
	row := FeatureRow{
		RoadType:  req.RoadType,
		Curvature: req.Curvature,
		Lighting:  req.Lighting,
		Weather:   req.Weather,
		TimeOfDay: req.TimeOfDay,
	}

	ints := []struct {
		field string
		raw   any
		dst   *int
	}{
		{FieldNumLanes, req.NumLanes, &row.NumLanes},
		{FieldSpeedLimit, req.SpeedLimit, &row.SpeedLimit},
		{FieldRoadSignsPresent, req.RoadSignsPresent, &row.RoadSignsPresent},
		{FieldPublicRoad, req.PublicRoad, &row.PublicRoad},
		{FieldHoliday, req.Holiday, &row.Holiday},
		{FieldSchoolSeason, req.SchoolSeason, &row.SchoolSeason},
		{FieldNumReportedAccidents, req.NumReportedAccidents, &row.NumReportedAccidents},
	}
	for _, f := range ints {
		v, err := coerceInt(f.field, f.raw)
		if err != nil {
			return FeatureRow{}, &ScoringError{Err: err}
		}
		*f.dst = v
	}

	return row, nil
}

// coerceInt converts a decoded JSON value to an int following the rules in
// the package documentation.
func coerceInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("%s: cannot convert null to integer", field)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return truncate(field, n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s: cannot convert %s to integer", field, n.String())
		}
		return truncate(field, f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s: cannot convert %q to integer", field, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s: cannot convert %T to integer", field, v)
	}
}

func truncate(field string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("%s: %v is out of integer range", field, f)
	}
	return int(math.Trunc(f)), nil
}
