package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Validate checks an untyped payload and returns the typed request, or a
// *ValidationError describing the first violated rule.
func Validate(payload map[string]any) (PredictionRequest, error) {
	for _, field := range columns {
		if _, ok := payload[field]; !ok {
			return PredictionRequest{}, &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("Missing field: %s", field),
			}
		}
	}

	enums := []struct {
		field   string
		allowed []string
	}{
		{FieldRoadType, RoadTypes},
		{FieldLighting, Lightings},
		{FieldWeather, Weathers},
		{FieldTimeOfDay, TimesOfDay},
	}
	for _, e := range enums {
		if !isMember(payload[e.field], e.allowed) {
			return PredictionRequest{}, &ValidationError{
				Field:   e.field,
				Message: "Invalid " + e.field,
			}
		}
	}

	curvature, ok := asNumber(payload[FieldCurvature])
	if !ok || curvature < 0 || curvature > 1 {
		return PredictionRequest{}, &ValidationError{
			Field:   FieldCurvature,
			Message: "Curvature must be between 0 and 1",
		}
	}

	return PredictionRequest{
		RoadType:  payload[FieldRoadType].(string),
		Lighting:  payload[FieldLighting].(string),
		Weather:   payload[FieldWeather].(string),
		TimeOfDay: payload[FieldTimeOfDay].(string),
		Curvature: curvature,

		NumLanes:             payload[FieldNumLanes],
		SpeedLimit:           payload[FieldSpeedLimit],
		RoadSignsPresent:     payload[FieldRoadSignsPresent],
		PublicRoad:           payload[FieldPublicRoad],
		Holiday:              payload[FieldHoliday],
		SchoolSeason:         payload[FieldSchoolSeason],
		NumReportedAccidents: payload[FieldNumReportedAccidents],
	}, nil
}

func isMember(v any, allowed []string) bool {
	s, ok := v.(string)
	return ok && slices.Contains(allowed, s)
}

// asNumber accepts the numeric types a JSON decoder can produce. Booleans and
// strings are not numbers here.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
