package domain

// Request field names. The order of [Columns] is also the order presence is
// checked in.
const (
	FieldRoadType             = "road_type"
	FieldNumLanes             = "num_lanes"
	FieldCurvature            = "curvature"
	FieldSpeedLimit           = "speed_limit"
	FieldLighting             = "lighting"
	FieldWeather              = "weather"
	FieldRoadSignsPresent     = "road_signs_present"
	FieldPublicRoad           = "public_road"
	FieldTimeOfDay            = "time_of_day"
	FieldHoliday              = "holiday"
	FieldSchoolSeason         = "school_season"
	FieldNumReportedAccidents = "num_reported_accidents"
)

var columns = [...]string{
	FieldRoadType,
	FieldNumLanes,
	FieldCurvature,
	FieldSpeedLimit,
	FieldLighting,
	FieldWeather,
	FieldRoadSignsPresent,
	FieldPublicRoad,
	FieldTimeOfDay,
	FieldHoliday,
	FieldSchoolSeason,
	FieldNumReportedAccidents,
}

// Columns returns the FeatureRow column names in model order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns[:])
	return out
}

// Allowed values for the enum fields.
var (
	RoadTypes  = []string{"urban", "rural", "highway"}
	Lightings  = []string{"daylight", "dim", "night"}
	Weathers   = []string{"rainy", "clear", "foggy"}
	TimesOfDay = []string{"morning", "afternoon", "evening"}
)

// FlagColumns are the boolean-as-int columns.
var FlagColumns = []string{FieldRoadSignsPresent, FieldPublicRoad, FieldHoliday, FieldSchoolSeason}

// IsCategorical reports whether a column holds a string category rather
// than a number.
func IsCategorical(column string) bool {
	switch column {
	case FieldRoadType, FieldLighting, FieldWeather, FieldTimeOfDay:
		return true
	default:
		return false
	}
}

// PredictionRequest is a payload that passed validation. The enum fields and
// curvature are already typed; the remaining fields keep their raw decoded
// value until Normalize coerces them.
type PredictionRequest struct {
	RoadType  string
	Lighting  string
	Weather   string
	TimeOfDay string
	Curvature float64

	NumLanes             any
	SpeedLimit           any
	RoadSignsPresent     any
	PublicRoad           any
	Holiday              any
	SchoolSeason         any
	NumReportedAccidents any
}

// FeatureRow is the single-row tabular input handed to the model.
type FeatureRow struct {
	RoadType             string
	NumLanes             int
	Curvature            float64
	SpeedLimit           int
	Lighting             string
	Weather              string
	RoadSignsPresent     int
	PublicRoad           int
	TimeOfDay            string
	Holiday              int
	SchoolSeason         int
	NumReportedAccidents int
}

// Values returns the row's cells in Columns order. Categorical cells are
// strings, numeric cells are int or float64.
func (r FeatureRow) Values() []any {
	return []any{
		r.RoadType,
		r.NumLanes,
		r.Curvature,
		r.SpeedLimit,
		r.Lighting,
		r.Weather,
		r.RoadSignsPresent,
		r.PublicRoad,
		r.TimeOfDay,
		r.Holiday,
		r.SchoolSeason,
		r.NumReportedAccidents,
	}
}

// Map returns the row keyed by column name.
func (r FeatureRow) Map() map[string]any {
	values := r.Values()
	out := make(map[string]any, len(values))
	for i, v := range values {
		out[columns[i]] = v
	}
	return out
}
