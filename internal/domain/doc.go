// Package domain models a single road-segment accident-risk scoring request.
//
// # Wire Payload
//
// Clients post a flat JSON object with twelve keys. Enum fields are strings,
// everything else is a JSON number. Booleans are encoded as 0/1 integers:
//
//	{"road_type":"urban","num_lanes":2,"curvature":0.5,"speed_limit":60,
//	 "lighting":"daylight","weather":"clear","road_signs_present":1,
//	 "public_road":1,"time_of_day":"morning","holiday":0,"school_season":0,
//	 "num_reported_accidents":0}
//
// # Validation
//
// [Validate] runs a fixed sequence of checks and stops at the first failure:
//
//	presence of all twelve keys (in column order)
//	road_type    in {urban, rural, highway}
//	lighting     in {daylight, dim, night}
//	weather      in {rainy, clear, foggy}
//	time_of_day  in {morning, afternoon, evening}
//	curvature    a number in [0, 1]
//
// The seven integer fields are not range-checked. num_lanes, speed_limit and
// num_reported_accidents accept any integer, and the four 0/1 flags are not
// restricted to {0, 1}. A value that cannot be read as an integer is caught
// by [Normalize] and reported as a [ScoringError], not a [ValidationError].
//
// # Feature Row
//
// [Normalize] produces a [FeatureRow] whose column order is fixed by
// [Columns]. The model artifact is trained against exactly this order and
// these names; any drift makes its output meaningless.
//
// Integer coercion rules:
//
//	JSON number   truncated toward zero (2.9 -> 2, -1.5 -> -1)
//	JSON bool     true -> 1, false -> 0
//	string        base-10 integer, surrounding whitespace ignored ("3" -> 3)
//	null, other   coercion failure
package domain
