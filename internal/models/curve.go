package models

// CurveParameters holds the six boundaries of a heating curve.
type CurveParameters struct {
	MinFlow      float64 `json:"min_flow"`
	MaxFlow      float64 `json:"max_flow"`
	MinOutdoor   float64 `json:"min_outdoor"`
	MaxOutdoor   float64 `json:"max_outdoor"`
	PlateauStart float64 `json:"plateau_start"` // hot-weather plateau begins here
	PlateauEnd   float64 `json:"plateau_end"`   // cold-weather plateau ends here
}

// Payload is the state document consumed by the tile UI.
// Field names are part of the tile contract and must not change.
type Payload struct {
	MinVorlauf float64  `json:"MinVorlauf"`
	MaxVorlauf float64  `json:"MaxVorlauf"`
	MinAT      float64  `json:"MinAT"`
	MaxAT      float64  `json:"MaxAT"`
	StartAT    float64  `json:"StartAT"`
	EndAT      float64  `json:"EndAT"`
	VLScaleMin float64  `json:"VLScaleMin"`
	VLScaleMax float64  `json:"VLScaleMax"`
	AT         *float64 `json:"AT"` // null when no reading is available
	VL         *float64 `json:"VL"` // null when no target was computed
}

// NewPayload echoes p together with the display bounds and the optional readings.
func NewPayload(p CurveParameters, scaleMin, scaleMax float64, at, vl *float64) Payload {
	return Payload{
		MinVorlauf: p.MinFlow,
		MaxVorlauf: p.MaxFlow,
		MinAT:      p.MinOutdoor,
		MaxAT:      p.MaxOutdoor,
		StartAT:    p.PlateauStart,
		EndAT:      p.PlateauEnd,
		VLScaleMin: scaleMin,
		VLScaleMax: scaleMax,
		AT:         at,
		VL:         vl,
	}
}
