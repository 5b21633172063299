package nmea

// Reading is one decoded instrument value. It is a closed union: exactly one
// concrete type per supported sentence, discriminated by type switch.
type Reading interface {
	reading()
}

// Clock is a UTC time-of-day as transmitted in hhmmss.ss fields.
type Clock struct {
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Second float64 `json:"second"`
}

// Date is a UTC calendar date from an RMC ddmmyy field. Two-digit years 70-99
// map to 19xx, the rest to 20xx.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// PositionFix is a GGA position fix.
type PositionFix struct {
	Time       Clock    `json:"time"`
	LatDeg     float64  `json:"lat_deg"`
	LonDeg     float64  `json:"lon_deg"`
	Quality    int      `json:"quality"`
	Satellites int      `json:"satellites"`
	HDOP       *float64 `json:"hdop,omitempty"`
	AltitudeM  *float64 `json:"altitude_m,omitempty"`
}

// NavInfo is an RMC recommended-minimum fix. Valid mirrors the A/V status
// flag; void sentences with parseable coordinates still decode.
type NavInfo struct {
	Time     Clock    `json:"time"`
	Valid    bool     `json:"valid"`
	LatDeg   float64  `json:"lat_deg"`
	LonDeg   float64  `json:"lon_deg"`
	SpeedKt  *float64 `json:"speed_kt,omitempty"`
	TrackDeg *float64 `json:"track_deg,omitempty"`
	Date     *Date    `json:"date,omitempty"`
}

// TrackSpeed is a VTG course-and-speed report. SpeedKmh is derived from
// SpeedKt when the instrument leaves the km/h field empty.
type TrackSpeed struct {
	TrackTrueDeg float64  `json:"track_true_deg"`
	TrackMagDeg  *float64 `json:"track_mag_deg,omitempty"`
	SpeedKt      float64  `json:"speed_kt"`
	SpeedKmh     float64  `json:"speed_kmh"`
}

// WindReading is an MWV wind report. Relative is true for apparent wind
// ('R'), false for true wind ('T'). Speed is normalized to knots regardless
// of the unit the instrument transmitted.
type WindReading struct {
	AngleDeg float64 `json:"angle_deg"`
	Relative bool    `json:"relative"`
	SpeedKt  float64 `json:"speed_kt"`
	Valid    bool    `json:"valid"`
}

// DepthReading is a DPT depth report. OffsetM is the transducer offset:
// positive for distance to the waterline, negative for distance to the keel.
type DepthReading struct {
	DepthM  float64  `json:"depth_m"`
	OffsetM *float64 `json:"offset_m,omitempty"`
}

// HeadingReading is an HDG magnetic heading. Deviation and variation are
// signed decimal degrees, W negative.
type HeadingReading struct {
	HeadingDeg   float64  `json:"heading_deg"`
	DeviationDeg *float64 `json:"deviation_deg,omitempty"`
	VariationDeg *float64 `json:"variation_deg,omitempty"`
}

// WaterTemp is an MTW water temperature in Celsius.
type WaterTemp struct {
	Celsius float64 `json:"celsius"`
}

func (PositionFix) reading()    {}
func (NavInfo) reading()        {}
func (TrackSpeed) reading()     {}
func (WindReading) reading()    {}
func (DepthReading) reading()   {}
func (HeadingReading) reading() {}
func (WaterTemp) reading()      {}
