package nmea

import (
	"fmt"
	"strconv"
	"strings"
)

// Decode classifies and decodes a single raw sentence.
//
// It returns (nil, nil) for sentence types outside the supported set; new
// instruments on the bus must not break the stream. A nil error with a nil
// reading therefore means "ignored", not "empty".
func Decode(line string) (Reading, *Error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nil, newError(ErrInvalidFormat, line, "missing '$'")
	}
	if !ValidateChecksum(line) {
		return nil, newError(ErrChecksumFailed, line, "checksum mismatch")
	}

	f := strings.Split(payload(line), ",")
	typeField := f[0]
	if len(typeField) < 3 {
		return nil, newError(ErrInvalidFormat, line, "short type field %q", typeField)
	}
	// Talker IDs vary (GP, GN, II, WI, SD, HC...); dispatch on the trailing
	// 3-letter sentence code.
	code := strings.ToUpper(typeField[len(typeField)-3:])

	switch code {
	case "GGA":
		return decodeGGA(f, line)
	case "RMC":
		return decodeRMC(f, line)
	case "VTG":
		return decodeVTG(f, line)
	case "MWV":
		return decodeMWV(f, line)
	case "DPT":
		return decodeDPT(f, line)
	case "HDG":
		return decodeHDG(f, line)
	case "MTW":
		return decodeMTW(f, line)
	default:
		return nil, nil
	}
}

// GGA: Global Positioning System Fix Data
//
//	1: time (hhmmss.ss)
//	2: latitude (ddmm.mmmm)
//	3: N/S
//	4: longitude (dddmm.mmmm)
//	5: E/W
//	6: fix quality
//	7: satellites in use
//	8: HDOP (optional)
//	9: altitude, meters (optional)
func decodeGGA(f []string, line string) (Reading, *Error) {
	if len(f) < 8 {
		return nil, newError(ErrParse, line, "gga: %d fields, need 8", len(f))
	}

	clk, err := parseClock(f[1])
	if err != nil {
		return nil, newError(ErrParse, line, "gga: %v", err)
	}
	lat, err := ParseCoordinate(f[2], f[3])
	if err != nil {
		return nil, newError(ErrParse, line, "gga: latitude: %v", err)
	}
	lon, err := ParseCoordinate(f[4], f[5])
	if err != nil {
		return nil, newError(ErrParse, line, "gga: longitude: %v", err)
	}
	quality, err := strconv.Atoi(strings.TrimSpace(f[6]))
	if err != nil {
		return nil, newError(ErrParse, line, "gga: bad fix quality %q", f[6])
	}
	sats, err := strconv.Atoi(strings.TrimSpace(f[7]))
	if err != nil {
		return nil, newError(ErrParse, line, "gga: bad satellite count %q", f[7])
	}

	fix := PositionFix{
		Time:       clk,
		LatDeg:     lat,
		LonDeg:     lon,
		Quality:    quality,
		Satellites: sats,
	}
	if len(f) > 8 {
		fix.HDOP = optFloat(f[8])
	}
	if len(f) > 9 {
		fix.AltitudeM = optFloat(f[9])
	}
	return fix, nil
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	1: time (hhmmss.ss)
//	2: status (A=valid, V=void)
//	3: latitude
//	4: N/S
//	5: longitude
//	6: E/W
//	7: speed over ground, knots (optional)
//	8: track, true degrees (optional)
//	9: date (ddmmyy, optional)
func decodeRMC(f []string, line string) (Reading, *Error) {
	if len(f) < 7 {
		return nil, newError(ErrParse, line, "rmc: %d fields, need 7", len(f))
	}

	clk, err := parseClock(f[1])
	if err != nil {
		return nil, newError(ErrParse, line, "rmc: %v", err)
	}
	lat, err := ParseCoordinate(f[3], f[4])
	if err != nil {
		return nil, newError(ErrParse, line, "rmc: latitude: %v", err)
	}
	lon, err := ParseCoordinate(f[5], f[6])
	if err != nil {
		return nil, newError(ErrParse, line, "rmc: longitude: %v", err)
	}

	nav := NavInfo{
		Time:   clk,
		Valid:  strings.TrimSpace(f[2]) == "A",
		LatDeg: lat,
		LonDeg: lon,
	}
	if len(f) > 7 {
		nav.SpeedKt = optFloat(f[7])
	}
	if len(f) > 8 {
		nav.TrackDeg = optFloat(f[8])
	}
	if len(f) > 9 && strings.TrimSpace(f[9]) != "" {
		d, err := parseDate(f[9])
		if err != nil {
			return nil, newError(ErrParse, line, "rmc: %v", err)
		}
		nav.Date = &d
	}
	return nav, nil
}

// VTG: Track Made Good and Ground Speed
//
//	1: track, true degrees    2: 'T'
//	3: track, magnetic        4: 'M'
//	5: speed, knots           6: 'N'
//	7: speed, km/h            8: 'K'
func decodeVTG(f []string, line string) (Reading, *Error) {
	if len(f) < 6 {
		return nil, newError(ErrParse, line, "vtg: %d fields, need 6", len(f))
	}

	track, ok := parseFloat(f[1])
	if !ok {
		return nil, newError(ErrParse, line, "vtg: bad true track %q", f[1])
	}
	speedKt, ok := parseFloat(f[5])
	if !ok {
		return nil, newError(ErrParse, line, "vtg: bad speed %q", f[5])
	}

	ts := TrackSpeed{
		TrackTrueDeg: track,
		TrackMagDeg:  optFloat(f[3]),
		SpeedKt:      speedKt,
		SpeedKmh:     speedKt * 1.852,
	}
	if len(f) > 7 {
		if kmh, ok := parseFloat(f[7]); ok {
			ts.SpeedKmh = kmh
		}
	}
	return ts, nil
}

// MWV: Wind Speed and Angle
//
//	1: wind angle, degrees
//	2: reference (R=relative/apparent, T=true)
//	3: wind speed
//	4: speed unit (N=knots, K=km/h, M=m/s)
//	5: status (A=valid)
func decodeMWV(f []string, line string) (Reading, *Error) {
	if len(f) < 6 {
		return nil, newError(ErrParse, line, "mwv: %d fields, need 6", len(f))
	}

	angle, ok := parseFloat(f[1])
	if !ok {
		return nil, newError(ErrParse, line, "mwv: bad angle %q", f[1])
	}
	ref := strings.ToUpper(strings.TrimSpace(f[2]))
	if ref != "R" && ref != "T" {
		return nil, newError(ErrParse, line, "mwv: bad reference %q", f[2])
	}
	speed, ok := parseFloat(f[3])
	if !ok {
		return nil, newError(ErrParse, line, "mwv: bad speed %q", f[3])
	}

	switch strings.ToUpper(strings.TrimSpace(f[4])) {
	case "K":
		speed /= 1.852
	case "M":
		speed *= 1.943844
	}

	return WindReading{
		AngleDeg: angle,
		Relative: ref == "R",
		SpeedKt:  speed,
		Valid:    strings.TrimSpace(f[5]) == "A",
	}, nil
}

// DPT: Depth of Water
//
//	1: depth below transducer, meters
//	2: transducer offset, meters (optional, often empty)
func decodeDPT(f []string, line string) (Reading, *Error) {
	if len(f) < 2 {
		return nil, newError(ErrParse, line, "dpt: %d fields, need 2", len(f))
	}

	depth, ok := parseFloat(f[1])
	if !ok {
		return nil, newError(ErrParse, line, "dpt: bad depth %q", f[1])
	}
	d := DepthReading{DepthM: depth}
	if len(f) > 2 {
		d.OffsetM = optFloat(f[2])
	}
	return d, nil
}

// HDG: Heading, Deviation and Variation
//
//	1: magnetic heading, degrees
//	2: deviation, degrees     3: deviation E/W (optional)
//	4: variation, degrees     5: variation E/W (optional)
func decodeHDG(f []string, line string) (Reading, *Error) {
	if len(f) < 2 {
		return nil, newError(ErrParse, line, "hdg: %d fields, need 2", len(f))
	}

	heading, ok := parseFloat(f[1])
	if !ok {
		return nil, newError(ErrParse, line, "hdg: bad heading %q", f[1])
	}
	h := HeadingReading{HeadingDeg: heading}
	if len(f) > 3 {
		h.DeviationDeg = signedDegrees(f[2], f[3])
	}
	if len(f) > 5 {
		h.VariationDeg = signedDegrees(f[4], f[5])
	}
	return h, nil
}

// MTW: Mean Temperature of Water
//
//	1: temperature, Celsius
func decodeMTW(f []string, line string) (Reading, *Error) {
	if len(f) < 2 {
		return nil, newError(ErrParse, line, "mtw: %d fields, need 2", len(f))
	}

	temp, ok := parseFloat(f[1])
	if !ok {
		return nil, newError(ErrParse, line, "mtw: bad temperature %q", f[1])
	}
	return WaterTemp{Celsius: temp}, nil
}

// parseClock parses hhmmss or hhmmss.ss time-of-day fields.
func parseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return Clock{}, strconvError("time", s)
	}
	hour, err := strconv.Atoi(s[0:2])
	if err != nil {
		return Clock{}, strconvError("time", s)
	}
	minute, err := strconv.Atoi(s[2:4])
	if err != nil {
		return Clock{}, strconvError("time", s)
	}
	sec, err := strconv.ParseFloat(s[4:], 64)
	if err != nil {
		return Clock{}, strconvError("time", s)
	}
	if hour > 23 || minute > 59 || sec >= 61 {
		return Clock{}, strconvError("time", s)
	}
	return Clock{Hour: hour, Minute: minute, Second: sec}, nil
}

// parseDate parses ddmmyy date fields. Years 70-99 are 19xx, 00-69 are 20xx.
func parseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return Date{}, strconvError("date", s)
	}
	day, err1 := strconv.Atoi(s[0:2])
	month, err2 := strconv.Atoi(s[2:4])
	year, err3 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, strconvError("date", s)
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return Date{}, strconvError("date", s)
	}
	if year >= 70 {
		year += 1900
	} else {
		year += 2000
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

func strconvError(what, value string) error {
	return fmt.Errorf("bad %s %q", what, value)
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// optFloat parses an optional numeric field; empty or malformed fields yield
// nil rather than an error.
func optFloat(s string) *float64 {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

// signedDegrees combines a degrees field with its E/W letter; W negates.
// Either field empty yields nil.
func signedDegrees(value, ew string) *float64 {
	v, ok := parseFloat(value)
	if !ok {
		return nil
	}
	switch strings.ToUpper(strings.TrimSpace(ew)) {
	case "E":
	case "W":
		v = -v
	default:
		return nil
	}
	return &v
}
