package nmea

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCoordinate converts an NMEA coordinate field plus its hemisphere
// letter into signed decimal degrees.
//
// Latitude fields are ddmm.mmmm (2-digit degrees, N/S hemisphere), longitude
// fields dddmm.mmmm (3-digit degrees, E/W). The minutes remainder is always
// the last two digits of the integer part plus the fraction, so both widths
// share one split. S and W negate the result.
func ParseCoordinate(value, hemisphere string) (float64, error) {
	value = strings.TrimSpace(value)
	hemisphere = strings.TrimSpace(strings.ToUpper(hemisphere))
	if value == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	if hemisphere != "N" && hemisphere != "S" && hemisphere != "E" && hemisphere != "W" {
		return 0, fmt.Errorf("bad hemisphere %q", hemisphere)
	}

	intPart := value
	if dot := strings.IndexByte(value, '.'); dot != -1 {
		intPart = value[:dot]
	}
	if len(intPart) < 3 {
		return 0, fmt.Errorf("coordinate %q too short", value)
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, fmt.Errorf("bad degrees in %q", value)
	}
	mins, err := strconv.ParseFloat(value[len(intPart)-2:], 64)
	if err != nil {
		return 0, fmt.Errorf("bad minutes in %q", value)
	}

	dec := float64(deg) + mins/60.0
	if hemisphere == "S" || hemisphere == "W" {
		dec = -dec
	}
	return dec, nil
}
