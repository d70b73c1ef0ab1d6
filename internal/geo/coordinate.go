package geo

import (
	"math/big"
	"strings"
)

// Axis says whether a Coordinate is a latitude or a longitude.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// Coordinate is a signed decimal-degree value with its DMS decomposition.
type Coordinate struct {
	Axis  Axis
	Value *big.Rat
	DMS   DMS
}

// NewCoordinate decomposes value along axis.
func NewCoordinate(axis Axis, value *big.Rat) Coordinate {
	return Coordinate{Axis: axis, Value: new(big.Rat).Set(value), DMS: Decompose(value)}
}

// Ref returns the EXIF hemisphere reference letter: N/S for latitudes and
// W/E for longitudes.
func (c Coordinate) Ref() string {
	if c.Axis == Latitude {
		return LatitudeRef(c.Value)
	}
	return LongitudeRef(c.Value)
}

// IsZero reports whether the value is exactly 0.
func (c Coordinate) IsZero() bool {
	return c.Value == nil || c.Value.Sign() == 0
}

// IsNorth reports latitude > 0. A latitude of exactly 0 is not north.
func IsNorth(latitude *big.Rat) bool {
	return latitude.Sign() > 0
}

// IsWest reports longitude < 0. A longitude of exactly 0 is not west.
func IsWest(longitude *big.Rat) bool {
	return longitude.Sign() < 0
}

// LatitudeRef returns "N" when IsNorth, otherwise "S".
func LatitudeRef(latitude *big.Rat) string {
	if IsNorth(latitude) {
		return "N"
	}
	return "S"
}

// LongitudeRef returns "W" when IsWest, otherwise "E".
func LongitudeRef(longitude *big.Rat) string {
	if IsWest(longitude) {
		return "W"
	}
	return "E"
}

// XMPString formats the coordinate as an XMP GPSCoordinate,
// "DDD,MM,SS.ssK", with the hemisphere letter K carrying the sign.
// Seconds are limited like String and printed with at most six decimals.
func (c Coordinate) XMPString() string {
	d := c.DMS.Limit()
	seconds := strings.TrimRight(d.Seconds.FloatString(6), "0")
	seconds = strings.TrimSuffix(seconds, ".")
	return d.Degrees.FloatString(0) + "," + d.Minutes.FloatString(0) + "," + seconds + c.Ref()
}
