// Package geo converts signed decimal-degree coordinates into exact rational
// degrees/minutes/seconds triples, the form EXIF and XMP store GPS angles in.
//
// All arithmetic runs on math/big rationals. Float inputs are first turned
// into their shortest decimal representation, so 123.45 becomes exactly
// 2469/20 rather than the nearest binary fraction, and denominators are only
// bounded when a component is formatted.
//
// Hemisphere is carried separately from the magnitude. Zero is neither north
// nor west: IsNorth(0) and IsWest(0) are both false, so a coordinate of
// exactly 0 is reported as S / E.
package geo
