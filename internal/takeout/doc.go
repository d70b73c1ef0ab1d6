// Package takeout pairs media entries in Google Takeout tar.gz archives with
// their JSON sidecars.
//
// A Set opens one or more archives, indexes every sidecar name with a single
// header pass, and then streams candidate media entries archive by archive in
// on-disk order. Each candidate is matched to "<name>.json" through the index,
// so a sidecar may live in any archive of the set. Nothing is extracted until
// the caller asks for a pair's bytes with Extract.
package takeout
