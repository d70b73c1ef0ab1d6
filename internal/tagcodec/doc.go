// Package tagcodec turns sidecar metadata into exiv2-style tags and hands
// them, together with the original media bytes, to a Codec that produces the
// bytes written to the output collection.
//
// Codecs never rewrite binary tag segments in place. The built-in codecs
// either pass content through untouched or leave it untouched and emit an
// XMP sidecar packet carrying the Xmp.* tags.
package tagcodec
