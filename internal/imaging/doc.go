// Package imaging loads, annotates and writes the raster images that flow
// through the card pipeline.
//
// Decoding honours EXIF orientation, so a photo taken sideways reaches the
// detector the way it is displayed. Coordinates are 0-based with (0,0) at
// the top-left corner, X increasing rightward and Y downward.
//
// # Thread Safety
//
// Cache is safe for concurrent use. Save writes through a temporary
// file in the destination directory, so concurrent workers never observe a
// partially written output.
package imaging
