// Package imaging provides the image I/O and preview operations around the
// coloring pipeline.
//
// It decodes portraits (PNG, JPEG, GIF and WebP) through a shared ImageCache,
// produces thumbnails and encoded crops, samples colors at points and over
// regions, and renders previews with the sampled regions outlined.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Regions use
// image.Rectangle: Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless
// and never mutate their input images.
package imaging
