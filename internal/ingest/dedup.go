package ingest

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// Deduper rejects images perceptually identical to ones already seen, using
// difference hashes. It is safe for concurrent use.
type Deduper struct {
	mu        sync.Mutex
	threshold int
	hashes    []*goimagehash.ImageHash
}

// NewDeduper returns a Deduper treating hashes closer than threshold bits as
// duplicates. A threshold of 0 disables deduplication.
func NewDeduper(threshold int) *Deduper {
	return &Deduper{threshold: threshold}
}

// Seed adds previously stored hashes in their ToString form. Unparsable
// entries are ignored and counted in the return value.
func (d *Deduper) Seed(hashes []string) (skipped int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range hashes {
		h, err := goimagehash.ImageHashFromString(s)
		if err != nil {
			skipped++
			continue
		}
		d.hashes = append(d.hashes, h)
	}
	return skipped
}

// Check reports whether img duplicates a remembered image and returns its
// hash string. It does not remember img; call Remember once the image is
// kept. If hashing fails the image is accepted with an empty hash.
func (d *Deduper) Check(img image.Image) (duplicate bool, hash string) {
	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false, ""
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, seen := range d.hashes {
		dist, err := h.Distance(seen)
		if err == nil && dist < d.threshold {
			return true, h.ToString()
		}
	}
	return false, h.ToString()
}

// Remember adds a hash returned by Check. Empty hashes are ignored.
func (d *Deduper) Remember(hash string) error {
	if hash == "" {
		return nil
	}
	h, err := goimagehash.ImageHashFromString(hash)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.hashes = append(d.hashes, h)
	d.mu.Unlock()
	return nil
}

// Len returns the number of remembered hashes.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hashes)
}
