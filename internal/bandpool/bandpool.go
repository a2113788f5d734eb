// Package bandpool implements the §5 band-parallel worker pool the
// Encoder uses for dithering when threads > 1 (emission stays sequential):
// the image is split into horizontal bands with burn-in overlap, processed
// concurrently, and drained back out in band order so the result is
// deterministic regardless of thread count.
package bandpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Band describes one horizontal slice of the image to process, including
// burn-in rows borrowed from the previous band to let error-diffusion
// kernels settle before the band's "real" output rows begin (§5).
type Band struct {
	Index        int
	Top, Height  int // the band's real (non-overlap) row range
	OverlapTop   int // first row actually processed, <= Top
	OverlapCount int // OverlapTop == Top - OverlapCount
}

// Plan splits [0, imageHeight) into bands of bandHeight rows, each bordered
// by up to overlap burn-in rows borrowed from the preceding band.
func Plan(imageHeight, bandHeight, overlap int) []Band {
	if bandHeight <= 0 {
		bandHeight = imageHeight
	}
	if bandHeight <= 0 {
		return nil
	}
	var bands []Band
	for top, i := 0, 0; top < imageHeight; top, i = top+bandHeight, i+1 {
		h := bandHeight
		if top+h > imageHeight {
			h = imageHeight - top
		}
		ov := overlap
		if ov > top {
			ov = top
		}
		bands = append(bands, Band{
			Index:        i,
			Top:          top,
			Height:       h,
			OverlapTop:   top - ov,
			OverlapCount: ov,
		})
	}
	return bands
}

// Run processes every band with up to `threads` workers via errgroup, then
// returns results in band order regardless of completion order — the
// "stage into per-band buffers, drain in order" strategy of §5.
func Run(threads int, bands []Band, work func(b Band) (any, error)) ([]any, error) {
	results := make([]any, len(bands))
	if threads <= 1 {
		for _, b := range bands {
			r, err := work(b)
			if err != nil {
				return nil, err
			}
			results[b.Index] = r
		}
		return results, nil
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(threads)
	for _, b := range bands {
		b := b
		g.Go(func() error {
			r, err := work(b)
			if err != nil {
				return err
			}
			results[b.Index] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
