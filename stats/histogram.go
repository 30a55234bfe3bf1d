// Package stats provides simple statistics accumulated during a simulation
// run.
package stats

import (
	"log"
	"math"
)

// A Value is a sample type a histogram can bin.
type Value interface {
	~int | ~int64 | ~uint64 | ~float64
}

// A Histogram groups samples into pre-determined fixed-width bins. Samples
// below the minimum or above the highest bin are always counted separately
// as out-of-bounds; includeOutOfBounds controls whether those counts appear
// in the reported rows.
type Histogram[T Value] struct {
	name string

	minValue           T
	binWidth           T
	numBins            uint32
	includeOutOfBounds bool

	bins        map[uint32]uint64
	oobMinCount uint64
	oobMaxCount uint64

	totalSummed    float64
	totalSummedSqr float64
	itemsBinned    uint64
	collected      uint64
}

// NewHistogram creates a histogram of numBins bins of binWidth starting at
// minValue.
func NewHistogram[T Value](
	name string,
	minValue, binWidth T,
	numBins uint32,
	includeOutOfBounds bool,
) *Histogram[T] {
	if numBins == 0 {
		log.Panic("histogram needs at least one bin")
	}
	if binWidth <= 0 {
		log.Panic("histogram bin width must be positive")
	}

	return &Histogram[T]{
		name:               name,
		minValue:           minValue,
		binWidth:           binWidth,
		numBins:            numBins,
		includeOutOfBounds: includeOutOfBounds,
		bins:               make(map[uint32]uint64),
	}
}

// Name returns the name of the statistic.
func (h *Histogram[T]) Name() string {
	return h.name
}

// HighestBinValue returns the upper edge of the last bin.
func (h *Histogram[T]) HighestBinValue() T {
	return h.minValue + T(h.numBins)*h.binWidth
}

// Add accumulates one sample.
func (h *Histogram[T]) Add(value T) {
	h.collected++

	if value < h.minValue {
		h.oobMinCount++
		return
	}

	if value >= h.HighestBinValue() {
		h.oobMaxCount++
		return
	}

	idx := uint32((value - h.minValue) / h.binWidth)
	h.bins[idx]++

	h.itemsBinned++
	h.totalSummed += float64(value)
	h.totalSummedSqr += float64(value) * float64(value)
}

// BinCount returns the number of samples in the bin with the given index.
func (h *Histogram[T]) BinCount(idx uint32) uint64 {
	return h.bins[idx]
}

// CountForValue returns the number of samples in the bin the value falls
// into, or the matching out-of-bounds count.
func (h *Histogram[T]) CountForValue(value T) uint64 {
	if value < h.minValue {
		return h.oobMinCount
	}
	if value >= h.HighestBinValue() {
		return h.oobMaxCount
	}
	return h.bins[uint32((value-h.minValue)/h.binWidth)]
}

// NumBins returns the number of bins.
func (h *Histogram[T]) NumBins() uint32 {
	return h.numBins
}

// BinWidth returns the width of each bin.
func (h *Histogram[T]) BinWidth() T {
	return h.binWidth
}

// MinValue returns the lower edge of the first bin.
func (h *Histogram[T]) MinValue() T {
	return h.minValue
}

// OutOfBoundsLow returns the number of samples below the first bin.
func (h *Histogram[T]) OutOfBoundsLow() uint64 {
	return h.oobMinCount
}

// OutOfBoundsHigh returns the number of samples at or above the last bin's
// upper edge.
func (h *Histogram[T]) OutOfBoundsHigh() uint64 {
	return h.oobMaxCount
}

// ItemsBinned returns the number of samples that landed in a bin.
func (h *Histogram[T]) ItemsBinned() uint64 {
	return h.itemsBinned
}

// Collected returns the number of samples accounted for, out-of-bounds
// included.
func (h *Histogram[T]) Collected() uint64 {
	return h.collected
}

// Sum returns the sum of all binned samples.
func (h *Histogram[T]) Sum() float64 {
	return h.totalSummed
}

// SumSq returns the sum of squares of all binned samples.
func (h *Histogram[T]) SumSq() float64 {
	return h.totalSummedSqr
}

// A BinRow is one bin of a histogram flattened for recording.
type BinRow struct {
	Name     string
	BinStart float64
	BinEnd   float64
	Count    uint64
}

// Rows flattens the histogram into one row per occupied bin, in bin order,
// for the data recorder. Out-of-bounds counts are reported as open-edged
// rows when the histogram was created with includeOutOfBounds.
func (h *Histogram[T]) Rows() []BinRow {
	rows := make([]BinRow, 0, len(h.bins)+2)

	if h.includeOutOfBounds && h.oobMinCount > 0 {
		rows = append(rows, BinRow{
			Name:     h.name,
			BinStart: math.Inf(-1),
			BinEnd:   float64(h.minValue),
			Count:    h.oobMinCount,
		})
	}

	for idx := uint32(0); idx < h.numBins; idx++ {
		count, ok := h.bins[idx]
		if !ok {
			continue
		}

		start := h.minValue + T(idx)*h.binWidth
		rows = append(rows, BinRow{
			Name:     h.name,
			BinStart: float64(start),
			BinEnd:   float64(start + h.binWidth),
			Count:    count,
		})
	}

	if h.includeOutOfBounds && h.oobMaxCount > 0 {
		rows = append(rows, BinRow{
			Name:     h.name,
			BinStart: float64(h.HighestBinValue()),
			BinEnd:   math.Inf(1),
			Count:    h.oobMaxCount,
		})
	}

	return rows
}
