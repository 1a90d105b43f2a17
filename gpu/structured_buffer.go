package gpu

import (
	"errors"
	"fmt"
)

// CounterBufferSize is the size of the counter every structured buffer carries.
const CounterBufferSize = 4

var (
	ErrStagingAllocation  = errors.New("gpu: staging buffer allocation failed")
	ErrStagingMap         = errors.New("gpu: staging buffer map failed")
	ErrStagingUnmap       = errors.New("gpu: staging buffer unmap failed")
	ErrInvalidElementSize = errors.New("gpu: element size must be positive")
)

// StructuredBuffer is a GPU-resident array of fixed-size elements plus a
// small counter buffer.
type StructuredBuffer struct {
	buffer      Buffer
	counter     Buffer
	numElements uint64
	elementSize uint64
}

// NewStructuredBuffer wraps staged bytes into a structured buffer and
// allocates its counter. Nothing is retained if either allocation fails.
func NewStructuredBuffer(p ResourceProvider, staging StagingBuffer, numElements, elementSize uint64) (*StructuredBuffer, error) {
	buffer, err := p.CreateStructuredBuffer(staging, numElements, elementSize)
	if err != nil {
		return nil, fmt.Errorf("gpu: create structured buffer: %w", err)
	}
	counter, err := p.CreateByteAddressBuffer(CounterBufferSize)
	if err != nil {
		buffer.Release()
		return nil, fmt.Errorf("gpu: create counter buffer: %w", err)
	}
	return &StructuredBuffer{
		buffer:      buffer,
		counter:     counter,
		numElements: numElements,
		elementSize: elementSize,
	}, nil
}

func (b *StructuredBuffer) NumElements() uint64 { return b.numElements }
func (b *StructuredBuffer) ElementSize() uint64 { return b.elementSize }
func (b *StructuredBuffer) Buffer() Buffer      { return b.buffer }
func (b *StructuredBuffer) Counter() Buffer     { return b.counter }

// Release frees both allocations. It is safe on a nil buffer.
func (b *StructuredBuffer) Release() {
	if b == nil {
		return
	}
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	if b.counter != nil {
		b.counter.Release()
		b.counter = nil
	}
}

// UploadStructuredBuffer stages data through a CPU-writable buffer and
// builds a structured buffer of len(data)/elementSize elements from it.
//
// The call blocks until the structured buffer exists. On any failure it
// returns a nil buffer and an error wrapping the failed step; the caller's
// existing buffer is never touched. The bytes are copied verbatim.
func UploadStructuredBuffer(p ResourceProvider, data []byte, elementSize int) (*StructuredBuffer, error) {
	if elementSize <= 0 {
		return nil, ErrInvalidElementSize
	}
	size := uint64(len(data))

	staging, err := p.CreateStagingBuffer(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStagingAllocation, err)
	}
	defer staging.Release()

	mapped, err := staging.Map()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStagingMap, err)
	}
	copy(mapped, data)
	if err := staging.Unmap(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStagingUnmap, err)
	}

	return NewStructuredBuffer(p, staging, size/uint64(elementSize), uint64(elementSize))
}
