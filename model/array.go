package model

import (
	"fmt"
	"slices"
)

// Array is a shape-aware numeric value. Data is laid out in row-major order;
// the leading axis is the frame axis for Sequence items.
type Array struct {
	Data  []float32
	Shape []int
}

// NewArray creates an Array and validates that the shape matches the data length.
func NewArray(data []float32, shape ...int) (Array, error) {
	a := Array{Data: data, Shape: shape}
	if n := numElements(shape); n != len(data) {
		return Array{}, fmt.Errorf("array shape %v requires %d elements, got %d", shape, n, len(data))
	}
	return a, nil
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// NumElements returns the total number of elements.
func (a Array) NumElements() int {
	return len(a.Data)
}

// Len0 returns the size of the leading axis, or 0 for a scalar.
func (a Array) Len0() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// Reshape returns a view of the same data under a new shape. The element
// count must be unchanged.
func (a Array) Reshape(shape ...int) (Array, error) {
	if n := numElements(shape); n != len(a.Data) {
		return Array{}, fmt.Errorf("cannot reshape %d elements to %v", len(a.Data), shape)
	}
	return Array{Data: a.Data, Shape: shape}, nil
}

// Clone returns a deep copy.
func (a Array) Clone() Array {
	return Array{
		Data:  slices.Clone(a.Data),
		Shape: slices.Clone(a.Shape),
	}
}

// Equal reports whether two arrays have identical shape and data.
func (a Array) Equal(b Array) bool {
	return slices.Equal(a.Shape, b.Shape) && slices.Equal(a.Data, b.Data)
}

// Stack concatenates arrays of identical shape along a new leading axis.
// The result has shape [len(arrays), shape...].
func Stack(arrays []Array) (Array, error) {
	if len(arrays) == 0 {
		return Array{}, fmt.Errorf("cannot stack zero arrays")
	}

	shape := arrays[0].Shape
	data := make([]float32, 0, len(arrays)*len(arrays[0].Data))
	for i, a := range arrays {
		if !slices.Equal(a.Shape, shape) {
			return Array{}, fmt.Errorf("stack shape mismatch at %d: %v != %v", i, a.Shape, shape)
		}
		data = append(data, a.Data...)
	}

	outShape := append([]int{len(arrays)}, shape...)
	return Array{Data: data, Shape: outShape}, nil
}

// Select gathers rows along the leading axis in the given order.
func (a Array) Select(indices []int) (Array, error) {
	if len(a.Shape) == 0 {
		return Array{}, fmt.Errorf("cannot select from a scalar array")
	}

	rowLen := len(a.Data) / a.Shape[0]
	data := make([]float32, 0, len(indices)*rowLen)
	for _, idx := range indices {
		if idx < 0 || idx >= a.Shape[0] {
			return Array{}, fmt.Errorf("select index %d out of range [0,%d)", idx, a.Shape[0])
		}
		data = append(data, a.Data[idx*rowLen:(idx+1)*rowLen]...)
	}

	outShape := slices.Clone(a.Shape)
	outShape[0] = len(indices)
	return Array{Data: data, Shape: outShape}, nil
}
