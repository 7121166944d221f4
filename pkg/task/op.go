package task

import (
	"fmt"

	"github.com/tribechain/tribechain/pkg/tensor"
)

// ErrUnsupportedOperation is returned by BuildOp for an operation tag
// the task pool cannot reconstruct from a flat input_data array.
var ErrUnsupportedOperation = fmt.Errorf("task: unsupported operation")

// BuildOp reconstructs the tensor.Op a TensorTask's flat input_data
// encodes for its operation tag, so the sealing engine and the
// validator run the identical kernel call (spec.md §9's decision that
// proof verification recomputes rather than trusts the miner).
//
// spec.md's TensorTask carries input_data as a flat f32 sequence with
// no shape metadata, unlike original_source's MiningTask (which holds
// explicit shaped Tensor objects). matrix_multiply and convolution
// need a shape neither side can recover from a flat array alone, so
// they are not offered as task-pool operations here; every other
// kernel operation from spec.md §4.B is reconstructed by a fixed
// convention:
//   - single-tensor elementwise ops (relu, sigmoid, tanh, leaky_relu,
//     softmax, normalize) take the whole array as a 1-D tensor.
//   - two-tensor equal-shape ops (dot_product, vector_add,
//     vector_subtract, elem_multiply, elem_divide) split the array in
//     half.
//   - cross_product splits the array into two length-3 halves.
func BuildOp(operation string, inputData []float32) (tensor.Op, error) {
	switch operation {
	case "relu":
		return tensor.Relu{Input: tensor.Vector(inputData)}, nil
	case "sigmoid":
		return tensor.Sigmoid{Input: tensor.Vector(inputData)}, nil
	case "tanh":
		return tensor.Tanh{Input: tensor.Vector(inputData)}, nil
	case "leaky_relu":
		return tensor.LeakyRelu{Input: tensor.Vector(inputData), Alpha: 0.01}, nil
	case "softmax":
		return tensor.Softmax{Input: tensor.Vector(inputData)}, nil
	case "normalize":
		return tensor.Normalize{Input: tensor.Vector(inputData)}, nil
	case "dot_product":
		a, b, err := splitHalf(inputData)
		if err != nil {
			return nil, err
		}
		return tensor.DotProduct{A: tensor.Vector(a), B: tensor.Vector(b)}, nil
	case "vector_add":
		a, b, err := splitHalf(inputData)
		if err != nil {
			return nil, err
		}
		return tensor.VectorAdd{A: tensor.Vector(a), B: tensor.Vector(b)}, nil
	case "vector_subtract":
		a, b, err := splitHalf(inputData)
		if err != nil {
			return nil, err
		}
		return tensor.VectorSubtract{A: tensor.Vector(a), B: tensor.Vector(b)}, nil
	case "elem_multiply":
		a, b, err := splitHalf(inputData)
		if err != nil {
			return nil, err
		}
		return tensor.ElemMultiply{A: tensor.Vector(a), B: tensor.Vector(b)}, nil
	case "elem_divide":
		a, b, err := splitHalf(inputData)
		if err != nil {
			return nil, err
		}
		return tensor.ElemDivide{A: tensor.Vector(a), B: tensor.Vector(b)}, nil
	case "cross_product":
		if len(inputData) != 6 {
			return nil, fmt.Errorf("%w: cross_product needs exactly 6 input values, got %d", ErrUnsupportedOperation, len(inputData))
		}
		return tensor.CrossProduct{A: tensor.Vector(inputData[:3]), B: tensor.Vector(inputData[3:])}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, operation)
	}
}

func splitHalf(data []float32) ([]float32, []float32, error) {
	if len(data) == 0 || len(data)%2 != 0 {
		return nil, nil, fmt.Errorf("%w: input_data of length %d does not split evenly in two", ErrUnsupportedOperation, len(data))
	}
	mid := len(data) / 2
	return data[:mid], data[mid:], nil
}
