package tensor

import (
	"fmt"
	"math"
)

// Execute runs op and returns its output tensor. It is the single
// entry point both the sealing engine (to produce a proof) and the
// validator (to recheck one) call, so the two are guaranteed to run
// identical code.
func Execute(op Op) (Tensor, error) {
	switch o := op.(type) {
	case MatrixMultiply:
		return matrixMultiply(o)
	case Convolution:
		return convolution(o)
	case Relu:
		return elementwise(o.Input, relu), nil
	case Sigmoid:
		return elementwise(o.Input, sigmoid), nil
	case Tanh:
		return elementwise(o.Input, tanhf), nil
	case LeakyRelu:
		alpha := o.Alpha
		return elementwise(o.Input, func(x float32) float32 { return leakyRelu(x, alpha) }), nil
	case Softmax:
		return softmax(o.Input)
	case DotProduct:
		return dotProduct(o.A, o.B)
	case CrossProduct:
		return crossProduct(o.A, o.B)
	case VectorAdd:
		return zipShape(o.A, o.B, func(a, b float32) float32 { return a + b })
	case VectorSubtract:
		return zipShape(o.A, o.B, func(a, b float32) float32 { return a - b })
	case ElemMultiply:
		return zipShape(o.A, o.B, func(a, b float32) float32 { return a * b })
	case ElemDivide:
		return zipShape(o.A, o.B, func(a, b float32) float32 {
			if b == 0 {
				return float32(math.Inf(1))
			}
			return a / b
		})
	case Normalize:
		return normalize(o.Input)
	default:
		return Tensor{}, fmt.Errorf("tensor: unknown op %T", op)
	}
}
