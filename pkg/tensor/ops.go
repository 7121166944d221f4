package tensor

import "fmt"

// Op is a single tensor operation, identified by its Name and carrying
// whatever parameters it needs. The set of implementations below is
// closed: a TensorCompute task's op_type must name one of them, and
// Execute dispatches via a type switch rather than an open registry,
// so every accepted operation is known and auditable at compile time.
type Op interface {
	// Name is the wire identifier used in a TensorCompute task's op_type field.
	Name() string
	// Inputs returns the tensors the op consumes, in the order Execute expects them.
	Inputs() []Tensor
}

// MatrixMultiply computes A*B, optionally transposing either operand
// before multiplying.
type MatrixMultiply struct {
	A, B       Tensor
	TransposeA bool
	TransposeB bool
}

func (MatrixMultiply) Name() string       { return "matrix_multiply" }
func (m MatrixMultiply) Inputs() []Tensor { return []Tensor{m.A, m.B} }

// Convolution slides Kernel over Input with the given stride, padding
// and dilation. Input and Kernel must share rank (1 or 2).
type Convolution struct {
	Input, Kernel   Tensor
	Stride, Padding int
	Dilation        int
}

func (Convolution) Name() string       { return "convolution" }
func (c Convolution) Inputs() []Tensor { return []Tensor{c.Input, c.Kernel} }

// Relu applies max(0, x) elementwise.
type Relu struct{ Input Tensor }

func (Relu) Name() string       { return "relu" }
func (r Relu) Inputs() []Tensor { return []Tensor{r.Input} }

// Sigmoid applies 1/(1+exp(-x)) elementwise.
type Sigmoid struct{ Input Tensor }

func (Sigmoid) Name() string       { return "sigmoid" }
func (s Sigmoid) Inputs() []Tensor { return []Tensor{s.Input} }

// Tanh applies the hyperbolic tangent elementwise.
type Tanh struct{ Input Tensor }

func (Tanh) Name() string       { return "tanh" }
func (t Tanh) Inputs() []Tensor { return []Tensor{t.Input} }

// LeakyRelu applies x if x>0 else Alpha*x, elementwise.
type LeakyRelu struct {
	Input Tensor
	Alpha float32
}

func (LeakyRelu) Name() string       { return "leaky_relu" }
func (l LeakyRelu) Inputs() []Tensor { return []Tensor{l.Input} }

// Softmax applies the numerically-stable softmax (subtract max before exp).
type Softmax struct{ Input Tensor }

func (Softmax) Name() string       { return "softmax" }
func (s Softmax) Inputs() []Tensor { return []Tensor{s.Input} }

// DotProduct computes the scalar dot product of two equal-length 1-D tensors.
type DotProduct struct{ A, B Tensor }

func (DotProduct) Name() string       { return "dot_product" }
func (d DotProduct) Inputs() []Tensor { return []Tensor{d.A, d.B} }

// CrossProduct computes the 3-D cross product of two length-3 1-D tensors.
type CrossProduct struct{ A, B Tensor }

func (CrossProduct) Name() string       { return "cross_product" }
func (c CrossProduct) Inputs() []Tensor { return []Tensor{c.A, c.B} }

// VectorAdd adds two equal-shape tensors elementwise.
type VectorAdd struct{ A, B Tensor }

func (VectorAdd) Name() string       { return "vector_add" }
func (v VectorAdd) Inputs() []Tensor { return []Tensor{v.A, v.B} }

// VectorSubtract subtracts two equal-shape tensors elementwise.
type VectorSubtract struct{ A, B Tensor }

func (VectorSubtract) Name() string       { return "vector_subtract" }
func (v VectorSubtract) Inputs() []Tensor { return []Tensor{v.A, v.B} }

// ElemMultiply multiplies two equal-shape tensors elementwise.
type ElemMultiply struct{ A, B Tensor }

func (ElemMultiply) Name() string       { return "elem_multiply" }
func (e ElemMultiply) Inputs() []Tensor { return []Tensor{e.A, e.B} }

// ElemDivide divides two equal-shape tensors elementwise. A zero
// divisor yields +Inf, whatever the dividend, not an error.
type ElemDivide struct{ A, B Tensor }

func (ElemDivide) Name() string       { return "elem_divide" }
func (e ElemDivide) Inputs() []Tensor { return []Tensor{e.A, e.B} }

// Normalize rescales a 1-D tensor to unit L2 norm. A zero vector fails.
type Normalize struct{ Input Tensor }

func (Normalize) Name() string       { return "normalize" }
func (n Normalize) Inputs() []Tensor { return []Tensor{n.Input} }

// ErrZeroVector is returned by Normalize when the input has zero L2 norm.
var ErrZeroVector = fmt.Errorf("tensor: cannot normalize a zero vector")
