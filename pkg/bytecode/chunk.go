package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// MaxConstants is the size limit of one chunk's constant pool; operands
// index it with a single byte.
const MaxConstants = 256

// Chunk is one compiled body: code, constant pool and a line for every code
// byte. Locals and Upvalues hold names for debugging only.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Lines     []int
	Locals    []string
	Upvalues  []string
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:  make([]byte, 0, 64),
		Lines: make([]int, 0, 64),
	}
}

// Write appends one byte produced by the given source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// Emit appends an opcode and its operand bytes and returns the opcode offset.
func (c *Chunk) Emit(op Opcode, line int, operands ...byte) int {
	offset := len(c.Code)
	c.Write(byte(op), line)
	for _, b := range operands {
		c.Write(b, line)
	}
	return offset
}

// AddConstant appends v to the pool and returns its index.
func (c *Chunk) AddConstant(v value.Value, line int) (int, error) {
	if len(c.Constants) >= MaxConstants {
		return 0, diag.New(diag.Compile, line, 0, diag.ErrConstantOverflow,
			"too many constants in one chunk (max %d)", MaxConstants)
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// EmitJump writes a jump with a placeholder offset and returns the offset of
// the operand for PatchJump.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.Emit(op, line, 0xFF, 0xFF)
	return len(c.Code) - 2
}

// PatchJump points the jump whose operand is at operandOffset to the current
// end of the code.
func (c *Chunk) PatchJump(operandOffset int) error {
	return c.PatchJumpTo(operandOffset, len(c.Code))
}

func (c *Chunk) PatchJumpTo(operandOffset, target int) error {
	delta := target - (operandOffset + 2)
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		return diag.New(diag.Compile, c.LineAt(operandOffset), 0, diag.ErrInvalidOperand,
			"jump distance %d does not fit in 16 bits", delta)
	}
	binary.LittleEndian.PutUint16(c.Code[operandOffset:], uint16(int16(delta)))
	return nil
}

// ReadJump decodes the signed offset stored at operandOffset.
func (c *Chunk) ReadJump(operandOffset int) int {
	return int(int16(binary.LittleEndian.Uint16(c.Code[operandOffset:])))
}

// LineAt returns the source line for a code offset, or 0 if unknown.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// ConstantName returns the text constant at index, as used by the
// name-carrying instructions.
func (c *Chunk) ConstantName(index int) (string, error) {
	if index >= len(c.Constants) {
		return "", fmt.Errorf("%w: constant index %d out of range", diag.ErrInvalidOperand, index)
	}
	v := c.Constants[index]
	if v.Kind != value.KindString {
		return "", fmt.Errorf("%w: constant %d is %s, want string", diag.ErrInvalidOperand, index, v.TypeName())
	}
	return v.Str, nil
}
