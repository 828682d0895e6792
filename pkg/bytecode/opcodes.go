package bytecode

import "fmt"

// Opcode is one instruction byte. The numbering is part of the persisted
// module format and must not change.
type Opcode byte

const (
	OpNoop        Opcode = 0
	OpConstant    Opcode = 1 // OpConstant <index:u8>
	OpAdd         Opcode = 2
	OpSubtract    Opcode = 3
	OpMultiply    Opcode = 4
	OpDivide      Opcode = 5
	OpNegate      Opcode = 6
	OpNot         Opcode = 7
	OpEqual       Opcode = 8
	OpNotEqual    Opcode = 9
	OpGreater     Opcode = 10
	OpGreaterEq   Opcode = 11
	OpLess        Opcode = 12
	OpLessEq      Opcode = 13
	OpJump        Opcode = 14 // OpJump <offset:i16>, relative to the next instruction
	OpJumpIfFalse Opcode = 15 // OpJumpIfFalse <offset:i16>, condition is left on the stack
	OpCall        Opcode = 16 // OpCall <argc:u8>
	OpReturn      Opcode = 17
	OpPop         Opcode = 18
	OpGetLocal    Opcode = 19 // OpGetLocal <slot:u8>
	OpSetLocal    Opcode = 20 // OpSetLocal <slot:u8>
	OpGetGlobal   Opcode = 21 // OpGetGlobal <name:u8>
	OpSetGlobal   Opcode = 22 // OpSetGlobal <name:u8>
	OpDefGlobal   Opcode = 23 // OpDefGlobal <name:u8>
	OpBorrowShr   Opcode = 24 // OpBorrowShr <name:u8>
	OpBorrowMut   Opcode = 25 // OpBorrowMut <name:u8>
	OpRelease     Opcode = 26 // OpRelease <name:u8>
	OpPushScope   Opcode = 27
	OpPopScope    Opcode = 28
	OpArray       Opcode = 29 // OpArray <count:u8>
	OpGetIndex    Opcode = 30
	OpSetIndex    Opcode = 31
	OpGetField    Opcode = 32 // OpGetField <name:u8>
	OpSetField    Opcode = 33 // OpSetField <name:u8>
	OpPrint       Opcode = 34
	OpModulo      Opcode = 35
	OpNil         Opcode = 36
)

// OpcodeInfo describes an opcode for the disassembler and decoders.
type OpcodeInfo struct {
	Name       string
	StackPop   int // -1 when it depends on the operand
	StackPush  int
	OperandLen int
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNoop:        {"NOOP", 0, 0, 0},
	OpConstant:    {"CONSTANT", 0, 1, 1},
	OpAdd:         {"ADD", 2, 1, 0},
	OpSubtract:    {"SUBTRACT", 2, 1, 0},
	OpMultiply:    {"MULTIPLY", 2, 1, 0},
	OpDivide:      {"DIVIDE", 2, 1, 0},
	OpNegate:      {"NEGATE", 1, 1, 0},
	OpNot:         {"NOT", 1, 1, 0},
	OpEqual:       {"EQUAL", 2, 1, 0},
	OpNotEqual:    {"NOT_EQUAL", 2, 1, 0},
	OpGreater:     {"GREATER", 2, 1, 0},
	OpGreaterEq:   {"GREATER_EQUAL", 2, 1, 0},
	OpLess:        {"LESS", 2, 1, 0},
	OpLessEq:      {"LESS_EQUAL", 2, 1, 0},
	OpJump:        {"JUMP", 0, 0, 2},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 0, 0, 2},
	OpCall:        {"CALL", -1, 1, 1},
	OpReturn:      {"RETURN", 1, 0, 0},
	OpPop:         {"POP", 1, 0, 0},
	OpGetLocal:    {"GET_LOCAL", 0, 1, 1},
	OpSetLocal:    {"SET_LOCAL", 0, 0, 1},
	OpGetGlobal:   {"GET_GLOBAL", 0, 1, 1},
	OpSetGlobal:   {"SET_GLOBAL", 0, 0, 1},
	OpDefGlobal:   {"DEFINE_GLOBAL", 1, 0, 1},
	OpBorrowShr:   {"BORROW_SHARED", 0, 1, 1},
	OpBorrowMut:   {"BORROW_MUT", 0, 1, 1},
	OpRelease:     {"RELEASE_BORROW", 0, 0, 1},
	OpPushScope:   {"PUSH_SCOPE", 0, 0, 0},
	OpPopScope:    {"POP_SCOPE", 0, 0, 0},
	OpArray:       {"ARRAY", -1, 1, 1},
	OpGetIndex:    {"GET_INDEX", 2, 1, 0},
	OpSetIndex:    {"SET_INDEX", 3, 1, 0},
	OpGetField:    {"GET_FIELD", 1, 1, 1},
	OpSetField:    {"SET_FIELD", 2, 1, 1},
	OpPrint:       {"PRINT", 1, 0, 0},
	OpModulo:      {"MODULO", 2, 1, 0},
	OpNil:         {"NIL", 0, 1, 0},
}

// GetOpcodeInfo returns metadata for op. Unknown opcodes get a name of the
// form UNKNOWN(0xNN) and no operands.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse
}

// NamesConstant reports whether the operand indexes a text constant that
// names a variable or field.
func (op Opcode) NamesConstant() bool {
	switch op {
	case OpGetGlobal, OpSetGlobal, OpDefGlobal, OpBorrowShr, OpBorrowMut, OpRelease, OpGetField, OpSetField:
		return true
	}
	return false
}
