package vm

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/rayone121/widow/pkg/bytecode"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

var binaryOps = map[bytecode.Opcode]value.BinaryOp{
	bytecode.OpAdd:       value.OpAdd,
	bytecode.OpSubtract:  value.OpSub,
	bytecode.OpMultiply:  value.OpMul,
	bytecode.OpDivide:    value.OpDiv,
	bytecode.OpModulo:    value.OpMod,
	bytecode.OpEqual:     value.OpEqual,
	bytecode.OpNotEqual:  value.OpNotEqual,
	bytecode.OpGreater:   value.OpGreater,
	bytecode.OpGreaterEq: value.OpGreaterEqual,
	bytecode.OpLess:      value.OpLess,
	bytecode.OpLessEq:    value.OpLessEqual,
}

func (vm *VM) readByte() (int, error) {
	if vm.ip >= len(vm.chunk.Code) {
		return 0, fmt.Errorf("%w: truncated instruction at %04x", diag.ErrInvalidOperand, vm.ip)
	}
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return int(b), nil
}

func (vm *VM) readJump() (int, error) {
	if vm.ip+2 > len(vm.chunk.Code) {
		return 0, fmt.Errorf("%w: truncated jump at %04x", diag.ErrInvalidOperand, vm.ip)
	}
	off := vm.chunk.ReadJump(vm.ip)
	vm.ip += 2
	return off, nil
}

func (vm *VM) jump(off int) error {
	target := vm.ip + off
	if target < 0 || target > len(vm.chunk.Code) {
		return fmt.Errorf("%w: jump target %04x outside chunk", diag.ErrInvalidOperand, target)
	}
	vm.ip = target
	return nil
}

func (vm *VM) readName() (string, error) {
	idx, err := vm.readByte()
	if err != nil {
		return "", err
	}
	return vm.chunk.ConstantName(idx)
}

func (vm *VM) localIndex() (int, error) {
	slot, err := vm.readByte()
	if err != nil {
		return 0, err
	}
	i := vm.bp() + slot
	if i >= len(vm.stack) {
		return 0, fmt.Errorf("%w: local slot %d out of range", diag.ErrInvalidOperand, slot)
	}
	return i, nil
}

// execute decodes and runs the instruction at ip. Running off the end of a
// chunk is an implicit return.
func (vm *VM) execute() error {
	if vm.ip >= len(vm.chunk.Code) {
		return vm.ret()
	}
	op := bytecode.Opcode(vm.chunk.Code[vm.ip])
	if vm.trace {
		log.Debug("exec", "chunk", vm.chunkIdx, "ip", fmt.Sprintf("%04x", vm.ip), "op", op, "sp", len(vm.stack))
	}
	vm.ip++
	if !op.Valid() {
		return fmt.Errorf("%w: %d", diag.ErrUnknownInstruction, byte(op))
	}

	if bop, ok := binaryOps[op]; ok {
		a, b, err := vm.pop2()
		if err != nil {
			return err
		}
		r, err := value.Binary(bop, a, b)
		if err != nil {
			return err
		}
		vm.push(r)
		return nil
	}

	switch op {
	case bytecode.OpNoop:
		return nil

	case bytecode.OpConstant:
		idx, err := vm.readByte()
		if err != nil {
			return err
		}
		if idx >= len(vm.chunk.Constants) {
			return fmt.Errorf("%w: constant index %d out of range", diag.ErrInvalidOperand, idx)
		}
		vm.push(vm.chunk.Constants[idx])
		return nil

	case bytecode.OpNil:
		vm.push(value.Nil)
		return nil

	case bytecode.OpNegate, bytecode.OpNot:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		var r value.Value
		if op == bytecode.OpNegate {
			r, err = value.Negate(v)
		} else {
			r, err = value.Not(v)
		}
		if err != nil {
			return err
		}
		vm.push(r)
		return nil

	case bytecode.OpJump:
		off, err := vm.readJump()
		if err != nil {
			return err
		}
		return vm.jump(off)

	case bytecode.OpJumpIfFalse:
		off, err := vm.readJump()
		if err != nil {
			return err
		}
		cond, err := vm.peek()
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return vm.jump(off)
		}
		return nil

	case bytecode.OpCall:
		argc, err := vm.readByte()
		if err != nil {
			return err
		}
		return vm.call(argc)

	case bytecode.OpReturn:
		return vm.ret()

	case bytecode.OpPop:
		_, err := vm.pop()
		return err

	case bytecode.OpGetLocal:
		i, err := vm.localIndex()
		if err != nil {
			return err
		}
		vm.push(vm.stack[i])
		return nil

	case bytecode.OpSetLocal:
		i, err := vm.localIndex()
		if err != nil {
			return err
		}
		v, err := vm.peek()
		if err != nil {
			return err
		}
		vm.stack[i] = v
		return nil

	case bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpDefGlobal:
		name, err := vm.readName()
		if err != nil {
			return err
		}
		return vm.global(op, name)

	case bytecode.OpBorrowShr, bytecode.OpBorrowMut, bytecode.OpRelease:
		name, err := vm.readName()
		if err != nil {
			return err
		}
		return vm.borrow(op, name)

	case bytecode.OpPushScope:
		vm.scopes.Push()
		return nil

	case bytecode.OpPopScope:
		return vm.scopes.Pop()

	case bytecode.OpArray:
		n, err := vm.readByte()
		if err != nil {
			return err
		}
		if len(vm.stack)-n < vm.bp() {
			return diag.ErrStackUnderflow
		}
		elems := append([]value.Value(nil), vm.stack[len(vm.stack)-n:]...)
		vm.stack = vm.stack[:len(vm.stack)-n]
		vm.push(value.NewArray(elems...))
		return nil

	case bytecode.OpGetIndex:
		coll, idx, err := vm.pop2()
		if err != nil {
			return err
		}
		v, err := value.Index(coll, idx)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil

	case bytecode.OpSetIndex:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		coll, idx, err := vm.pop2()
		if err != nil {
			return err
		}
		if err := value.SetIndex(coll, idx, v); err != nil {
			return err
		}
		vm.push(v)
		return nil

	case bytecode.OpGetField:
		name, err := vm.readName()
		if err != nil {
			return err
		}
		obj, err := vm.pop()
		if err != nil {
			return err
		}
		v, err := value.Field(obj, name)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil

	case bytecode.OpSetField:
		name, err := vm.readName()
		if err != nil {
			return err
		}
		obj, v, err := vm.pop2()
		if err != nil {
			return err
		}
		if err := value.SetField(obj, name, v); err != nil {
			return err
		}
		vm.push(v)
		return nil

	case bytecode.OpPrint:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(vm.out, v.String())
		return err
	}

	return fmt.Errorf("%w: %d", diag.ErrUnknownInstruction, byte(op))
}

func (vm *VM) global(op bytecode.Opcode, name string) error {
	switch op {
	case bytecode.OpGetGlobal:
		v, err := vm.scopes.Get(name)
		if err != nil {
			return err
		}
		vm.push(v)
	case bytecode.OpSetGlobal:
		v, err := vm.peek()
		if err != nil {
			return err
		}
		return vm.scopes.Assign(name, v)
	default:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.scopes.Define(name, v)
	}
	return nil
}

// borrow pushes the borrowed variable's value; release pushes nothing.
func (vm *VM) borrow(op bytecode.Opcode, name string) error {
	if op == bytecode.OpRelease {
		vm.borrows.Release(name)
		return nil
	}
	v, err := vm.scopes.Get(name)
	if err != nil {
		return err
	}
	if op == bytecode.OpBorrowShr {
		if err := vm.borrows.BorrowShared(name); err != nil {
			return err
		}
	} else {
		mutable, err := vm.scopes.IsMutable(name)
		if err != nil {
			return err
		}
		if !mutable {
			return fmt.Errorf("%w: cannot mutably borrow immutable variable '%s'", diag.ErrBorrowConflict, name)
		}
		if err := vm.borrows.BorrowExclusive(name); err != nil {
			return err
		}
	}
	vm.push(v)
	return nil
}
