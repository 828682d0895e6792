package vm

import (
	"fmt"

	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/value"
)

// Frame is one active call. Slot 0 of the callee's locals is the first
// argument at stack[BP]; the callee value itself sits at stack[BP-1].
type Frame struct {
	ReturnIP    int
	ReturnChunk int
	BP          int
}

// bp is the base pointer of the running code; top-level code uses 0.
func (vm *VM) bp() int {
	if len(vm.frames) == 0 {
		return 0
	}
	return vm.frames[len(vm.frames)-1].BP
}

func (vm *VM) call(argc int) error {
	at := len(vm.stack) - 1 - argc
	if at < vm.bp() {
		return diag.ErrStackUnderflow
	}
	callee := vm.stack[at]
	if callee.Kind != value.KindFunction {
		return fmt.Errorf("%w: %s", diag.ErrNotCallable, callee.TypeName())
	}
	fn := callee.Fn
	if fn.Chunk < 0 || fn.Chunk >= len(vm.module.Chunks) {
		return fmt.Errorf("%w: function '%s' has no compiled body", diag.ErrNotCallable, fn.Name)
	}
	if argc != fn.Arity {
		return fmt.Errorf("%w: function '%s' expects %d arguments, got %d", diag.ErrArity, fn.Name, fn.Arity, argc)
	}
	if len(vm.frames) >= vm.maxFrames {
		return fmt.Errorf("%w: call depth exceeds %d", diag.ErrStackOverflow, vm.maxFrames)
	}

	vm.frames = append(vm.frames, Frame{ReturnIP: vm.ip, ReturnChunk: vm.chunkIdx, BP: at + 1})
	vm.chunkIdx = fn.Chunk
	vm.chunk = vm.module.Chunks[fn.Chunk]
	vm.ip = 0
	return nil
}

// ret leaves exactly one value in place of the callee and its slots. With no
// frame left, it ends the run.
func (vm *VM) ret() error {
	if len(vm.frames) == 0 {
		if len(vm.stack) > 0 {
			vm.result = vm.stack[len(vm.stack)-1]
		}
		vm.halted = true
		return nil
	}
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]

	if len(vm.stack) < f.BP {
		return diag.ErrStackUnderflow
	}
	result := value.Nil
	if len(vm.stack) > f.BP {
		result = vm.stack[len(vm.stack)-1]
	}
	vm.stack = vm.stack[:f.BP-1]
	vm.push(result)

	vm.chunkIdx = f.ReturnChunk
	vm.chunk = vm.module.Chunks[f.ReturnChunk]
	vm.ip = f.ReturnIP
	return nil
}
