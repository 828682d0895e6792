package bytecode

import (
	"fmt"
	"strings"

	"github.com/rayone121/widow/pkg/value"
)

// Disassemble returns a listing of every chunk in the module.
func (m *Module) Disassemble() string {
	var sb strings.Builder
	for i, c := range m.Chunks {
		name := fmt.Sprintf("chunk %d", i)
		if i == m.Entry {
			name += " (entry)"
		}
		sb.WriteString(c.Disassemble(name))
		if i < len(m.Chunks)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Disassemble returns a human-readable listing of the chunk with a name header.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range c.Constants {
			display := v.String()
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf(";   [%d] %s %q\n", i, v.Kind, display))
		}
	}
	if len(c.Locals) > 0 {
		sb.WriteString(fmt.Sprintf("; Locals: %s\n", strings.Join(c.Locals, ", ")))
	}

	prevLine := -1
	for offset := 0; offset < len(c.Code); {
		text, next := c.DisassembleInstruction(offset)
		line := c.LineAt(offset)
		if line == prevLine {
			sb.WriteString(fmt.Sprintf("%04X     |  %s\n", offset, text))
		} else {
			sb.WriteString(fmt.Sprintf("%04X  %4d  %s\n", offset, line, text))
		}
		prevLine = line
		offset = next
	}
	return sb.String()
}

// DisassembleInstruction renders the instruction at offset and returns the
// offset of the next one.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	op := Opcode(c.Code[offset])
	info := GetOpcodeInfo(op)
	next := offset + 1 + info.OperandLen
	if next > len(c.Code) {
		return fmt.Sprintf("%-16s <truncated>", info.Name), len(c.Code)
	}

	switch {
	case info.OperandLen == 0:
		return info.Name, next
	case op.IsJump():
		delta := c.ReadJump(offset + 1)
		return fmt.Sprintf("%-16s %+d -> %04X", info.Name, delta, next+delta), next
	case op == OpConstant:
		idx := int(c.Code[offset+1])
		return fmt.Sprintf("%-16s %3d %s", info.Name, idx, c.describeConstant(idx)), next
	case op.NamesConstant():
		idx := int(c.Code[offset+1])
		name, err := c.ConstantName(idx)
		if err != nil {
			return fmt.Sprintf("%-16s %3d <bad name>", info.Name, idx), next
		}
		return fmt.Sprintf("%-16s %3d '%s'", info.Name, idx, name), next
	case op == OpGetLocal || op == OpSetLocal:
		slot := int(c.Code[offset+1])
		if slot < len(c.Locals) {
			return fmt.Sprintf("%-16s %3d (%s)", info.Name, slot, c.Locals[slot]), next
		}
		return fmt.Sprintf("%-16s %3d", info.Name, slot), next
	default:
		return fmt.Sprintf("%-16s %3d", info.Name, c.Code[offset+1]), next
	}
}

func (c *Chunk) describeConstant(idx int) string {
	if idx >= len(c.Constants) {
		return "<out of range>"
	}
	v := c.Constants[idx]
	if v.Kind == value.KindString {
		return fmt.Sprintf("%q", v.Str)
	}
	return "(" + v.String() + ")"
}
