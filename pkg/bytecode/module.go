package bytecode

import "fmt"

// Module is a compiled program: its chunks and the chunk execution starts in.
type Module struct {
	Chunks []*Chunk
	Entry  int
}

// NewModule returns a module whose entry chunk is main.
func NewModule(main *Chunk) *Module {
	return &Module{Chunks: []*Chunk{main}}
}

// AddChunk appends c and returns its index, used by function values.
func (m *Module) AddChunk(c *Chunk) int {
	m.Chunks = append(m.Chunks, c)
	return len(m.Chunks) - 1
}

func (m *Module) EntryChunk() *Chunk {
	return m.Chunks[m.Entry]
}

func (m *Module) Validate() error {
	if len(m.Chunks) == 0 {
		return fmt.Errorf("module has no chunks")
	}
	if m.Entry < 0 || m.Entry >= len(m.Chunks) {
		return fmt.Errorf("entry chunk %d out of range (%d chunks)", m.Entry, len(m.Chunks))
	}
	for i, c := range m.Chunks {
		if c == nil {
			return fmt.Errorf("chunk %d is missing", i)
		}
	}
	return nil
}
