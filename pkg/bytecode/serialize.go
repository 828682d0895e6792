package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/rayone121/widow/pkg/value"
)

// Module file layout, little-endian:
//
//	"WDBC" [version:1] [entry:u32] [chunk_count:u32]
//	per chunk: [code_len:u32] [code...] [const_count:u32]
//
// Version 2 follows each constant count with the constants and the line table:
//
//	per constant: [tag:1] [payload_len:u32] [payload: canonical CBOR]
//	[line_count:u32] [line:u32]...
//
// Version 1 files carry no constant values; loading one yields a pool of nil
// placeholders of the recorded size.
const (
	Version1       byte = 1
	Version2       byte = 2
	CurrentVersion      = Version2
)

var Magic = []byte{'W', 'D', 'B', 'C'}

const (
	tagNil byte = iota
	tagInt
	tagFloat
	tagBool
	tagChar
	tagString
	tagFunction
	tagArray
	tagMap
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: cbor enc mode: %v", err))
	}
	cborEncMode = em
}

type wireFunction struct {
	Name   string   `cbor:"name"`
	Arity  int      `cbor:"arity"`
	Params []string `cbor:"params"`
	Chunk  int      `cbor:"chunk"`
}

type wireMap struct {
	Keys   []string `cbor:"keys"`
	Values [][]byte `cbor:"values"`
}

// Marshal encodes m in the given format version.
func Marshal(m *Module, version byte) ([]byte, error) {
	if version != Version1 && version != Version2 {
		return nil, fmt.Errorf("unsupported bytecode version %d", version)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, Magic...)
	buf = append(buf, version)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Entry))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Chunks)))

	for i, c := range m.Chunks {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Code)))
		buf = append(buf, c.Code...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Constants)))
		if version == Version1 {
			continue
		}
		for j, v := range c.Constants {
			rec, err := encodeConstant(v)
			if err != nil {
				return nil, fmt.Errorf("chunk %d constant %d: %w", i, j, err)
			}
			buf = append(buf, rec...)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Lines)))
		for _, line := range c.Lines {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(line))
		}
	}
	return buf, nil
}

// Encode writes m to w in the given format version.
func Encode(w io.Writer, m *Module, version byte) error {
	data, err := Marshal(m, version)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func Decode(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Unmarshal decodes a module written by Marshal in either version.
func Unmarshal(data []byte) (*Module, error) {
	rd := &reader{data: data}
	magic, err := rd.take(len(Magic), "magic")
	if err != nil {
		return nil, err
	}
	if string(magic) != string(Magic) {
		return nil, fmt.Errorf("invalid magic: expected %q, got %q", Magic, magic)
	}
	version, err := rd.u8("version")
	if err != nil {
		return nil, err
	}
	if version != Version1 && version != Version2 {
		return nil, fmt.Errorf("unsupported bytecode version %d", version)
	}
	entry, err := rd.u32("entry index")
	if err != nil {
		return nil, err
	}
	count, err := rd.u32("chunk count")
	if err != nil {
		return nil, err
	}

	m := &Module{Entry: int(entry), Chunks: make([]*Chunk, 0, min(count, 64))}
	for i := uint32(0); i < count; i++ {
		c, err := rd.chunk(version)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		m.Chunks = append(m.Chunks, c)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeConstant(v value.Value) ([]byte, error) {
	var (
		tag     byte
		payload []byte
		err     error
	)
	switch v.Kind {
	case value.KindNil:
		tag = tagNil
	case value.KindInt:
		tag = tagInt
		payload, err = cborEncMode.Marshal(v.I64)
	case value.KindFloat:
		tag = tagFloat
		payload, err = cborEncMode.Marshal(v.F64)
	case value.KindBool:
		tag = tagBool
		payload, err = cborEncMode.Marshal(v.Bool)
	case value.KindChar:
		tag = tagChar
		payload, err = cborEncMode.Marshal(uint32(v.Char))
	case value.KindString:
		tag = tagString
		payload, err = cborEncMode.Marshal(v.Str)
	case value.KindFunction:
		tag = tagFunction
		payload, err = cborEncMode.Marshal(wireFunction{
			Name: v.Fn.Name, Arity: v.Fn.Arity, Params: v.Fn.Params, Chunk: v.Fn.Chunk,
		})
	case value.KindArray:
		tag = tagArray
		elems := make([][]byte, len(v.Arr.Elems))
		for i, e := range v.Arr.Elems {
			if elems[i], err = encodeConstant(e); err != nil {
				return nil, err
			}
		}
		payload, err = cborEncMode.Marshal(elems)
	case value.KindMap:
		tag = tagMap
		wm := wireMap{Keys: v.Map.Keys()}
		for _, k := range wm.Keys {
			e, _ := v.Map.Get(k)
			rec, err := encodeConstant(e)
			if err != nil {
				return nil, err
			}
			wm.Values = append(wm.Values, rec)
		}
		payload, err = cborEncMode.Marshal(wm)
	default:
		return nil, fmt.Errorf("cannot encode %s constant", v.TypeName())
	}
	if err != nil {
		return nil, err
	}
	rec := make([]byte, 0, 5+len(payload))
	rec = append(rec, tag)
	rec = binary.LittleEndian.AppendUint32(rec, uint32(len(payload)))
	return append(rec, payload...), nil
}

func decodeConstant(rec []byte) (value.Value, error) {
	rd := &reader{data: rec}
	v, err := rd.constant()
	if err != nil {
		return value.Nil, err
	}
	if rd.pos != len(rec) {
		return value.Nil, fmt.Errorf("trailing bytes after constant")
	}
	return v, nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int, what string) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading %s", what)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8(what string) (byte, error) {
	b, err := r.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) chunk(version byte) (*Chunk, error) {
	n, err := r.u32("code length")
	if err != nil {
		return nil, err
	}
	code, err := r.take(int(n), "code")
	if err != nil {
		return nil, err
	}
	nconst, err := r.u32("constant count")
	if err != nil {
		return nil, err
	}
	if nconst > MaxConstants {
		return nil, fmt.Errorf("constant count %d exceeds %d", nconst, MaxConstants)
	}
	c := &Chunk{
		Code:      append([]byte(nil), code...),
		Constants: make([]value.Value, nconst),
	}
	if version == Version1 {
		c.Lines = make([]int, len(c.Code))
		return c, nil
	}
	for i := range c.Constants {
		if c.Constants[i], err = r.constant(); err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
	}
	nlines, err := r.u32("line count")
	if err != nil {
		return nil, err
	}
	if int(nlines) != len(c.Code) {
		return nil, fmt.Errorf("line table has %d entries for %d code bytes", nlines, len(c.Code))
	}
	c.Lines = make([]int, nlines)
	for i := range c.Lines {
		line, err := r.u32("line")
		if err != nil {
			return nil, err
		}
		c.Lines[i] = int(line)
	}
	return c, nil
}

func (r *reader) constant() (value.Value, error) {
	tag, err := r.u8("constant tag")
	if err != nil {
		return value.Nil, err
	}
	n, err := r.u32("constant length")
	if err != nil {
		return value.Nil, err
	}
	payload, err := r.take(int(n), "constant payload")
	if err != nil {
		return value.Nil, err
	}

	switch tag {
	case tagNil:
		return value.Nil, nil
	case tagInt:
		var i int64
		err = cbor.Unmarshal(payload, &i)
		return value.Int(i), err
	case tagFloat:
		var f float64
		err = cbor.Unmarshal(payload, &f)
		return value.Float(f), err
	case tagBool:
		var b bool
		err = cbor.Unmarshal(payload, &b)
		return value.Bool(b), err
	case tagChar:
		var c uint32
		err = cbor.Unmarshal(payload, &c)
		return value.Char(rune(c)), err
	case tagString:
		var s string
		err = cbor.Unmarshal(payload, &s)
		return value.String(s), err
	case tagFunction:
		var wf wireFunction
		if err := cbor.Unmarshal(payload, &wf); err != nil {
			return value.Nil, err
		}
		return value.NewFunction(&value.Function{
			Name: wf.Name, Arity: wf.Arity, Params: wf.Params, Chunk: wf.Chunk,
		}), nil
	case tagArray:
		var recs [][]byte
		if err := cbor.Unmarshal(payload, &recs); err != nil {
			return value.Nil, err
		}
		elems := make([]value.Value, len(recs))
		for i, rec := range recs {
			if elems[i], err = decodeConstant(rec); err != nil {
				return value.Nil, err
			}
		}
		return value.NewArray(elems...), nil
	case tagMap:
		var wm wireMap
		if err := cbor.Unmarshal(payload, &wm); err != nil {
			return value.Nil, err
		}
		if len(wm.Keys) != len(wm.Values) {
			return value.Nil, fmt.Errorf("map constant has %d keys and %d values", len(wm.Keys), len(wm.Values))
		}
		m := value.NewMap()
		for i, k := range wm.Keys {
			e, err := decodeConstant(wm.Values[i])
			if err != nil {
				return value.Nil, err
			}
			m.Map.Set(k, e)
		}
		return m, nil
	}
	return value.Nil, fmt.Errorf("unknown constant tag %d", tag)
}
