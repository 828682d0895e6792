package value

import (
	"fmt"

	"github.com/rayone121/widow/pkg/diag"
)

// Index reads coll[idx] for arrays, strings (yielding a char) and maps.
func Index(coll, idx Value) (Value, error) {
	switch coll.Kind {
	case KindArray:
		i, err := position(idx, len(coll.Arr.Elems))
		if err != nil {
			return Nil, err
		}
		return coll.Arr.Elems[i], nil
	case KindString:
		runes := []rune(coll.Str)
		i, err := position(idx, len(runes))
		if err != nil {
			return Nil, err
		}
		return Char(runes[i]), nil
	case KindMap:
		if idx.Kind != KindString {
			return Nil, fmt.Errorf("%w: map keys must be string, got %s", diag.ErrTypeMismatch, idx.TypeName())
		}
		v, ok := coll.Map.Get(idx.Str)
		if !ok {
			return Nil, fmt.Errorf("%w: key %q not found", diag.ErrIndex, idx.Str)
		}
		return v, nil
	}
	return Nil, fmt.Errorf("%w: cannot index %s", diag.ErrTypeMismatch, coll.TypeName())
}

// SetIndex writes coll[idx] = v through the shared handle.
func SetIndex(coll, idx, v Value) error {
	switch coll.Kind {
	case KindArray:
		i, err := position(idx, len(coll.Arr.Elems))
		if err != nil {
			return err
		}
		coll.Arr.Elems[i] = v
		return nil
	case KindMap:
		if idx.Kind != KindString {
			return fmt.Errorf("%w: map keys must be string, got %s", diag.ErrTypeMismatch, idx.TypeName())
		}
		coll.Map.Set(idx.Str, v)
		return nil
	}
	return fmt.Errorf("%w: cannot assign by index into %s", diag.ErrTypeMismatch, coll.TypeName())
}

func position(idx Value, n int) (int, error) {
	if idx.Kind != KindInt {
		return 0, fmt.Errorf("%w: index must be int, got %s", diag.ErrTypeMismatch, idx.TypeName())
	}
	if idx.I64 < 0 || idx.I64 >= int64(n) {
		return 0, fmt.Errorf("%w: index %d out of bounds for length %d", diag.ErrIndex, idx.I64, n)
	}
	return int(idx.I64), nil
}

// Field reads obj.name from a struct instance, or a key from a map.
func Field(obj Value, name string) (Value, error) {
	switch obj.Kind {
	case KindStruct:
		v, ok := obj.Obj.Get(name)
		if !ok {
			return Nil, fmt.Errorf("%w: %s has no field '%s'", diag.ErrIndex, obj.Obj.Name, name)
		}
		return v, nil
	case KindMap:
		return Index(obj, String(name))
	}
	return Nil, fmt.Errorf("%w: cannot access field '%s' on %s", diag.ErrTypeMismatch, name, obj.TypeName())
}

func SetField(obj Value, name string, v Value) error {
	switch obj.Kind {
	case KindStruct:
		if !obj.Obj.Set(name, v) {
			return fmt.Errorf("%w: %s has no field '%s'", diag.ErrIndex, obj.Obj.Name, name)
		}
		return nil
	case KindMap:
		obj.Map.Set(name, v)
		return nil
	}
	return fmt.Errorf("%w: cannot set field '%s' on %s", diag.ErrTypeMismatch, name, obj.TypeName())
}
