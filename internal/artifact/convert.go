package artifact

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Tuple is a struct argument keyed by the Solidity field names, e.g.
// Tuple{"isPut": true, "decimals": 18}. It is converted to the anonymous
// struct type go-ethereum packs tuples from.
type Tuple map[string]any

func convertArgs(inputs abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("want %d args, got %d", len(inputs), len(args))
	}
	out := make([]any, len(args))
	for i, in := range inputs {
		v, err := convert(in.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("arg %s: %w", in.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func convert(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.TupleTy:
		tup, ok := v.(Tuple)
		if !ok {
			return v, nil
		}
		return convertTuple(t, tup)
	case abi.IntTy, abi.UintTy:
		return convertInt(t, v)
	case abi.AddressTy:
		if s, ok := v.(string); ok {
			if !common.IsHexAddress(s) {
				return nil, fmt.Errorf("bad address %q", s)
			}
			return common.HexToAddress(s), nil
		}
		return v, nil
	case abi.SliceTy, abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			return v, nil
		}
		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			if len(items) != t.Size {
				return nil, fmt.Errorf("want %d elements, got %d", t.Size, len(items))
			}
			out = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			cv, err := convert(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(cv))
		}
		return out.Interface(), nil
	default:
		return v, nil
	}
}

func convertTuple(t abi.Type, tup Tuple) (any, error) {
	out := reflect.New(t.GetType()).Elem()
	seen := make(map[string]bool, len(t.TupleElems))
	for i, elem := range t.TupleElems {
		name := t.TupleRawNames[i]
		seen[name] = true
		fv, ok := tup[name]
		if !ok {
			return nil, fmt.Errorf("tuple field %q missing", name)
		}
		cv, err := convert(*elem, fv)
		if err != nil {
			return nil, fmt.Errorf("tuple field %q: %w", name, err)
		}
		rv := reflect.ValueOf(cv)
		if !rv.Type().AssignableTo(out.Field(i).Type()) {
			return nil, fmt.Errorf("tuple field %q: cannot use %T as %s", name, cv, out.Field(i).Type())
		}
		out.Field(i).Set(rv)
	}
	var extra []string
	for name := range tup {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("unknown tuple fields %v", extra)
	}
	return out.Interface(), nil
}

func convertInt(t abi.Type, v any) (any, error) {
	n, err := toBig(v)
	if err != nil {
		return nil, err
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", n, t)
	}
	mag := n
	limit := t.Size
	if t.T == abi.IntTy {
		limit--
		// the negative range reaches one further: int8 holds -128
		if n.Sign() < 0 {
			mag = new(big.Int).Not(n)
		}
	}
	if mag.BitLen() > limit {
		return nil, fmt.Errorf("%s overflows %s", n, t)
	}
	switch {
	case t.T == abi.UintTy && t.Size == 8:
		return uint8(n.Uint64()), nil
	case t.T == abi.UintTy && t.Size == 16:
		return uint16(n.Uint64()), nil
	case t.T == abi.UintTy && t.Size == 32:
		return uint32(n.Uint64()), nil
	case t.T == abi.UintTy && t.Size == 64:
		return n.Uint64(), nil
	case t.T == abi.IntTy && t.Size == 8:
		return int8(n.Int64()), nil
	case t.T == abi.IntTy && t.Size == 16:
		return int16(n.Int64()), nil
	case t.T == abi.IntTy && t.Size == 32:
		return int32(n.Int64()), nil
	case t.T == abi.IntTy && t.Size == 64:
		return n.Int64(), nil
	}
	return n, nil
}

func toBig(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case string:
		n, ok := new(big.Int).SetString(x, 0)
		if !ok {
			return nil, fmt.Errorf("bad integer %q", x)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot use %T as integer", v)
	}
}
