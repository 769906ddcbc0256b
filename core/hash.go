package core

import (
	"encoding/binary"
	"hash/fnv"
)

// Hashable is satisfied by every Type; checker.SubType uses it for
// syntactic equality, and checker.Merge uses it to intersect permission
// lists via github.com/xtgo/set.
type Hashable interface {
	Hash() uint64
}

func kindHashBytes(k Kind) []byte {
	switch k := k.(type) {
	case TermKind:
		return []byte("Term")
	case TypeKind:
		return []byte("Type")
	case PermKind:
		return []byte("Perm")
	case ArrowKind:
		out := append([]byte("Arrow("), kindHashBytes(k.Domain)...)
		out = append(out, kindHashBytes(k.Codomain)...)
		return append(out, ')')
	default:
		return nil
	}
}

func (UnknownType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("UnknownType"))
	return h.Sum64()
}

func (DynamicType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("DynamicType"))
	return h.Sum64()
}

func (t BoundType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("BoundType"))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, uint64(t.Index)))
	return h.Sum64()
}

func (t OpenType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("OpenType"))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, uint64(t.Var)))
	return h.Sum64()
}

func (t ForallType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ForallType"))
	_, _ = h.Write(kindHashBytes(t.Binding.Kind))
	arr := binary.LittleEndian.AppendUint64(nil, uint64(t.Binding.Flavor))
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t ExistsType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ExistsType"))
	_, _ = h.Write(kindHashBytes(t.Binding.Kind))
	arr := binary.LittleEndian.AppendUint64(nil, uint64(t.Binding.Flavor))
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t AppType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("AppType"))
	arr := binary.LittleEndian.AppendUint64(nil, uint64(t.Head))
	for _, a := range t.Args {
		arr = binary.LittleEndian.AppendUint64(arr, a.(Hashable).Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t TupleType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("TupleType"))
	arr := make([]byte, 0, 8*len(t.Fields))
	for _, f := range t.Fields {
		arr = binary.LittleEndian.AppendUint64(arr, f.(Hashable).Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t ConcreteType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ConcreteType"))
	_, _ = h.Write([]byte(t.Datacon))
	for _, f := range t.Fields {
		_, _ = h.Write([]byte(f.Name))
		if f.IsPermission {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, f.Type.(Hashable).Hash()))
	}
	if t.Adopts != nil {
		_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, t.Adopts.(Hashable).Hash()))
	}
	return h.Sum64()
}

func (t SingletonType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("SingletonType"))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, t.Value.(Hashable).Hash()))
	return h.Sum64()
}

func (t ArrowType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ArrowType"))
	arr := binary.LittleEndian.AppendUint64(nil, t.Domain.(Hashable).Hash())
	arr = binary.LittleEndian.AppendUint64(arr, t.Codomain.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t AnchoredPerm) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("AnchoredPerm"))
	arr := binary.LittleEndian.AppendUint64(nil, uint64(t.Var))
	arr = binary.LittleEndian.AppendUint64(arr, t.Type.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t StarPerm) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("StarPerm"))
	arr := binary.LittleEndian.AppendUint64(nil, t.Left.(Hashable).Hash())
	arr = binary.LittleEndian.AppendUint64(arr, t.Right.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (EmptyPerm) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("EmptyPerm"))
	return h.Sum64()
}

func (t BarType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("BarType"))
	arr := binary.LittleEndian.AppendUint64(nil, t.Value.(Hashable).Hash())
	arr = binary.LittleEndian.AppendUint64(arr, t.Perm.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t AndType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("AndType"))
	arr := make([]byte, 0)
	for _, c := range t.Constraints {
		arr = binary.LittleEndian.AppendUint64(arr, uint64(c.Kind))
		arr = binary.LittleEndian.AppendUint64(arr, c.Type.(Hashable).Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t ImplyType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ImplyType"))
	arr := make([]byte, 0)
	for _, c := range t.Constraints {
		arr = binary.LittleEndian.AppendUint64(arr, uint64(c.Kind))
		arr = binary.LittleEndian.AppendUint64(arr, c.Type.(Hashable).Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.(Hashable).Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

var (
	_ Hashable = UnknownType{}
	_ Hashable = DynamicType{}
	_ Hashable = BoundType{}
	_ Hashable = OpenType{}
	_ Hashable = ForallType{}
	_ Hashable = ExistsType{}
	_ Hashable = AppType{}
	_ Hashable = TupleType{}
	_ Hashable = ConcreteType{}
	_ Hashable = SingletonType{}
	_ Hashable = ArrowType{}
	_ Hashable = AnchoredPerm{}
	_ Hashable = StarPerm{}
	_ Hashable = EmptyPerm{}
	_ Hashable = BarType{}
	_ Hashable = AndType{}
	_ Hashable = ImplyType{}
)
