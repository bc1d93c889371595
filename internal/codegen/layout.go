package codegen

import (
	"fmt"

	"github.com/holiman/uint256"

	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

type SlotKind int

const (
	ScalarSlot SlotKind = iota
	ArraySlot
	MappingSlot
	ImmutableSlot
)

func (k SlotKind) String() string {
	switch k {
	case ArraySlot:
		return "array"
	case MappingSlot:
		return "mapping"
	case ImmutableSlot:
		return "immutable"
	default:
		return "scalar"
	}
}

// arrayStride is how far the cursor moves past an array, leaving room for
// its elements before the next variable.
var arrayStride = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// maxArrayIndex keeps element slots below the next variable's slot.
var maxArrayIndex = new(uint256.Int).Sub(arrayStride, uint256.NewInt(2))

// Slot is where one variable lives.
type Slot struct {
	Variable *ir.Property
	Kind     SlotKind

	// Slot is the storage slot of a scalar, or the length slot of an array
	// whose elements start at Slot+1.
	Slot *uint256.Int

	// Arity and Bucket identify a mapping; Base is (Arity << 128) | Bucket.
	Arity  int
	Bucket int
	Base   *uint256.Int

	// Source is the single expression an immutable takes its value from.
	// Inline immutables have a literal source and never touch storage.
	Source ir.Expression
	Inline bool
	// Staged is the index of a non-inline immutable in the construction
	// staging area.
	Staged int
}

// Elements is the slot of element 0 of an array.
func (s *Slot) Elements() *uint256.Int {
	return new(uint256.Int).AddUint64(s.Slot, 1)
}

// Layout assigns every variable of a contract its storage location.
type Layout struct {
	Slots []*Slot
	// Next is the cursor after the last variable.
	Next *uint256.Int
	// Arities lists the mapping arities in use, in first-use order.
	Arities []int
	// StagedCount is the number of immutables set during construction.
	StagedCount int

	byName map[string]*Slot
}

// Slot returns the location of the named variable, or nil.
func (l *Layout) Slot(name string) *Slot {
	return l.byName[name]
}

// PlanLayout walks c's variables in declaration order with one cursor
// starting at zero. Scalars take one slot. Arrays take a length slot and an
// element region, then push the cursor 2^128 further. Mappings take no
// cursor slot; their entries are addressed by hashing keys onto a base that
// encodes the mapping's arity and its index among mappings of that arity.
// Immutables take no slot and must have exactly one value source.
func PlanLayout(c *ir.Contract) (*Layout, error) {
	l := &Layout{byName: map[string]*Slot{}}
	cursor := new(uint256.Int)
	buckets := map[int]int{}
	taken := map[uint256.Int]string{}

	for _, v := range c.Variables {
		slot := &Slot{Variable: v}
		switch t := v.Type.(type) {
		case ir.MappingType:
			slot.Kind = MappingSlot
			slot.Arity = len(t.Inputs)
			if _, seen := buckets[slot.Arity]; !seen {
				l.Arities = append(l.Arities, slot.Arity)
			}
			slot.Bucket = buckets[slot.Arity]
			buckets[slot.Arity]++
			slot.Base = mappingBase(slot.Arity, slot.Bucket)

		case ir.ArrayType:
			slot.Kind = ArraySlot
			slot.Slot = cursor.Clone()
			if err := claim(taken, slot.Slot, v); err != nil {
				return nil, err
			}
			if err := claim(taken, new(uint256.Int).AddUint64(slot.Slot, 1), v); err != nil {
				return nil, err
			}
			cursor.Add(cursor, arrayStride)

		default:
			if v.Immutable {
				if err := resolveImmutable(c, v, slot); err != nil {
					return nil, err
				}
				if !slot.Inline {
					slot.Staged = l.StagedCount
					l.StagedCount++
				}
				break
			}
			slot.Kind = ScalarSlot
			slot.Slot = cursor.Clone()
			if err := claim(taken, slot.Slot, v); err != nil {
				return nil, err
			}
			cursor.AddUint64(cursor, 1)
		}
		l.Slots = append(l.Slots, slot)
		l.byName[v.Name] = slot
	}
	l.Next = cursor
	return l, nil
}

func mappingBase(arity, bucket int) *uint256.Int {
	base := new(uint256.Int).Lsh(uint256.NewInt(uint64(arity)), 128)
	return base.Or(base, uint256.NewInt(uint64(bucket)))
}

func claim(taken map[uint256.Int]string, slot *uint256.Int, v *ir.Property) error {
	if other, dup := taken[*slot]; dup {
		return errors.Structural(v.Pos, errors.ErrorStructural,
			"'%s' and '%s' were both assigned storage slot %s", other, v.Name, slot.Dec())
	}
	taken[*slot] = v.Name
	return nil
}

// resolveImmutable finds the one value source of v: its initializer or a
// single constructor assignment. Methods may never assign it.
func resolveImmutable(c *ir.Contract, v *ir.Property, slot *Slot) error {
	slot.Kind = ImmutableSlot

	var sources []ir.Expression
	if v.Initializer != nil {
		sources = append(sources, v.Initializer)
	}
	if c.Constructor != nil {
		sources = append(sources, assignmentsTo(c.Constructor.Body, v.Name)...)
	}
	for _, m := range c.Methods {
		if assigned := assignmentsTo(m.Body, v.Name); len(assigned) > 0 {
			return errors.Structural(assigned[0].Position(), errors.ErrorImmutableSource,
				"readonly property '%s' cannot be assigned in method '%s'", v.Name, m.Name)
		}
	}

	if len(sources) != 1 {
		return errors.ImmutableSource(v.Pos, v.Name, len(sources))
	}
	slot.Source = sources[0]
	if value, ok := slot.Source.(*ir.Value); ok {
		if _, err := literal(value); err != nil {
			return err
		}
		slot.Inline = true
	}
	return nil
}

func assignmentsTo(body []ir.Statement, name string) []ir.Expression {
	var values []ir.Expression
	ir.InspectStatements(body, func(s ir.Statement) bool {
		if u, ok := s.(*ir.StorageUpdate); ok && u.Property == name {
			values = append(values, u.Value)
		}
		return true
	})
	return values
}

// String renders the layout one variable per line.
func (l *Layout) String() string {
	out := ""
	for _, s := range l.Slots {
		switch s.Kind {
		case ScalarSlot, ArraySlot:
			out += fmt.Sprintf("%s: %s slot %s\n", s.Variable.Name, s.Kind, s.Slot.Dec())
		case MappingSlot:
			out += fmt.Sprintf("%s: mapping arity %d bucket %d\n", s.Variable.Name, s.Arity, s.Bucket)
		case ImmutableSlot:
			out += fmt.Sprintf("%s: immutable %s\n", s.Variable.Name, ir.ExpressionString(s.Source))
		}
	}
	out += "next: " + l.Next.Dec() + "\n"
	return out
}
