package provider

import (
	"bytes"
	"cmp"
	"slices"
)

// Map is an immutable collection of providers with at most one provider per
// type identifier, held in ascending identifier order. The zero Map is empty.
type Map struct {
	records []Any
}

// Build wraps every provider and assembles them into a Map. It fails as a
// unit: the first provider that cannot be encoded aborts construction, and
// two providers with the same identifier yield a DuplicateError naming the
// first duplicated identifier in sorted order.
func Build(providers ...Provider) (*Map, error) {
	records := make([]Any, 0, len(providers))
	for _, p := range providers {
		a, err := Wrap(p)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}

	slices.SortStableFunc(records, func(a, b Any) int {
		return cmp.Compare(a.id, b.id)
	})

	for i := 1; i < len(records); i++ {
		if records[i].id == records[i-1].id {
			return nil, &DuplicateError{ID: records[i].id}
		}
	}

	return &Map{records: records}, nil
}

// MustBuild is Build that panics on error.
func MustBuild(providers ...Provider) *Map {
	m, err := Build(providers...)
	if err != nil {
		panic(err)
	}
	return m
}

// Count returns the number of providers in the map.
func (m *Map) Count() int {
	if m == nil {
		return 0
	}
	return len(m.records)
}

// IDs returns the identifiers held, in ascending order.
func (m *Map) IDs() []TypeID {
	ids := make([]TypeID, 0, m.Count())
	for _, r := range m.all() {
		ids = append(ids, r.id)
	}
	return ids
}

// Has reports whether the map holds a provider with identifier id.
func (m *Map) Has(id TypeID) bool {
	_, ok := m.find(id)
	return ok
}

// Record returns the erased record for id.
func (m *Map) Record(id TypeID) (Any, bool) {
	return m.find(id)
}

// Records returns a copy of the erased records in map order.
func (m *Map) Records() []Any {
	return slices.Clone(m.all())
}

// Size returns the sum of the payload sizes.
func (m *Map) Size() int {
	total := 0
	for _, r := range m.all() {
		total += len(r.payload)
	}
	return total
}

// Equal reports whether m and other hold the same identifiers with
// byte-identical payloads.
func (m *Map) Equal(other *Map) bool {
	a, b := m.all(), other.all()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].id != b[i].id || !bytes.Equal(a[i].payload, b[i].payload) {
			return false
		}
	}
	return true
}

// Get returns the provider of type P, decoded with decode. It fails with a
// NotFoundError when the map holds no P.
func Get[P Provider](m *Map, decode Decoder[P]) (P, error) {
	id := IDOf[P]()
	a, ok := m.find(id)
	if !ok {
		var none P
		return none, &NotFoundError{ID: id}
	}
	return Unwrap(a, decode)
}

// GetAs is Get using the decoder registered for P in reg.
func GetAs[P Provider](m *Map, reg *Registry) (P, error) {
	id := IDOf[P]()
	a, ok := m.find(id)
	if !ok {
		var none P
		return none, &NotFoundError{ID: id}
	}
	return UnwrapAs[P](a, reg)
}

// Lookup is Get for optional providers: absence is reported through the
// boolean and is not an error.
func Lookup[P Provider](m *Map, decode Decoder[P]) (P, bool, error) {
	a, ok := m.find(IDOf[P]())
	if !ok {
		var none P
		return none, false, nil
	}
	p, err := Unwrap(a, decode)
	return p, true, err
}

// Decode reconstructs every provider through reg, in map order.
func (m *Map) Decode(reg *Registry) ([]Provider, error) {
	out := make([]Provider, 0, m.Count())
	for _, r := range m.all() {
		p, err := reg.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Map) all() []Any {
	if m == nil {
		return nil
	}
	return m.records
}

func (m *Map) find(id TypeID) (Any, bool) {
	records := m.all()
	i, ok := slices.BinarySearchFunc(records, id, func(a Any, id TypeID) int {
		return cmp.Compare(a.id, id)
	})
	if !ok {
		return Any{}, false
	}
	return records[i], true
}
