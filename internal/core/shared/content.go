package shared

import (
	"fmt"
	"maps"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// ContentKind enumerates the payloads an item can carry.
type ContentKind uint8

const (
	// KindAny holds one or more JSON-like values: nil, bool, numbers,
	// strings, []any and map[string]any built from the same.
	KindAny ContentKind = iota + 1
	// KindBinary holds a single byte buffer.
	KindBinary
	// KindType holds a single nested shared type.
	KindType
	// KindDeleted stands in for garbage content and is never countable.
	KindDeleted
)

func (k ContentKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindBinary:
		return "binary"
	case KindType:
		return "type"
	case KindDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Content is the payload of an Item.
type Content interface {
	Kind() ContentKind
	// Len is the number of logical elements, one clock each.
	Len() int
	Countable() bool
	// Values materializes the logical elements, len(Values()) == Len().
	Values() []any

	// splice keeps the first offset elements and returns the rest.
	splice(offset int) Content
	integrate(tx *Transaction, item *Item)
	delete(tx *Transaction)
}

var (
	_ Content = (*ContentAny)(nil)
	_ Content = (*ContentBinary)(nil)
	_ Content = (*ContentType)(nil)
	_ Content = (*ContentDeleted)(nil)
)

// ContentAny holds a run of JSON-like values.
type ContentAny struct {
	values []any
}

func (c *ContentAny) Kind() ContentKind { return KindAny }
func (c *ContentAny) Len() int          { return len(c.values) }
func (c *ContentAny) Countable() bool   { return true }
func (c *ContentAny) Values() []any     { return slices.Clone(c.values) }

func (c *ContentAny) splice(offset int) Content {
	right := &ContentAny{values: slices.Clone(c.values[offset:])}
	c.values = c.values[:offset:offset]
	return right
}

func (c *ContentAny) integrate(*Transaction, *Item) {}
func (c *ContentAny) delete(*Transaction)           {}

// ContentBinary holds one byte buffer.
type ContentBinary struct {
	data []byte
}

func (c *ContentBinary) Kind() ContentKind { return KindBinary }
func (c *ContentBinary) Len() int          { return 1 }
func (c *ContentBinary) Countable() bool   { return true }
func (c *ContentBinary) Values() []any     { return []any{slices.Clone(c.data)} }

func (c *ContentBinary) splice(int) Content {
	panic("shared: binary content has a single element and cannot be split")
}

func (c *ContentBinary) integrate(*Transaction, *Item) {}
func (c *ContentBinary) delete(*Transaction)           {}

// ContentType embeds one nested shared type.
type ContentType struct {
	typ Type
}

func (c *ContentType) Kind() ContentKind { return KindType }
func (c *ContentType) Len() int          { return 1 }
func (c *ContentType) Countable() bool   { return true }
func (c *ContentType) Values() []any     { return []any{c.typ} }

// Type returns the embedded shared type.
func (c *ContentType) Type() Type { return c.typ }

func (c *ContentType) splice(int) Content {
	panic("shared: type content has a single element and cannot be split")
}

func (c *ContentType) integrate(tx *Transaction, item *Item) {
	c.typ.integrate(tx, item)
}

// delete tombstones everything the nested type holds. The nested type emits
// no event of its own for this transaction.
func (c *ContentType) delete(tx *Transaction) {
	t := c.typ.base()
	for n := t.first(); n != nil; n = t.next(n) {
		if !n.deleted {
			n.delete(tx)
		}
	}
	for _, id := range t.entries {
		if n := t.doc.store.find(id); n != nil && !n.deleted {
			n.delete(tx)
		}
	}
	tx.forget(t)
}

// ContentDeleted replaces garbage-collected content, keeping only its length.
type ContentDeleted struct {
	length int
}

func (c *ContentDeleted) Kind() ContentKind { return KindDeleted }
func (c *ContentDeleted) Len() int          { return c.length }
func (c *ContentDeleted) Countable() bool   { return false }
func (c *ContentDeleted) Values() []any     { return nil }

func (c *ContentDeleted) splice(offset int) Content {
	right := &ContentDeleted{length: c.length - offset}
	c.length = offset
	return right
}

func (c *ContentDeleted) integrate(*Transaction, *Item) {}
func (c *ContentDeleted) delete(*Transaction)           {}

// classify decides the content kind of a value handed to Insert or Set.
func classify(v any) (ContentKind, error) {
	switch val := v.(type) {
	case []byte:
		return KindBinary, nil
	case Type:
		if val.base().doc != nil {
			return 0, fmt.Errorf("%w: %T", ErrIntegratedType, v)
		}
		return KindType, nil
	}
	if err := checkJSON(v); err != nil {
		return 0, err
	}
	return KindAny, nil
}

// classifyAll classifies values and checks the nested types among them with
// checkEmbed. Types in skip are treated as already seen.
func classifyAll(values []any, skip ...Type) ([]ContentKind, error) {
	kinds := make([]ContentKind, len(values))
	for i, v := range values {
		k, err := classify(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		kinds[i] = k
	}
	if err := checkEmbed(values, skip...); err != nil {
		return nil, err
	}
	return kinds, nil
}

// checkEmbed walks the nested types in values, following detached types into
// their preliminary content. A type may be embedded once: integrated types
// and types reached twice are rejected.
func checkEmbed(values []any, skip ...Type) error {
	seen := mapset.NewThreadUnsafeSet[Type](skip...)
	var walk func(values []any) error
	walk = func(values []any) error {
		for _, v := range values {
			typ, ok := v.(Type)
			if !ok {
				continue
			}
			if typ.base().doc != nil {
				return fmt.Errorf("%w: %T", ErrIntegratedType, v)
			}
			if !seen.Add(typ) {
				return fmt.Errorf("%w: %T embedded twice", ErrIntegratedType, v)
			}
			if err := walk(prelimContent(typ)); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(values)
}

// prelimContent returns the values a detached type holds.
func prelimContent(typ Type) []any {
	switch v := typ.(type) {
	case *Array:
		return v.prelim
	case *Map:
		return slices.Collect(maps.Values(v.prelim))
	}
	return nil
}

func checkJSON(v any) error {
	switch val := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return nil
	case []any:
		for _, e := range val {
			if err := checkJSON(e); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, e := range val {
			if err := checkJSON(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedContent, v)
	}
}

// newContent builds the content of a single-element item.
func newContent(kind ContentKind, v any) Content {
	switch kind {
	case KindBinary:
		return &ContentBinary{data: slices.Clone(v.([]byte))}
	case KindType:
		return &ContentType{typ: v.(Type)}
	default:
		return &ContentAny{values: []any{v}}
	}
}
