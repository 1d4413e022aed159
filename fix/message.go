// Package fix implements the core of a FIXT 1.1 / FIX 5.0 SP2 codec: a
// two-phase tokenizer/parser, a context-sensitive repeating-group engine,
// and an encoder that re-serializes a structured Message to wire format.
//
// The package is a pure, synchronous, single-threaded codec. It does not
// perform I/O, does not track session state, and does not validate
// business-level field semantics — it preserves unknown tags verbatim and
// leaves strict framing and sequence-number policy to callers.
package fix

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known tags the core itself is aware of. The core never interprets
// any other tag's value.
const (
	TagBeginString Tag = 8
	TagBodyLength  Tag = 9
	TagMsgType     Tag = 35
	TagCheckSum    Tag = 10
)

// Default delimiters recognized by auto-detection (§4.2).
const (
	SOH  byte = 0x01
	Pipe byte = '|'
)

// Message is the top-level structured container produced by Parse or by
// direct construction via NewMessage + the builder methods. It holds the
// top-level field map, the top-level group map, the shared arena for all
// group entries at all nesting depths, and the delimiter detected (or
// chosen) for this message.
//
// A Message is a plain owned value: safe to hand across a goroutine
// boundary once built, but not safe for concurrent mutation.
type Message struct {
	fields    map[Tag]string
	groups    map[Tag][]EntryID
	arena     arena
	delimiter byte
}

// NewMessage returns an empty Message ready for the builder API, using
// SOH as its delimiter.
func NewMessage() *Message {
	return &Message{
		fields:    make(map[Tag]string),
		groups:    make(map[Tag][]EntryID),
		delimiter: SOH,
	}
}

// Delimiter returns the byte used to separate records in this message,
// as auto-detected during Parse or as set for a builder-constructed one.
func (m *Message) Delimiter() byte {
	return m.delimiter
}

// GetField returns a top-level field's value, or ("", false) if absent.
func (m *Message) GetField(tag Tag) (string, bool) {
	v, ok := m.fields[tag]
	return v, ok
}

// GetGroup returns the ordered entry IDs of a top-level repeating group,
// or (nil, false) if the count tag was never opened.
func (m *Message) GetGroup(countTag Tag) ([]EntryID, bool) {
	ids, ok := m.groups[countTag]
	return ids, ok
}

// GroupCountTags returns every top-level count tag this message opened,
// in no particular order. Callers that need to walk every group a
// message carries (e.g. a strict-mode count validator) use this instead
// of guessing which count tags might be present.
func (m *Message) GroupCountTags() []Tag {
	tags := make([]Tag, 0, len(m.groups))
	for tag := range m.groups {
		tags = append(tags, tag)
	}
	return tags
}

// GetEntry returns a borrowed view of an arena entry by ID.
func (m *Message) GetEntry(id EntryID) (*GroupEntry, bool) {
	return m.arena.get(id)
}

// GetDecimal parses a field's value as a decimal number. It does not
// interpret field semantics beyond numeric parsing — callers decide which
// tags (Price, OrderQty, ...) are meaningfully decimal.
func (m *Message) GetDecimal(tag Tag) (decimal.Decimal, bool) {
	v, ok := m.fields[tag]
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// GetTime parses a field's value with the given time layout (e.g.
// "20060102-15:04:05.000" for SendingTime-shaped tags).
func (m *Message) GetTime(tag Tag, layout string) (time.Time, bool) {
	v, ok := m.fields[tag]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetField inserts or replaces a top-level field.
func (m *Message) SetField(tag Tag, value string) {
	m.fields[tag] = value
}

// OpenGroup declares a top-level repeating group with no entries yet. It
// is a no-op if the group is already open. Builders normally reach for
// AddEntry directly, which opens the group implicitly; OpenGroup exists
// for callers that must announce an empty group (count 0).
func (m *Message) OpenGroup(countTag Tag) {
	if _, ok := m.groups[countTag]; !ok {
		m.groups[countTag] = nil
	}
}

// AddEntry appends a new entry to a top-level group, recording
// delimiterValue as the entry's first field (invariant 3 of §3), and
// returns the new entry's ID.
func (m *Message) AddEntry(countTag, delimiterTag Tag, delimiterValue string) EntryID {
	id := m.arena.alloc()
	entry, _ := m.arena.get(id)
	entry.Fields[delimiterTag] = delimiterValue
	m.groups[countTag] = append(m.groups[countTag], id)
	return id
}

// AddNestedEntry opens or extends a nested group within an existing
// arena entry, recording delimiterValue as the nested entry's first
// field, and returns the new entry's ID.
func (m *Message) AddNestedEntry(parent EntryID, countTag, delimiterTag Tag, delimiterValue string) (EntryID, bool) {
	parentEntry, ok := m.arena.get(parent)
	if !ok {
		return 0, false
	}
	id := m.arena.alloc()
	entry, _ := m.arena.get(id)
	entry.Fields[delimiterTag] = delimiterValue
	parentEntry.NestedGroups[countTag] = append(parentEntry.NestedGroups[countTag], id)
	return id, true
}

// SetEntryField sets a field on an already-allocated arena entry. Used by
// the parser while an entry is the current context, and available to
// builders composing entries by hand.
func (m *Message) SetEntryField(id EntryID, tag Tag, value string) bool {
	entry, ok := m.arena.get(id)
	if !ok {
		return false
	}
	entry.Fields[tag] = value
	return true
}
