package fix

import (
	"fmt"
	"sort"
)

// DefaultBeginString is used when a builder-constructed Message never
// set tag 8.
const DefaultBeginString = "FIXT.1.1"

// headerOrder lists the standard header tags that must appear first, in
// this fixed order, when present (§4.4 step 1). Any other standard-header
// tag (e.g. 43, 97, 122...) is not special-cased here; it simply sorts
// into "remaining top-level non-group fields" like any other field.
var headerOrder = []Tag{TagMsgType, 1128, 49, 56, 34, 52}

// Encode serializes m to wire format using m.Delimiter(), producing
// correct field ordering, body length, and checksum (§4.4).
func Encode(m *Message) []byte {
	msgType := m.fields[TagMsgType]
	body := encodeBody(m, msgType)

	beginString := DefaultBeginString
	if v, ok := m.fields[TagBeginString]; ok {
		beginString = v
	}

	var prefix []byte
	prefix = appendRecord(prefix, TagBeginString, beginString, m.delimiter)
	prefix = appendRecord(prefix, TagBodyLength, fmt.Sprintf("%d", len(body)), m.delimiter)

	out := make([]byte, 0, len(prefix)+len(body)+16)
	out = append(out, prefix...)
	out = append(out, body...)

	checksum := sumChecksum(out)
	out = appendRecord(out, TagCheckSum, fmt.Sprintf("%03d", checksum), m.delimiter)

	return out
}

func encodeBody(m *Message, msgType string) []byte {
	var body []byte

	headerSeen := make(map[Tag]bool, len(headerOrder))
	for _, tag := range headerOrder {
		headerSeen[tag] = true
		if v, ok := m.fields[tag]; ok {
			body = appendRecord(body, tag, v, m.delimiter)
		}
	}

	plainTags := make([]Tag, 0, len(m.fields))
	for tag := range m.fields {
		if tag == TagBeginString || tag == TagBodyLength || tag == TagCheckSum {
			continue
		}
		if headerSeen[tag] {
			continue
		}
		if _, isGroup := m.groups[tag]; isGroup {
			continue
		}
		plainTags = append(plainTags, tag)
	}
	sortTags(plainTags)
	for _, tag := range plainTags {
		body = appendRecord(body, tag, m.fields[tag], m.delimiter)
	}

	groupTags := make([]Tag, 0, len(m.groups))
	for tag := range m.groups {
		groupTags = append(groupTags, tag)
	}
	sortTags(groupTags)
	for _, countTag := range groupTags {
		entries := m.groups[countTag]
		body = appendRecord(body, countTag, fmt.Sprintf("%d", len(entries)), m.delimiter)
		binding, _ := lookupBinding(countTag, msgType)
		for _, id := range entries {
			entry, ok := m.arena.get(id)
			if !ok {
				continue
			}
			body = encodeEntry(body, m, entry, binding, msgType, m.delimiter)
		}
	}

	return body
}

// encodeEntry serializes one GroupEntry per §4.4.1: the delimiter tag
// first (invariant 3 guarantees it is present), then the remaining
// fields in ascending order, then nested groups in ascending count-tag
// order, each serialized recursively using the same rules.
func encodeEntry(body []byte, m *Message, entry *GroupEntry, binding *groupBinding, msgType string, delim byte) []byte {
	if binding != nil {
		if v, ok := entry.Fields[binding.DelimiterTag]; ok {
			body = appendRecord(body, binding.DelimiterTag, v, delim)
		}
	}

	fieldTags := make([]Tag, 0, len(entry.Fields))
	for tag := range entry.Fields {
		if binding != nil && tag == binding.DelimiterTag {
			continue
		}
		if _, isNested := entry.NestedGroups[tag]; isNested {
			continue
		}
		fieldTags = append(fieldTags, tag)
	}
	sortTags(fieldTags)
	for _, tag := range fieldTags {
		body = appendRecord(body, tag, entry.Fields[tag], delim)
	}

	nestedTags := make([]Tag, 0, len(entry.NestedGroups))
	for tag := range entry.NestedGroups {
		nestedTags = append(nestedTags, tag)
	}
	sortTags(nestedTags)
	for _, countTag := range nestedTags {
		ids := entry.NestedGroups[countTag]
		body = appendRecord(body, countTag, fmt.Sprintf("%d", len(ids)), delim)
		nestedBinding, _ := lookupBinding(countTag, msgType)
		for _, id := range ids {
			child, ok := m.arena.get(id)
			if !ok {
				continue
			}
			body = encodeEntry(body, m, child, nestedBinding, msgType, delim)
		}
	}

	return body
}

func appendRecord(buf []byte, tag Tag, value string, delim byte) []byte {
	buf = append(buf, []byte(fmt.Sprintf("%d=", tag))...)
	buf = append(buf, value...)
	buf = append(buf, delim)
	return buf
}

func sortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
}

func sumChecksum(data []byte) int {
	sum := 0
	for _, b := range data {
		sum += int(b)
	}
	return sum % 256
}
