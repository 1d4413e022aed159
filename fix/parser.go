package fix

// maxGroupDepth bounds how many group contexts may be open at once by
// default. Eight is a safety margin well beyond the four levels of
// nesting the shipped registry bindings actually exercise; no shipped
// binding can reach it, so this is a resource guard, not a content
// limit. Callers that need a different bound use
// ParseDelimitedWithDepth/ParseWithDepth directly.
const maxGroupDepth = 8

// DefaultMaxGroupDepth exposes maxGroupDepth for callers (e.g.
// fix/codec.Service) that want to fall back to the package default when
// no override is configured.
const DefaultMaxGroupDepth = maxGroupDepth

// groupContext is one entry on the parser's context stack: a repeating
// group that has been opened (by its count tag) and may be between
// entries, awaiting its first entry, or mid-entry. Folding "awaiting an
// entry" and "inside an entry" into one frame (rather than two stack
// frame kinds) lets the delimiter-tag check in §4.3 rule 2 apply
// uniformly whether this is the group's first entry or a later one: the
// delimiter tag always starts a fresh entry, replacing whatever entry
// was previously current.
type groupContext struct {
	countTag       Tag
	binding        *groupBinding
	ownerIsMessage bool
	ownerEntryID   EntryID
	currentEntry   EntryID
	hasEntry       bool
}

// Parse parses a FIX message from wire format, auto-detecting the
// delimiter per §4.2 (SOH if present, else pipe, else SOH by default).
func Parse(data []byte) (*Message, error) {
	return ParseDelimited(data, detectDelimiter(data))
}

// ParseWithDepth is Parse with an overridable nesting depth guard.
func ParseWithDepth(data []byte, maxDepth int) (*Message, error) {
	return ParseDelimitedWithDepth(data, detectDelimiter(data), maxDepth)
}

// ParseDelimited parses a FIX message using an explicit delimiter,
// bypassing auto-detection.
func ParseDelimited(data []byte, delim byte) (*Message, error) {
	return ParseDelimitedWithDepth(data, delim, maxGroupDepth)
}

// ParseDelimitedWithDepth is ParseDelimited with an overridable nesting
// depth guard, for callers (e.g. fix/codec.Service) that enforce a
// tighter or looser limit than the package default.
func ParseDelimitedWithDepth(data []byte, delim byte, maxDepth int) (*Message, error) {
	records, err := tokenize(data, delim)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		fields:    make(map[Tag]string),
		groups:    make(map[Tag][]EntryID),
		delimiter: delim,
	}

	var msgType string
	var sawMsgType bool
	stack := []*groupContext{nil} // stack[0] is a sentinel meaning "the message itself"

	for _, rec := range records {
		if rec.Tag == TagMsgType && !sawMsgType {
			msgType = rec.Value
			sawMsgType = true
		}

		if err := processRecord(msg, &stack, rec.Tag, rec.Value, msgType, maxDepth); err != nil {
			return nil, err
		}
	}

	if !sawMsgType {
		return nil, ErrMissingMsgType
	}
	return msg, nil
}

func processRecord(msg *Message, stackPtr *[]*groupContext, tag Tag, value string, msgType string, maxDepth int) error {
	stack := *stackPtr
	for {
		top := stack[len(stack)-1]

		if top == nil {
			// Top-level message context.
			if binding, ok := lookupBinding(tag, msgType); ok {
				if _, err := parseGroupCount(tag, value); err != nil {
					return err
				}
				if len(stack) >= maxDepth+1 {
					return maxNestingDepth(len(stack))
				}
				msg.fields[tag] = value // informative declared count, §4.3 step 1.b
				frame := &groupContext{countTag: tag, binding: binding, ownerIsMessage: true}
				stack = append(stack, frame)
				*stackPtr = stack
				return nil
			}
			msg.SetField(tag, value)
			return nil
		}

		// Nested count-tag check: only meaningful once this group has a
		// current entry to attach the nested group to.
		if top.hasEntry && containsTag(top.binding.Nested, tag) {
			if binding, ok := lookupBinding(tag, msgType); ok {
				if _, err := parseGroupCount(tag, value); err != nil {
					return err
				}
				if len(stack) >= maxDepth+1 {
					return maxNestingDepth(len(stack))
				}
				entry, _ := msg.arena.get(top.currentEntry)
				entry.Fields[tag] = value // informative declared count
				frame := &groupContext{countTag: tag, binding: binding, ownerIsMessage: false, ownerEntryID: top.currentEntry}
				stack = append(stack, frame)
				*stackPtr = stack
				return nil
			}
		}

		// Delimiter-tag check: always starts a fresh entry of the
		// innermost open group, whether it is the first entry or a
		// later one.
		if tag == top.binding.DelimiterTag {
			id := msg.arena.alloc()
			if top.ownerIsMessage {
				msg.groups[top.countTag] = append(msg.groups[top.countTag], id)
			} else {
				parent, _ := msg.arena.get(top.ownerEntryID)
				parent.NestedGroups[top.countTag] = append(parent.NestedGroups[top.countTag], id)
			}
			entry, _ := msg.arena.get(id)
			entry.Fields[tag] = value
			top.currentEntry = id
			top.hasEntry = true
			return nil
		}

		// Member-tag check: only valid once an entry is current.
		if top.hasEntry {
			if _, ok := top.binding.Members[tag]; ok {
				entry, _ := msg.arena.get(top.currentEntry)
				entry.Fields[tag] = value // overwrite on repeat, tie-break rule 3
				return nil
			}
		}

		// Group-close: pop this context and re-attempt against the
		// newly exposed one. May recurse through several nested groups
		// for a single record.
		stack = stack[:len(stack)-1]
		*stackPtr = stack
	}
}

func containsTag(tags []Tag, tag Tag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func parseGroupCount(tag Tag, value string) (int, error) {
	n := 0
	if value == "" {
		return 0, malformedCount(tag, value)
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, malformedCount(tag, value)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
