package fix

import (
	"context"

	"github.com/wyfcoding/fixcodec/fix/internal/telemetry"
)

// The group registry is process-wide, immutable, read-only state,
// answering four queries keyed by (count tag, optional message type):
// IsCountTag, DelimiterTag, Members, Nested. Lookup tries the
// message-specific binding first and falls back to the generic one; a
// count tag with neither binding is left for the parser to treat as an
// ordinary field — an unrecognized count tag is conservatively assumed
// not to open a group at all.
//
// Content below covers the standard FIX 5.0 SP2 repeating groups (parties,
// nested party sub-IDs, allocations, legs, list orders, cross-order sides)
// plus a few additional bindings grounded in the FIX Trade Appendix that
// let the nesting engine actually reach four levels deep (453 -> 802 ->
// 806, and 73 -> 453 -> 802 -> 806 under MsgType=E).

// groupKey identifies one registry binding. An empty MsgType means the
// generic, message-independent binding.
type groupKey struct {
	CountTag Tag
	MsgType  string
}

// groupBinding is everything the registry knows about one repeating
// group in one context.
type groupBinding struct {
	DelimiterTag Tag
	Members      map[Tag]struct{}
	Nested       []Tag
}

func members(tags ...Tag) map[Tag]struct{} {
	set := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

var groupRegistry map[groupKey]*groupBinding

func init() {
	groupRegistry = map[groupKey]*groupBinding{
		// NoPartyIDs — generic across the protocol.
		{CountTag: 453}: {
			DelimiterTag: 448, // PartyID
			Members:      members(448, 447, 452),
			Nested:       []Tag{802}, // NoPartySubIDs
		},
		// NoPartySubIDs — generic, nested inside NoPartyIDs entries.
		{CountTag: 802}: {
			DelimiterTag: 523, // PartySubID
			Members:      members(523, 803),
			Nested:       []Tag{806}, // NoNested3PartyIDs, one level deeper
		},
		// NoNested3PartyIDs, generic, terminal (depth 4 leaf when
		// reached via 73 -> 453 -> 802 -> 806 under MsgType=E).
		{CountTag: 806}: {
			DelimiterTag: 523,
			Members:      members(523, 803),
		},

		// ListOrdGrp — NoOrders, only meaningful under MsgType=E (ListExecute).
		{CountTag: 73, MsgType: "E"}: {
			DelimiterTag: 11, // ClOrdID
			Members:      members(11, 67, 55, 54, 38, 40, 44),
			Nested:       []Tag{453, 78}, // NoPartyIDs, NoAllocs
		},

		// NoAllocs — generic.
		{CountTag: 78}: {
			DelimiterTag: 79, // AllocAccount
			Members:      members(79, 661, 736, 467, 80),
			Nested:       []Tag{756}, // NoNested2PartyIDs
		},
		// NoNested2PartyIDs — generic, nested inside NoAllocs entries.
		{CountTag: 756}: {
			DelimiterTag: 757, // Nested2PartyID
			Members:      members(757, 758, 759),
			Nested:       []Tag{806},
		},

		// LegOrdGrp / InstrmtLegGrp — NoLegs, bound to the multileg
		// order messages (NewOrderMultileg 'AB', MultilegOrderCancelReplace 'AC').
		{CountTag: 555, MsgType: "AB"}: legsBinding(),
		{CountTag: 555, MsgType: "AC"}: legsBinding(),
		// NoLegAllocs and NoNestedPartyIDs, opened inside a leg entry.
		{CountTag: 683}: {
			DelimiterTag: 670, // LegAllocAccount
			Members:      members(670, 671, 672),
		},
		{CountTag: 539}: {
			DelimiterTag: 524, // NestedPartyID
			Members:      members(524, 525, 538),
		},

		// SideCrossOrdModGrp — NoSides, bound to NewOrderCross ('s').
		{CountTag: 552, MsgType: "s"}: {
			DelimiterTag: 54, // Side
			Members:      members(54, 11, 41, 38, 44, 1, 40, 60),
			Nested:       []Tag{453},
		},
		// CrossOrderCancelReplaceRequest ('t') and CrossOrderCancelRequest
		// ('u') bindings of the same count tag, per the FIX Trade
		// Appendix — the clearest illustration of why msg_type context
		// matters: 552 means a different entry shape in each.
		{CountTag: 552, MsgType: "t"}: {
			DelimiterTag: 54,
			Members: members(
				54, 2102, 41, 11, 526, 583, 586, 1690, 229, 75, 1, 660, 581, 589,
				590, 591, 70, 854, 38, 152, 516, 468, 469, 12, 13, 528, 529,
				1724, 1725, 1726, 1091, 582, 121, 120,
			),
		},
		{CountTag: 552, MsgType: "u"}: {
			DelimiterTag: 54,
			Members: members(
				54, 41, 11, 526, 583, 586, 376, 2404, 2351, 2352, 229, 75, 58,
				354, 355,
			),
		},

		// NoBidComponents, generic, not tied to one message type.
		{CountTag: 420}: {
			DelimiterTag: 79, // AllocAccount (component reused as delimiter)
			Members:      members(79, 467, 53, 54),
		},
	}

	telemetry.Default().DebugContext(context.Background(), "fix group registry initialized", "bindings", len(groupRegistry))
}

func legsBinding() *groupBinding {
	return &groupBinding{
		DelimiterTag: 600, // LegSymbol
		Members:      members(600, 602, 606, 616, 624, 566, 654, 687, 690),
		Nested:       []Tag{683, 539},
	}
}

func lookupBinding(countTag Tag, msgType string) (*groupBinding, bool) {
	if msgType != "" {
		if b, ok := groupRegistry[groupKey{CountTag: countTag, MsgType: msgType}]; ok {
			return b, true
		}
	}
	b, ok := groupRegistry[groupKey{CountTag: countTag}]
	return b, ok
}

// IsCountTag reports whether tag is a registered count tag in the given
// message-type context (message-specific binding, or generic fallback).
func IsCountTag(tag Tag, msgType string) bool {
	_, ok := lookupBinding(tag, msgType)
	return ok
}

// DelimiterTag returns the tag that starts a new entry of the group
// identified by countTag, in the given message-type context.
func DelimiterTag(countTag Tag, msgType string) (Tag, bool) {
	b, ok := lookupBinding(countTag, msgType)
	if !ok {
		return 0, false
	}
	return b.DelimiterTag, true
}

// Members returns the set of tags that belong to entries of the group
// identified by countTag, in the given message-type context. The
// returned set must not be mutated by callers.
func Members(countTag Tag, msgType string) (map[Tag]struct{}, bool) {
	b, ok := lookupBinding(countTag, msgType)
	if !ok {
		return nil, false
	}
	return b.Members, true
}

// Nested returns the count tags that may open nested groups inside an
// entry of the group identified by countTag, in the given message-type
// context.
func Nested(countTag Tag, msgType string) []Tag {
	b, ok := lookupBinding(countTag, msgType)
	if !ok {
		return nil
	}
	return b.Nested
}
