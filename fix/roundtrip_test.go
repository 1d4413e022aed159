package fix

import (
	"bytes"
	"testing"
)

var roundtripSamples = []string{
	"8=FIXT.1.1|9=57|35=A|49=A|56=B|34=1|52=20250101-00:00:00.000|98=0|108=30|10=000|",
	"8=FIXT.1.1|35=D|453=2|448=TRADER1|447=D|452=1|448=DESK22|447=D|452=24|55=MSFT|",
	"8=FIXT.1.1|35=D|453=1|448=P1|447=D|452=1|802=2|523=S1|803=1|523=S2|803=2|",
	"8=FIXT.1.1|35=D|55=AAPL|9001=TRUE|9435=ALGOTYPE1|9436=VWAP|",
}

func TestRoundTripFieldsGroupsAndOrder(t *testing.T) {
	for _, sample := range roundtripSamples {
		original, err := Parse([]byte(sample))
		if err != nil {
			t.Fatalf("Parse(%q): %v", sample, err)
		}

		reparsed, err := Parse(Encode(original))
		if err != nil {
			t.Fatalf("Parse(Encode(%q)): %v", sample, err)
		}

		assertMessagesEqual(t, original, reparsed)
	}
}

func TestIdempotentEncode(t *testing.T) {
	for _, sample := range roundtripSamples {
		msg, err := Parse([]byte(sample))
		if err != nil {
			t.Fatalf("Parse(%q): %v", sample, err)
		}
		once := Encode(msg)
		reparsed, err := Parse(once)
		if err != nil {
			t.Fatalf("Parse(Encode(%q)): %v", sample, err)
		}
		twice := Encode(reparsed)
		if !bytes.Equal(once, twice) {
			t.Errorf("encode(parse(encode(m))) != encode(m):\n%q\n%q", once, twice)
		}
	}
}

func TestDelimiterNeutrality(t *testing.T) {
	pipeInput := "8=FIXT.1.1|35=D|453=1|448=P1|447=D|452=1|55=AAPL|"
	sohInput := bytes.ReplaceAll([]byte(pipeInput), []byte("|"), []byte{SOH})

	fromPipe, err := Parse([]byte(pipeInput))
	if err != nil {
		t.Fatalf("Parse(pipe): %v", err)
	}
	fromSOH, err := Parse(sohInput)
	if err != nil {
		t.Fatalf("Parse(SOH): %v", err)
	}

	if fromPipe.Delimiter() != Pipe {
		t.Errorf("expected pipe delimiter detected, got %q", fromPipe.Delimiter())
	}
	if fromSOH.Delimiter() != SOH {
		t.Errorf("expected SOH delimiter detected, got %q", fromSOH.Delimiter())
	}

	assertMessagesEqual(t, fromPipe, fromSOH)
}

func TestArenaValidityAfterBuilderOperations(t *testing.T) {
	msg := NewMessage()
	msg.SetField(TagMsgType, "D")
	a := msg.AddEntry(453, 448, "A")
	b := msg.AddEntry(453, 448, "B")
	if a == b {
		t.Fatalf("expected distinct entry IDs, got %d and %d", a, b)
	}

	seen := map[EntryID]bool{}
	ids, _ := msg.GetGroup(453)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate entry ID %d in group 453", id)
		}
		seen[id] = true
		if _, ok := msg.GetEntry(id); !ok {
			t.Fatalf("entry ID %d out of bounds", id)
		}
	}
}

func TestCountCorrectness(t *testing.T) {
	msg := NewMessage()
	msg.SetField(TagMsgType, "D")
	for i := 0; i < 5; i++ {
		msg.AddEntry(453, 448, "P")
	}
	ids, ok := msg.GetGroup(453)
	if !ok {
		t.Fatalf("expected group 453 to be present")
	}
	encoded := string(Encode(msg))
	wantCount := "453=" + itoaForTest(len(ids))
	if !bytes.Contains([]byte(encoded), []byte(wantCount)) {
		t.Errorf("expected %q in encoded output, got %q", wantCount, encoded)
	}
}

func itoaForTest(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func assertMessagesEqual(t *testing.T, a, b *Message) {
	t.Helper()

	if len(a.fields) != len(b.fields) {
		t.Fatalf("field count mismatch: %d vs %d (%v vs %v)", len(a.fields), len(b.fields), a.fields, b.fields)
	}
	for tag, want := range a.fields {
		if _, isGroup := a.groups[tag]; isGroup {
			continue // group count tags are recomputed, not compared verbatim
		}
		got, ok := b.fields[tag]
		if !ok || got != want {
			t.Errorf("field %d = %q, want %q", tag, got, want)
		}
	}

	if len(a.groups) != len(b.groups) {
		t.Fatalf("group count mismatch: %d vs %d", len(a.groups), len(b.groups))
	}
	for tag, aIDs := range a.groups {
		bIDs, ok := b.groups[tag]
		if !ok || len(aIDs) != len(bIDs) {
			t.Fatalf("group %d entry count mismatch: %v vs %v", tag, aIDs, bIDs)
		}
		for i := range aIDs {
			assertEntriesEqual(t, a, aIDs[i], b, bIDs[i])
		}
	}
}

func assertEntriesEqual(t *testing.T, a *Message, aID EntryID, b *Message, bID EntryID) {
	t.Helper()
	aEntry, _ := a.GetEntry(aID)
	bEntry, _ := b.GetEntry(bID)

	if len(aEntry.Fields) != len(bEntry.Fields) {
		t.Fatalf("entry field count mismatch: %v vs %v", aEntry.Fields, bEntry.Fields)
	}
	for tag, want := range aEntry.Fields {
		if _, isNested := aEntry.NestedGroups[tag]; isNested {
			continue
		}
		got, ok := bEntry.Fields[tag]
		if !ok || got != want {
			t.Errorf("entry field %d = %q, want %q", tag, got, want)
		}
	}

	if len(aEntry.NestedGroups) != len(bEntry.NestedGroups) {
		t.Fatalf("nested group count mismatch: %v vs %v", aEntry.NestedGroups, bEntry.NestedGroups)
	}
	for tag, aIDs := range aEntry.NestedGroups {
		bIDs, ok := bEntry.NestedGroups[tag]
		if !ok || len(aIDs) != len(bIDs) {
			t.Fatalf("nested group %d entry count mismatch: %v vs %v", tag, aIDs, bIDs)
		}
		for i := range aIDs {
			assertEntriesEqual(t, a, aIDs[i], b, bIDs[i])
		}
	}
}
