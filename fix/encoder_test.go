package fix

import (
	"fmt"
	"strings"
	"testing"
)

func TestEncodeNewOrderSingleChecksum(t *testing.T) {
	msg := NewMessage()
	msg.SetField(TagBeginString, "FIXT.1.1")
	msg.SetField(TagMsgType, "D")
	msg.SetField(49, "SENDER")
	msg.SetField(56, "TARGET")
	msg.SetField(34, "1")
	msg.SetField(52, "20250101-00:00:00.000")
	msg.SetField(11, "ORD1")
	msg.SetField(55, "AAPL")
	msg.SetField(54, "1")
	msg.SetField(38, "100")
	msg.SetField(40, "2")
	msg.SetField(44, "150.25")
	msg.SetField(60, "20250101-00:00:00.000")

	encoded := Encode(msg)
	wantChecksum := recomputeChecksum(t, encoded)

	gotChecksum := extractField(t, string(encoded), TagCheckSum)
	if gotChecksum != wantChecksum {
		t.Fatalf("10= field = %q, recomputed checksum = %q", gotChecksum, wantChecksum)
	}
}

func TestEncodeHeaderFieldOrder(t *testing.T) {
	msg := NewMessage()
	msg.SetField(TagMsgType, "D")
	msg.SetField(52, "20250101-00:00:00.000")
	msg.SetField(34, "1")
	msg.SetField(56, "TARGET")
	msg.SetField(49, "SENDER")
	msg.SetField(1128, "9")
	msg.SetField(55, "AAPL") // not a header tag; must sort after by number

	encoded := string(Encode(msg))
	body := encoded[strings.Index(encoded, "9=")+len("9="):]
	body = body[strings.IndexByte(body, msg.Delimiter())+1:]

	order := []string{"35=D", "1128=9", "49=SENDER", "56=TARGET", "34=1", "52=20250101-00:00:00.000", "55=AAPL"}
	last := -1
	for _, want := range order {
		idx := strings.Index(body, want)
		if idx < 0 {
			t.Fatalf("expected %q in body %q", want, body)
		}
		if idx < last {
			t.Errorf("field %q out of order in %q", want, body)
		}
		last = idx
	}
}

func TestEncodeGroupCountReflectsActualEntries(t *testing.T) {
	msg := NewMessage()
	msg.SetField(TagMsgType, "D")
	msg.SetField(453, "99") // deliberately wrong declared count, as if hand-built
	msg.AddEntry(453, 448, "A")
	msg.AddEntry(453, 448, "B")

	encoded := string(Encode(msg))
	if !strings.Contains(encoded, "453=2") {
		t.Errorf("expected encoder to emit the true entry count (2), got %q", encoded)
	}
	if strings.Contains(encoded, "453=99") {
		t.Errorf("encoder must not emit the stale declared count, got %q", encoded)
	}
}

func TestEncodeNestedGroupRoundTrip(t *testing.T) {
	msg := NewMessage()
	msg.SetField(TagMsgType, "D")
	party := msg.AddEntry(453, 448, "P1")
	msg.SetEntryField(party, 447, "D")
	sub, _ := msg.AddNestedEntry(party, 802, 523, "S1")
	msg.SetEntryField(sub, 803, "1")

	encoded := Encode(msg)
	reparsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse(Encode(msg)): %v", err)
	}

	ids, ok := reparsed.GetGroup(453)
	if !ok || len(ids) != 1 {
		t.Fatalf("GetGroup(453) = %v, %v", ids, ok)
	}
	entry, _ := reparsed.GetEntry(ids[0])
	nested := entry.NestedGroups[802]
	if len(nested) != 1 {
		t.Fatalf("nested 802 = %v, want 1 entry", nested)
	}
	sub2, _ := reparsed.GetEntry(nested[0])
	if sub2.Fields[523] != "S1" || sub2.Fields[803] != "1" {
		t.Errorf("sub entry = %v, want 523=S1 803=1", sub2.Fields)
	}
}

func extractField(t *testing.T, encoded string, tag Tag) string {
	t.Helper()
	prefix := tagPrefix(tag)
	idx := strings.LastIndex(encoded, prefix)
	if idx < 0 {
		t.Fatalf("tag %d not found in %q", tag, encoded)
	}
	rest := encoded[idx+len(prefix):]
	end := strings.IndexByte(rest, SOH)
	if end < 0 {
		end = strings.IndexByte(rest, Pipe)
	}
	if end < 0 {
		t.Fatalf("no delimiter after tag %d in %q", tag, encoded)
	}
	return rest[:end]
}

func tagPrefix(tag Tag) string {
	return fmt.Sprintf("%d=", tag)
}

func recomputeChecksum(t *testing.T, encoded []byte) string {
	t.Helper()
	idx := strings.LastIndex(string(encoded), "10=")
	if idx < 0 {
		t.Fatalf("no 10= field in %q", encoded)
	}
	return fmt.Sprintf("%03d", sumChecksum(encoded[:idx]))
}
