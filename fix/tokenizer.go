package fix

import (
	"strconv"
)

// record is a single (tag, value) pair as it appeared on the wire.
type record struct {
	Tag   Tag
	Value string
}

// detectDelimiter implements §4.2's auto-detection: SOH wins if present,
// otherwise pipe, otherwise SOH by default (there is nothing to detect in
// a single-field input with no delimiter at all).
func detectDelimiter(data []byte) byte {
	for _, b := range data {
		if b == SOH {
			return SOH
		}
	}
	for _, b := range data {
		if b == Pipe {
			return Pipe
		}
	}
	return SOH
}

// tokenize splits data into records on delim. A trailing delimiter is
// permitted and produces no extra record. Values may contain any byte
// except delim; the tokenizer does not interpret escapes.
func tokenize(data []byte, delim byte) ([]record, error) {
	var records []record
	start := 0
	for start <= len(data) {
		end := start
		for end < len(data) && data[end] != delim {
			end++
		}
		if end > start {
			rec, err := parseRecord(data[start:end])
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		start = end + 1
	}
	return records, nil
}

func parseRecord(field []byte) (record, error) {
	eq := -1
	for i, b := range field {
		if b == '=' {
			eq = i
			break
		}
	}
	if eq < 0 {
		return record{}, malformedRecord(string(field))
	}
	tagPart := field[:eq]
	valuePart := field[eq+1:]

	if len(tagPart) == 0 {
		return record{}, malformedTag(string(tagPart))
	}
	n, err := strconv.Atoi(string(tagPart))
	if err != nil || n < 1 || n > 65535 {
		return record{}, malformedTag(string(tagPart))
	}
	return record{Tag: Tag(n), Value: string(valuePart)}, nil
}
