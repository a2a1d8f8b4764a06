package results

import "strings"

// RFC 4180 reader states.
const (
	stateUnquoted = iota
	stateQuoted
	stateQuoteSeen // inside a quoted field, one quote consumed
)

// ParseRecords decodes CSV content into records with a small explicit
// state machine. Quoted fields may contain commas, newlines, and
// doubled quotes; bare carriage returns outside quotes are dropped;
// records whose fields are all empty are skipped. The codec is kept
// independent of schema validation so it can be exercised alone.
func ParseRecords(content string) [][]string {
	var records [][]string
	var record []string
	var field strings.Builder
	state := stateUnquoted

	flushField := func() {
		record = append(record, field.String())
		field.Reset()
	}
	flushRecord := func() {
		flushField()
		for _, f := range record {
			if f != "" {
				records = append(records, record)
				break
			}
		}
		record = nil
	}
	handle := func(c rune) {
		switch c {
		case '"':
			state = stateQuoted
		case ',':
			flushField()
		case '\n':
			flushRecord()
		case '\r':
			// Dropped outside quotes.
		default:
			field.WriteRune(c)
		}
	}

	for _, c := range content {
		switch state {
		case stateQuoted:
			if c == '"' {
				state = stateQuoteSeen
			} else {
				field.WriteRune(c)
			}
		case stateQuoteSeen:
			if c == '"' {
				// Doubled quote: a literal quote character.
				field.WriteRune('"')
				state = stateQuoted
			} else {
				state = stateUnquoted
				handle(c)
			}
		default:
			handle(c)
		}
	}

	if field.Len() > 0 || len(record) > 0 {
		flushRecord()
	}
	return records
}

// EscapeField quotes a field per RFC 4180 when it contains a comma,
// quote, or line break, doubling embedded quotes.
func EscapeField(field string) string {
	if strings.ContainsAny(field, ",\"\n\r") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// encodeRecord renders one record as a CSV line without the trailing
// newline.
func encodeRecord(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeField(f)
	}
	return strings.Join(escaped, ",")
}
