package results

import (
	"reflect"
	"testing"
)

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    [][]string
	}{
		{
			name:    "simple rows",
			content: "a,b,c\n1,2,3\n",
			want:    [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:    "no trailing newline",
			content: "a,b\n1,2",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "quoted comma",
			content: "label\n\"a, b\"\n",
			want:    [][]string{{"label"}, {"a, b"}},
		},
		{
			name:    "doubled quotes",
			content: "label\n\"say \"\"hi\"\"\"\n",
			want:    [][]string{{"label"}, {`say "hi"`}},
		},
		{
			name:    "embedded newline",
			content: "out\n\"line1\nline2\"\n",
			want:    [][]string{{"out"}, {"line1\nline2"}},
		},
		{
			name:    "crlf line endings",
			content: "a,b\r\n1,2\r\n",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "carriage return kept inside quotes",
			content: "out\n\"a\rb\"\n",
			want:    [][]string{{"out"}, {"a\rb"}},
		},
		{
			name:    "blank lines skipped",
			content: "a,b\n\n1,2\n\n",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "all-empty record skipped",
			content: "a,b\n,\n1,2\n",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "empty fields preserved in non-empty record",
			content: "a,,c\n",
			want:    [][]string{{"a", "", "c"}},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRecords(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRecords(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line1\nline2", "\"line1\nline2\""},
		{"a\rb", "\"a\rb\""},
		{"1.5", "1.5"},
	}

	for _, tt := range tests {
		if got := EscapeField(tt.in); got != tt.want {
			t.Errorf("EscapeField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRecords_RoundTrip(t *testing.T) {
	records := [][]string{
		{"GPU", "accuracy", "stdout"},
		{"1", "0.95", "epoch 1\nepoch 2, done"},
		{"2", "0.97", `said "done"`},
	}

	var content string
	for _, rec := range records {
		content += encodeRecord(rec) + "\n"
	}

	got := ParseRecords(content)
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip = %v, want %v", got, records)
	}
}
