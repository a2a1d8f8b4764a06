package metrics

import (
	"reflect"
	"testing"
)

func TestExtract_CommonFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "colon space",
			text: "accuracy: 0.95",
			want: map[string]string{"accuracy: ": "0.95"},
		},
		{
			name: "no space after colon",
			text: "time:2.3ms",
			want: map[string]string{"time:": "2.3"},
		},
		{
			name: "equals sign",
			text: "result=42",
			want: map[string]string{"result=": "42"},
		},
		{
			name: "space separated",
			text: "count(items) 99",
			want: map[string]string{"count(items) ": "99"},
		},
		{
			name: "bare number",
			text: "1234",
			want: map[string]string{"value": "1234"},
		},
		{
			name: "leading dot decimal",
			text: "ratio: .5",
			want: map[string]string{"ratio: ": ".5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtract_MultipleNumbersPerLine(t *testing.T) {
	got := Extract("simulated 73us in 2.8s, 6000 events resolved", nil)
	want := map[string]string{
		"simulated ": "73",
		"us in ":     "2.8",
		"s, ":        "6000",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_CarriageReturnKeepsLastValue(t *testing.T) {
	got := Extract("progress: 10\rprogress: 50\rprogress: 100", nil)
	if got["progress: "] != "100" {
		t.Errorf("progress = %q, want 100", got["progress: "])
	}
}

func TestExtract_LastValueWinsAcrossLines(t *testing.T) {
	got := Extract("score: 10\nscore: 20\nscore: 30", nil)
	if got["score: "] != "30" {
		t.Errorf("score = %q, want 30", got["score: "])
	}
}

func TestExtract_IdentifierDigitsNotNumbers(t *testing.T) {
	// The 1 in "F1-Score" follows a letter and must not be parsed as a
	// number; the label then carries it verbatim.
	got := Extract("Test-Accuracy: 0.95\ntrain_loss: 1.234\nF1-Score (macro): 0.88", nil)
	want := map[string]string{
		"Test-Accuracy: ":    "0.95",
		"train_loss: ":       "1.234",
		"F1-Score (macro): ": "0.88",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_SingleDecimalPointPerToken(t *testing.T) {
	// A second dot terminates the token; the digit after it starts a
	// new token with the dot as its label.
	got := Extract("version 1.2.3", nil)
	want := map[string]string{
		"version ": "1.2",
		".":        "3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_Filters(t *testing.T) {
	got := Extract("accuracy: 0.95\nloss: 1.234", []string{"accuracy"})
	if got["accuracy: "] != "0.95" {
		t.Errorf("accuracy = %q, want 0.95", got["accuracy: "])
	}
	if _, ok := got["loss: "]; ok {
		t.Error("loss survived filtering")
	}
}

func TestExtract_FilterCaseInsensitive(t *testing.T) {
	got := Extract("Test-Accuracy: 0.95", []string{"ACCURACY"})
	if got["Test-Accuracy: "] != "0.95" {
		t.Errorf("Test-Accuracy = %q, want 0.95", got["Test-Accuracy: "])
	}
}

func TestMissing(t *testing.T) {
	extracted := map[string]string{"Test-Accuracy: ": "0.95"}

	if missing := Missing(extracted, []string{"accuracy"}); len(missing) != 0 {
		t.Errorf("Missing = %v, want none", missing)
	}
	if missing := Missing(extracted, []string{"accuracy", "loss"}); !reflect.DeepEqual(missing, []string{"loss"}) {
		t.Errorf("Missing = %v, want [loss]", missing)
	}
}

func TestCaptureMode_Select(t *testing.T) {
	tests := []struct {
		mode CaptureMode
		want string
	}{
		{CaptureStdout, "out"},
		{CaptureStderr, "err"},
		{CaptureBoth, "out\nerr"},
	}

	for _, tt := range tests {
		if got := tt.mode.Select("out", "err"); got != tt.want {
			t.Errorf("%v.Select = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestExtract_EmptyText(t *testing.T) {
	if got := Extract("", nil); len(got) != 0 {
		t.Errorf("Extract(\"\") = %v, want empty", got)
	}
}
