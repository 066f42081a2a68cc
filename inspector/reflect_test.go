package inspector

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sample struct {
	Count   int
	Rate    float64 `inspect:"bar,max:200"`
	Margin  float64 `inspect:"label,fmt:%.1f,name:Spawn margin"`
	Enabled bool
	Hidden  string `inspect:"skip"`
	private int
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag        string
		wantWidget Widget
		wantOpts   map[string]string
	}{
		{"", WidgetAuto, map[string]string{}},
		{"label", WidgetLabel, map[string]string{}},
		{"bar,max:200", WidgetBar, map[string]string{"max": "200"}},
		{"label, fmt:%.1f", WidgetLabel, map[string]string{"fmt": "%.1f"}},
		{"label,name:Max attempts", WidgetLabel, map[string]string{"name": "Max attempts"}},
		{"skip", WidgetSkip, map[string]string{}},
		{"unknown,broken", WidgetAuto, map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			w, opts := ParseTag(tt.tag)
			if w != tt.wantWidget {
				t.Errorf("widget = %v, want %v", w, tt.wantWidget)
			}
			if diff := cmp.Diff(tt.wantOpts, opts); diff != "" {
				t.Errorf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractFields(t *testing.T) {
	s := sample{Count: 3, Rate: 12.5, Margin: 4.25, Enabled: true, Hidden: "x", private: 9}

	fields := ExtractFields(&s)
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"Count", "Rate", "Margin", "Enabled"}, names); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	wantWidgets := []Widget{WidgetLabel, WidgetBar, WidgetLabel, WidgetBool}
	for i, f := range fields {
		if f.Widget != wantWidgets[i] {
			t.Errorf("%s widget = %v, want %v", f.Name, f.Widget, wantWidgets[i])
		}
	}

	margin := fields[2]
	if margin.Label() != "Spawn margin" {
		t.Errorf("Label() = %q", margin.Label())
	}
	if margin.Text() != "4.2" && margin.Text() != "4.3" {
		t.Errorf("Text() = %q", margin.Text())
	}
	if fields[0].Label() != "Count" || fields[0].Text() != "3" {
		t.Errorf("Count field = %q %q", fields[0].Label(), fields[0].Text())
	}
	if GetMax(fields[1].Options) != 200 {
		t.Errorf("GetMax = %v, want 200", GetMax(fields[1].Options))
	}
}

func TestExtractFieldsNonStruct(t *testing.T) {
	if got := ExtractFields(42); got != nil {
		t.Errorf("ExtractFields(int) = %v, want nil", got)
	}
	var p *sample
	if got := ExtractFields(p); got != nil {
		t.Errorf("ExtractFields(nil) = %v, want nil", got)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value any
		fmt   string
		want  string
	}{
		{float64(1.234), "", "1.23"},
		{float32(2.5), "", "2.50"},
		{7, "", "7"},
		{int64(1500), "%d steps", "1500 steps"},
		{true, "", "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value, tt.fmt); got != tt.want {
			t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.fmt, got, tt.want)
		}
	}
}

func TestGetFloatValue(t *testing.T) {
	for _, v := range []any{float32(2), float64(2), 2, int32(2), int64(2), uint32(2)} {
		f, ok := GetFloatValue(v)
		if !ok || f != 2 {
			t.Errorf("GetFloatValue(%T) = %v, %v", v, f, ok)
		}
	}
	if _, ok := GetFloatValue("2"); ok {
		t.Error("GetFloatValue(string) ok")
	}
	if GetMax(map[string]string{"max": "nope"}) != 1 {
		t.Error("GetMax should default to 1")
	}
}
