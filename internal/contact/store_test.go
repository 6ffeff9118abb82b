package contact

import (
	"reflect"
	"testing"
)

func TestTextArrayRoundTrip(t *testing.T) {
	cases := [][]string{
		{},
		{"lead"},
		{"lead", "vip", "imported"},
		{`with"quote`, `with\slash`, "with,comma"},
	}
	for _, tags := range cases {
		got := parseTextArray(buildTextArray(tags))
		if !reflect.DeepEqual(got, tags) {
			t.Fatalf("round trip %v -> %q -> %v", tags, buildTextArray(tags), got)
		}
	}
}

func TestParseTextArray_Malformed(t *testing.T) {
	if got := parseTextArray("not an array"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := parseTextArray("{}"); len(got) != 0 || got == nil {
		t.Fatalf("expected empty slice, got %v", got)
	}
}
