package schema

import (
	"errors"
	"reflect"
	"testing"
)

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare object",
			`{"dv": true, "dg": 4, "ri": null}`,
			`{"dv": true, "dg": 4, "ri": null}`,
		},
		{
			"fenced with language tag",
			"```json\n{\"dg\": 4}\n```",
			`{"dg": 4}`,
		},
		{
			"fenced without language tag",
			"```\n{\"dg\": 4}\n```",
			`{"dg": 4}`,
		},
		{
			"leading prose",
			"Here is my answer:\n{\"dg\": 4}",
			`{"dg": 4}`,
		},
		{
			"trailing prose",
			"{\"dg\": 4}\nHope that helps!",
			`{"dg": 4}`,
		},
		{
			"double encoded",
			`"{\"dg\": 4}"`,
			`{"dg": 4}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CleanJSON(tc.in)
			if err != nil {
				t.Fatalf("CleanJSON failed: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanJSONNoObject(t *testing.T) {
	for _, in := range []string{"", "no json here", "[1, 2, 3]"} {
		if _, err := CleanJSON(in); !errors.Is(err, ErrNoJSON) {
			t.Errorf("CleanJSON(%q): expected ErrNoJSON, got %v", in, err)
		}
	}
}

func TestParseUntrusted(t *testing.T) {
	v := ParseUntrusted("```json\n{\"dv\": false, \"dg\": 7, \"ri\": 0}\n```")
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected a map, got %T", v)
	}
	// Compact action names are renamed to canonical ones.
	want := map[string]any{"division": false, "digit": float64(7), "rindex": float64(0)}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %v, want %v", m, want)
	}

	if v := ParseUntrusted("total garbage"); v != nil {
		t.Errorf("expected nil for unparseable input, got %v", v)
	}
	if v := ParseUntrusted(`{"dg": `); v != nil {
		t.Errorf("expected nil for truncated JSON, got %v", v)
	}
}
