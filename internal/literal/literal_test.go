package literal

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  any
	}{
		{name: "int", input: "42", want: 42},
		{name: "negative int", input: "-7", want: -7},
		{name: "float", input: "3.5", want: 3.5},
		{name: "scientific float", input: "1e-3", want: 1e-3},
		{name: "true", input: "True", want: true},
		{name: "false", input: "false", want: false},
		{name: "none", input: "None", want: nil},
		{name: "single-quoted string", input: "'hello world'", want: "hello world"},
		{name: "double-quoted string", input: `"a,b"`, want: "a,b"},
		{name: "bare string stays string", input: "Dark Red", want: "Dark Red"},
		{name: "list of ints", input: "[1, 2, 3]", want: []any{1, 2, 3}},
		{name: "tuple", input: "(0.1, 10)", want: []any{0.1, 10}},
		{name: "mixed list", input: "[1, 'two', 3.0]", want: []any{1, "two", 3.0}},
		{name: "nested list", input: "[[1, 2], [3]]", want: []any{[]any{1, 2}, []any{3}}},
		{name: "quoted comma survives in list", input: `["a,b", 'c']`, want: []any{"a,b", "c"}},
		{name: "empty list", input: "[]", want: []any{}},
		{name: "empty", input: "", want: ""},
		// An expression is not evaluated, just kept as text.
		{name: "expression stays string", input: "1+2", want: "1+2"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue any
		wantOK    bool
	}{
		{
			name:      "simple pair",
			input:     "color=red",
			wantKey:   "color",
			wantValue: "red",
			wantOK:    true,
		},
		{
			name:      "leading dashes stripped",
			input:     "--ylim=[0.1, 100]",
			wantKey:   "ylim",
			wantValue: []any{0.1, 100},
			wantOK:    true,
		},
		{
			name:      "split on first equals only",
			input:     "title=SNR=5 threshold",
			wantKey:   "title",
			wantValue: "SNR=5 threshold",
			wantOK:    true,
		},
		{
			name:      "numeric value parsed",
			input:     "-s=8",
			wantKey:   "s",
			wantValue: 8,
			wantOK:    true,
		},
		{
			name:   "no equals",
			input:  "notaparam",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, value, ok := ParseParam(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseParam(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
			if !reflect.DeepEqual(value, tt.wantValue) {
				t.Errorf("value = %#v, want %#v", value, tt.wantValue)
			}
		})
	}
}

func TestInts(t *testing.T) {
	t.Parallel()

	t.Run("single int", func(t *testing.T) {
		t.Parallel()
		got, ok := Ints(Parse("2"))
		if !ok || !reflect.DeepEqual(got, []int{2}) {
			t.Errorf("Ints = %v, %v", got, ok)
		}
	})

	t.Run("list of ints", func(t *testing.T) {
		t.Parallel()
		got, ok := Ints(Parse("[1, 2, 2]"))
		if !ok || !reflect.DeepEqual(got, []int{1, 2, 2}) {
			t.Errorf("Ints = %v, %v", got, ok)
		}
	})

	t.Run("non-int rejected", func(t *testing.T) {
		t.Parallel()
		if _, ok := Ints(Parse("[1, 'x']")); ok {
			t.Error("expected ok=false for mixed list")
		}
	})
}
