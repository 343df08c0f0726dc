package shellparse

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single word",
			input:    "make",
			expected: []string{"make"},
		},
		{
			name:     "multiple words",
			input:    "make release VERBOSE=1",
			expected: []string{"make", "release", "VERBOSE=1"},
		},
		{
			name:     "extra whitespace",
			input:    "  make \t release  ",
			expected: []string{"make", "release"},
		},
		{
			name:     "double quotes preserve spaces",
			input:    `cc -o "my app" main.c`,
			expected: []string{"cc", "-o", "my app", "main.c"},
		},
		{
			name:     "single quotes are literal",
			input:    `sh -c 'echo "$HOME"'`,
			expected: []string{"sh", "-c", `echo "$HOME"`},
		},
		{
			name:     "backslash escapes a space",
			input:    `cp file\ name dest`,
			expected: []string{"cp", "file name", "dest"},
		},
		{
			name:     "escaped quote inside double quotes",
			input:    `echo "say \"hi\""`,
			expected: []string{"echo", `say "hi"`},
		},
		{
			name:     "plain backslash kept inside double quotes",
			input:    `grep "a\.b" f`,
			expected: []string{"grep", `a\.b`, "f"},
		},
		{
			name:     "quoted empty argument",
			input:    `cmd "" arg`,
			expected: []string{"cmd", "", "arg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Split(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "unclosed single quote", input: "sh -c 'oops", want: ErrUnclosedQuote},
		{name: "unclosed double quote", input: `sh -c "oops`, want: ErrUnclosedQuote},
		{name: "trailing escape", input: `cmd arg\`, want: ErrTrailingEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Split(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}
