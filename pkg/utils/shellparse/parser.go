// Package shellparse provides shell-like word splitting for the command
// strings configured in the project metadata file.
package shellparse

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quoted string is not properly closed
	ErrUnclosedQuote = errors.New("unclosed quote in command string")

	// ErrTrailingEscape is returned when a backslash appears at the end of input
	ErrTrailingEscape = errors.New("trailing escape character at end of command")
)

type quoteState int

const (
	unquoted quoteState = iota
	singleQuoted
	doubleQuoted
)

// Split parses a command string into arguments following POSIX word
// splitting rules: whitespace separates words, single quotes are literal,
// double quotes allow backslash escapes, and a bare backslash escapes the
// next character.
func Split(input string) ([]string, error) {
	var (
		args   []string
		word   strings.Builder
		state  quoteState
		inWord bool
	)

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		switch {
		case ch == '\\' && state != singleQuoted:
			if i+1 >= len(runes) {
				return nil, ErrTrailingEscape
			}
			i++
			next := runes[i]
			// Inside double quotes only a few characters are escapable;
			// anywhere else the backslash always escapes.
			if state == doubleQuoted && !strings.ContainsRune(`"\$`+"`", next) {
				word.WriteRune('\\')
			}
			word.WriteRune(next)
			inWord = true

		case ch == '\'' && state != doubleQuoted:
			if state == singleQuoted {
				state = unquoted
			} else {
				state = singleQuoted
			}
			inWord = true

		case ch == '"' && state != singleQuoted:
			if state == doubleQuoted {
				state = unquoted
			} else {
				state = doubleQuoted
			}
			inWord = true

		case unicode.IsSpace(ch) && state == unquoted:
			if inWord {
				args = append(args, word.String())
				word.Reset()
				inWord = false
			}

		default:
			word.WriteRune(ch)
			inWord = true
		}
	}

	if state != unquoted {
		return nil, ErrUnclosedQuote
	}
	if inWord {
		args = append(args, word.String())
	}

	return args, nil
}
