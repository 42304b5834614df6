package api

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ErrUnterminatedQuote = errors.New("unterminated quote")
	ErrBadID             = errors.New("id should be a non-negative number")
	ErrBadTime           = errors.New("time should look like 2006-01-02T15:04:05Z")
)

// splitArgs splits a command line on spaces, keeping "double quoted" parts
// together without their quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		hasArg  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasArg = true
		case unicode.IsSpace(r) && !inQuote:
			if hasArg {
				args = append(args, current.String())
				current.Reset()
				hasArg = false
			}
		default:
			current.WriteRune(r)
			hasArg = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if hasArg {
		args = append(args, current.String())
	}
	return args, nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrBadID
	}
	return id, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrBadTime
	}
	return t.UTC(), nil
}
