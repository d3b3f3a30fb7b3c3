package console

import (
	"errors"
	"strings"
)

var (
	errUnterminatedQuote = errors.New("unterminated quoted string")
	errUnbalanced        = errors.New("unbalanced brackets in JSON argument")
)

// Tokenize splits a console line on whitespace. Quoted strings lose their
// quotes and keep their spaces. A JSON object or array stays one argument,
// quotes included, however it is spaced.
func Tokenize(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		started bool
		quote   rune
		escaped bool
		depth   int
	)

	flush := func() {
		if started {
			args = append(args, cur.String())
		}
		cur.Reset()
		started = false
	}

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote != 0:
			switch r {
			case '\\':
				if depth > 0 {
					cur.WriteRune(r)
				}
				escaped = true
			case quote:
				if depth > 0 {
					cur.WriteRune(r)
				}
				quote = 0
			default:
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			started = true
			if depth > 0 {
				cur.WriteRune(r)
			}
		case r == '{' || r == '[':
			depth++
			started = true
			cur.WriteRune(r)
		case r == '}' || r == ']':
			if depth == 0 {
				return nil, errUnbalanced
			}
			depth--
			cur.WriteRune(r)
		case depth == 0 && (r == ' ' || r == '\t'):
			flush()
		default:
			started = true
			cur.WriteRune(r)
		}
	}

	if quote != 0 {
		return nil, errUnterminatedQuote
	}
	if depth != 0 {
		return nil, errUnbalanced
	}
	flush()
	return args, nil
}
