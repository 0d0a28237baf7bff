package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC blanks out comments and drops trailing commas so the result
// decodes with encoding/json. Byte offsets are preserved for error positions.
func normalizeJSONC(content string) (string, error) {
	stripped, err := blankComments(content)
	if err != nil {
		return "", err
	}
	return dropTrailingCommas(stripped), nil
}

type scanMode int

const (
	scanCode scanMode = iota
	scanString
	scanLineComment
	scanBlockComment
)

func blankComments(content string) (string, error) {
	out := []byte(content)
	mode := scanCode
	escaped := false

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch mode {
		case scanString:
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				mode = scanCode
			}
		case scanLineComment:
			if ch == '\n' || ch == '\r' {
				mode = scanCode
				continue
			}
			out[i] = ' '
		case scanBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				mode = scanCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		default:
			if ch == '"' {
				mode = scanString
				continue
			}
			if ch == '/' && i+1 < len(out) {
				switch out[i+1] {
				case '/':
					mode = scanLineComment
				case '*':
					mode = scanBlockComment
				default:
					continue
				}
				out[i], out[i+1] = ' ', ' '
				i++
			}
		}
	}

	if mode == scanBlockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}
	return string(out), nil
}

// dropTrailingCommas replaces a comma that only precedes whitespace and a
// closing bracket with a space.
func dropTrailingCommas(content string) string {
	out := []byte(content)
	inString := false
	escaped := false

	for i, ch := range out {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(out) && strings.IndexByte(" \t\r\n", out[j]) >= 0 {
				j++
			}
			if j < len(out) && (out[j] == '}' || out[j] == ']') {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	err := decoder.Decode(&extra)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errors.New("multiple JSON values are not allowed")
	default:
		return err
	}
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64 = -1
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 {
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// offsetToLineCol maps a 1-based decoder offset to a 1-based line and column.
func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))
	prefix := content[:max(limit-1, 0)]
	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) - strings.LastIndexByte(prefix, '\n')
	return line, col
}

// stringList accepts a JSON array or a comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimNonEmpty(list)
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimNonEmpty(strings.Split(single, ","))
		return nil
	}
	return errors.New("expected string array or comma-delimited string")
}

func trimNonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
