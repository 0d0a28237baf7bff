package action

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplate marks a template that references an unknown field or is malformed.
var ErrTemplate = errors.New("template error")

// Render fills {text} and {clipboard}. "{{" and "}}" produce literal braces.
func Render(template string, ctx Context) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + len(ctx.Text))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrTemplate, i)
			}
			field := template[i+1 : i+1+end]
			switch field {
			case "text":
				b.WriteString(ctx.Text)
			case "clipboard":
				b.WriteString(ctx.Clipboard)
			default:
				return "", fmt.Errorf("%w: unknown field {%s}", ErrTemplate, field)
			}
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrTemplate, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
