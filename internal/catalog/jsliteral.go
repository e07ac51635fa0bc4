package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// arrayStart finds the catalog array assignment in a JavaScript data file.
var arrayStart = regexp.MustCompile(`(?:(?:export\s+)?(?:const|let|var)\s+(?:allItems|data|plants|items)\s*=|export\s+default|module\.exports\s*=)\s*\[`)

var errNoArray = errors.New("no catalog array found (tried allItems, data, plants, items, export default, module.exports)")

// extractArray returns the text between the brackets of the catalog array,
// which is either assigned to a known variable or is the whole document.
func extractArray(content string) (string, error) {
	var open int
	if loc := arrayStart.FindStringIndex(content); loc != nil {
		open = loc[1] - 1
	} else if trimmed := strings.TrimLeft(content, " \t\r\n\ufeff"); strings.HasPrefix(trimmed, "[") {
		open = len(content) - len(trimmed)
	} else {
		return "", errNoArray
	}

	s := &jsScanner{src: content, pos: open + 1}
	depth := 1
	for s.pos < len(s.src) {
		if s.skipTrivia() {
			continue
		}
		c := s.src[s.pos]
		switch c {
		case '\'', '"', '`':
			if _, err := s.readString(); err != nil {
				return "", err
			}
			continue
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return content[open+1 : s.pos], nil
			}
		}
		s.pos++
	}
	return "", fmt.Errorf("catalog array starting at offset %d is not closed", open)
}

// splitElements splits the body of an array literal into its top-level
// elements without interpreting them.
func splitElements(body string) []string {
	var elements []string
	s := &jsScanner{src: body}
	depth := 0
	start := 0

	flush := func(end int) {
		if el := strings.TrimSpace(body[start:end]); el != "" && !isTrivia(el) {
			elements = append(elements, el)
		}
	}

	for s.pos < len(s.src) {
		if s.skipTrivia() {
			continue
		}
		c := s.src[s.pos]
		switch c {
		case '\'', '"', '`':
			if _, err := s.readString(); err != nil {
				// unterminated string: the rest belongs to this element
				s.pos = len(s.src)
			}
			continue
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				flush(s.pos)
				start = s.pos + 1
			}
		}
		s.pos++
	}
	flush(len(body))
	return elements
}

func isTrivia(text string) bool {
	s := &jsScanner{src: text}
	for s.pos < len(s.src) {
		if !s.skipTrivia() {
			return false
		}
	}
	return true
}

// toJSON rewrites a JavaScript object literal as JSON: comments removed,
// identifier keys quoted, single-quoted and template strings converted,
// undefined/NaN/Infinity turned into null and trailing commas dropped.
func toJSON(literal string) (string, error) {
	s := &jsScanner{src: literal}
	var out strings.Builder
	var last byte

	emit := func(text string) {
		out.WriteString(text)
		if text != "" {
			last = text[len(text)-1]
		}
	}

	for s.pos < len(s.src) {
		if s.skipTrivia() {
			out.WriteByte(' ')
			continue
		}

		c := s.src[s.pos]
		switch {
		case c == '\'' || c == '"' || c == '`':
			str, err := s.readString()
			if err != nil {
				return "", err
			}
			quoted, _ := json.Marshal(str)
			emit(string(quoted))
		case c == ',':
			s.pos++
			if next := s.peekSignificant(); next == ']' || next == '}' || next == 0 {
				continue
			}
			emit(",")
		case isNumberStart(c):
			emit(s.readNumber())
		case isIdentStart(c):
			ident := s.readIdent()
			if (last == '{' || last == ',') && s.peekSignificant() == ':' {
				quoted, _ := json.Marshal(ident)
				emit(string(quoted))
				continue
			}
			switch ident {
			case "true", "false", "null":
				emit(ident)
			case "undefined", "NaN", "Infinity":
				emit("null")
			default:
				quoted, _ := json.Marshal(ident)
				emit(string(quoted))
			}
		default:
			emit(s.src[s.pos : s.pos+1])
			s.pos++
		}
	}
	return out.String(), nil
}

type jsScanner struct {
	src string
	pos int
}

// skipTrivia advances past one run of whitespace or comments and reports
// whether anything was skipped.
func (s *jsScanner) skipTrivia() bool {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "//"):
			if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
				s.pos += i + 1
			} else {
				s.pos = len(s.src)
			}
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			if i := strings.Index(s.src[s.pos+2:], "*/"); i >= 0 {
				s.pos += i + 4
			} else {
				s.pos = len(s.src)
			}
		default:
			return s.pos > start
		}
	}
	return s.pos > start
}

func (s *jsScanner) peekSignificant() byte {
	saved := s.pos
	defer func() { s.pos = saved }()
	s.skipTrivia()
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *jsScanner) readNumber() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if !isIdentPart(c) && c != '.' && c != '+' && c != '-' {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *jsScanner) readIdent() string {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// readString consumes a quoted string starting at the current quote and
// returns its decoded value.
func (s *jsScanner) readString() (string, error) {
	quote := s.src[s.pos]
	start := s.pos
	s.pos++

	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == quote {
			s.pos++
			return b.String(), nil
		}
		if c == '\\' && s.pos+1 < len(s.src) {
			s.pos++
			b.WriteString(s.readEscape())
			continue
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		b.WriteRune(r)
		s.pos += size
	}
	return "", fmt.Errorf("unterminated string starting at offset %d", start)
}

func (s *jsScanner) readEscape() string {
	c := s.src[s.pos]
	s.pos++
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case '\n':
		return ""
	case 'u':
		if s.pos+4 <= len(s.src) {
			var r rune
			if _, err := fmt.Sscanf(s.src[s.pos:s.pos+4], "%04x", &r); err == nil {
				s.pos += 4
				return string(r)
			}
		}
		return "u"
	}
	if c >= utf8.RuneSelf {
		s.pos--
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		s.pos += size
		return string(r)
	}
	return string(rune(c))
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
