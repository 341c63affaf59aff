package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxSafeInteger is the largest integer a JavaScript number holds exactly.
const maxSafeInteger = 1<<53 - 1

// numberValue converts a JavaScript numeric literal into the value esprima's
// JSON output would carry: integral values become int64, others float64.
func numberValue(text string) (interface{}, bool) {
	clean := strings.ReplaceAll(text, "_", "")
	clean = strings.TrimSuffix(clean, "n")

	lower := strings.ToLower(clean)
	if len(lower) > 2 && lower[0] == '0' && strings.ContainsRune("xob", rune(lower[1])) {
		i, err := strconv.ParseInt(lower, 0, 64)
		if err != nil {
			return nil, false
		}
		return i, true
	}
	// Legacy octal such as 0755.
	if len(clean) > 1 && clean[0] == '0' && isAllDigits(clean[1:]) && !strings.ContainsAny(clean, "89") {
		i, err := strconv.ParseInt(clean[1:], 8, 64)
		if err != nil {
			return nil, false
		}
		return i, true
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil, false
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
		return int64(f), true
	}
	return f, true
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// stringValue strips the quotes of a JavaScript string literal and resolves
// its escape sequences.
func stringValue(text string) string {
	if len(text) >= 2 {
		q := text[0]
		if (q == '"' || q == '\'' || q == '`') && text[len(text)-1] == q {
			text = text[1 : len(text)-1]
		}
	}
	if !strings.Contains(text, `\`) {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 >= len(text) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := text[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		case 'x':
			if r, ok := hexRune(text, i+1, 2); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteByte(e)
			}
		case 'u':
			if i+1 < len(text) && text[i+1] == '{' {
				end := strings.IndexByte(text[i:], '}')
				if end > 2 {
					if v, err := strconv.ParseUint(text[i+2:i+end], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
						b.WriteRune(rune(v))
						i += end
						continue
					}
				}
				b.WriteByte(e)
			} else if r, ok := hexRune(text, i+1, 4); ok {
				b.WriteRune(r)
				i += 4
			} else {
				b.WriteByte(e)
			}
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexRune(s string, start, n int) (rune, bool) {
	if start+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// splitRegex splits /pattern/flags into its parts.
func splitRegex(text string) (pattern, flags string) {
	end := strings.LastIndexByte(text, '/')
	if !strings.HasPrefix(text, "/") || end <= 0 {
		return text, ""
	}
	return text[1:end], text[end+1:]
}
