package annotations

import "strings"

// ReasonFromArgs returns the justification written in an annotation's
// arguments: a named reason first (reason = "...", disabledReason = "..."),
// otherwise an argument made only of string literals. Adjacent literals
// joined with + are concatenated. Whitespace inside literals is preserved.
func ReasonFromArgs(args string) string {
	if loc := namedReasonPattern.FindStringIndex(args); loc != nil {
		if text, _, ok := readConcatenation(args[loc[1]-1:]); ok && text != "" {
			return text
		}
	}
	return bareStringArgument(args)
}

func bareStringArgument(args string) string {
	s := strings.TrimSpace(args)
	s = valuePrefixPattern.ReplaceAllString(s, "")
	if !strings.HasPrefix(s, `"`) {
		return ""
	}
	text, n, ok := readConcatenation(s)
	if !ok {
		return ""
	}
	rest := strings.TrimSpace(s[n:])
	rest = strings.TrimSpace(strings.TrimSuffix(rest, "+"))
	if rest != "" {
		return ""
	}
	return text
}

// readConcatenation reads "a" + "b" + ... from the start of s. ok is false
// when not even one literal is terminated.
func readConcatenation(s string) (string, int, bool) {
	var b strings.Builder
	i, ok := 0, false
	for i < len(s) && s[i] == '"' {
		lit, n, closed := readLiteral(s[i:])
		b.WriteString(lit)
		if !closed {
			return b.String(), len(s), ok
		}
		ok = true
		i += n

		j := skipSpace(s, i)
		if j < len(s) && s[j] == '+' {
			if k := skipSpace(s, j+1); k < len(s) && s[k] == '"' {
				i = k
				continue
			}
		}
		break
	}
	return b.String(), i, ok
}

// readLiteral reads one double-quoted literal from the start of s.
func readLiteral(s string) (string, int, bool) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case '"', '\\', '\'':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
		case ch == '"':
			return b.String(), i + 1, true
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), len(s), false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
