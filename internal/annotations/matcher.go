package annotations

import "strings"

// Annotation is one disabling or enabling annotation found on a line.
type Annotation struct {
	Type string
	// Args is the text between the parentheses, "" when there are none.
	Args string
	// Open is set when the argument list was not closed on the line.
	Open bool
}

// MatchClass returns the name of a class, interface, enum or record
// declared by code.
func MatchClass(code string) (string, bool) {
	m := classPattern.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MatchMethod returns the name of a void method declared by code.
func MatchMethod(code string) (string, bool) {
	m := methodPattern.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SplitLeadingAnnotations separates the annotations written in front of a
// declaration on the same line, as in "@Test public void foo() {", from the
// declaration. Only annotations whose arguments close on the line are
// split off; rest is the whole code when there are none.
func SplitLeadingAnnotations(code string) (prefix, rest string) {
	rest = code
	for {
		trimmed := strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(trimmed, "@interface") {
			break
		}
		name := leadingAnnotationPattern.FindString(trimmed)
		if name == "" {
			break
		}
		after := trimmed[len(name):]
		if args := strings.TrimLeft(after, " \t"); strings.HasPrefix(args, "(") {
			_, n, closed := scanArgs(args[1:])
			if !closed {
				break
			}
			after = args[1+n:]
		}
		rest = after
	}
	prefix = strings.TrimSpace(code[:len(code)-len(rest)])
	return prefix, strings.TrimSpace(rest)
}

// MatchAnnotations returns every Disabled*/Enabled* annotation on the line
// in source order. Matches inside string literals or inside another
// annotation's arguments are skipped.
func MatchAnnotations(code string) []Annotation {
	if !strings.Contains(code, "@") {
		return nil
	}

	var out []Annotation
	consumed := 0
	for _, m := range annotationPattern.FindAllStringSubmatchIndex(code, -1) {
		start, end := m[0], m[1]
		if start < consumed || insideStringLiteral(code, start) {
			continue
		}

		ann := Annotation{Type: code[m[2]:m[3]]}
		consumed = end

		rest := code[end:]
		trimmed := strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(trimmed, "(") {
			open := end + len(rest) - len(trimmed) + 1
			inner, n, closed := scanArgs(code[open:])
			ann.Args = inner
			ann.Open = !closed
			consumed = open + n
		}
		out = append(out, ann)
	}
	return out
}

// ContinueArgs extends the arguments of an annotation left open at the end
// of a line with the code of the following line.
func ContinueArgs(partial, next string) string {
	if next == "" {
		return partial
	}
	inner, _, _ := scanArgs(partial + " " + next)
	return inner
}

// scanArgs reads s, the text after an opening parenthesis, up to the
// matching close. It returns the inner text, the number of bytes consumed
// including the closing parenthesis, and whether the close was found.
func scanArgs(s string) (string, int, bool) {
	depth := 1
	inString, inChar := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString || inChar {
			switch {
			case ch == '\\':
				i++
			case ch == '"' && inString:
				inString = false
			case ch == '\'' && inChar:
				inChar = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '\'':
			inChar = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i], i + 1, true
			}
		}
	}
	return s, len(s), false
}

// insideStringLiteral reports whether pos falls inside a double-quoted
// literal, counting unescaped quotes before it.
func insideStringLiteral(code string, pos int) bool {
	inString := false
	for i := 0; i < pos && i < len(code); i++ {
		switch code[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		}
	}
	return inString
}
