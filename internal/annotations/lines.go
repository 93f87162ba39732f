package annotations

import "strings"

// Line is one physical source line split into code and comment text.
type Line struct {
	// Code is the trimmed code with comments removed. String literals are kept.
	Code string
	// Comment is the trimmed text of a trailing or one-line comment,
	// without the comment markers.
	Comment string
}

// Blank reports whether the line carries neither code nor comment text.
func (l Line) Blank() bool {
	return l.Code == "" && l.Comment == ""
}

// CommentOnly reports whether the line is a comment and nothing else.
func (l Line) CommentOnly() bool {
	return l.Code == "" && l.Comment != ""
}

// Classify splits raw into code and comment. inBlock tells whether the
// line starts inside a /* */ comment; the returned bool is the same state
// for the next line.
//
// Lines that start inside a block comment contribute nothing. A // that is
// directly preceded by ':' is kept as code so URLs survive.
func Classify(raw string, inBlock bool) (Line, bool) {
	line := strings.TrimRight(raw, "\r")

	if inBlock {
		if strings.Contains(line, "*/") {
			return Line{}, false
		}
		return Line{}, true
	}

	var code strings.Builder
	var lineComment, blockComment string
	inString, inChar := false, false

	for i := 0; i < len(line); i++ {
		ch := line[i]

		if inString || inChar {
			code.WriteByte(ch)
			switch {
			case ch == '\\' && i+1 < len(line):
				i++
				code.WriteByte(line[i])
			case ch == '"' && inString:
				inString = false
			case ch == '\'' && inChar:
				inChar = false
			}
			continue
		}

		if ch == '/' && i+1 < len(line) {
			next := line[i+1]
			if next == '/' && (i == 0 || line[i-1] != ':') {
				lineComment = line[i+2:]
				break
			}
			if next == '*' {
				end := strings.Index(line[i+2:], "*/")
				if end < 0 {
					inBlock = true
					break
				}
				if blockComment == "" {
					blockComment = line[i+2 : i+2+end]
				}
				code.WriteByte(' ')
				i += 2 + end + 1
				continue
			}
		}

		switch ch {
		case '"':
			inString = true
		case '\'':
			inChar = true
		}
		code.WriteByte(ch)
	}

	comment := lineComment
	if comment == "" {
		comment = blockComment
	}
	return Line{
		Code:    strings.TrimSpace(code.String()),
		Comment: cleanComment(comment),
	}, inBlock
}

func cleanComment(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "/*")
	return strings.TrimSpace(text)
}

// StripLiterals removes string and char literals from code so braces and
// annotation markers inside them are not counted.
func StripLiterals(code string) string {
	var b strings.Builder
	inString, inChar := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
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
			continue
		case '\'':
			inChar = true
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
