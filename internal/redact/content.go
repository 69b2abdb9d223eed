package redact

// openState scans a decoded content stream and reports how many q operators
// remain without a matching Q and whether a text object is left open. String
// literals, hex strings, comments and inline image data are skipped so bytes
// inside them are never taken for operators.
func openState(b []byte) (saves int, inText bool) {
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case isWhite(c):
			i++
		case c == '%':
			for i < len(b) && b[i] != '\n' && b[i] != '\r' {
				i++
			}
		case c == '(':
			i = skipLiteral(b, i)
		case c == '<':
			if i+1 < len(b) && b[i+1] == '<' {
				i += 2
				continue
			}
			for i < len(b) && b[i] != '>' {
				i++
			}
			i++
		case c == '/':
			i++
			for i < len(b) && !isWhite(b[i]) && !isDelim(b[i]) {
				i++
			}
		case isDelim(c):
			i++
		default:
			start := i
			for i < len(b) && !isWhite(b[i]) && !isDelim(b[i]) {
				i++
			}
			switch string(b[start:i]) {
			case "q":
				saves++
			case "Q":
				if saves > 0 {
					saves--
				}
			case "BT":
				inText = true
			case "ET":
				inText = false
			case "ID":
				i = skipInlineImage(b, i)
			}
		}
	}
	return saves, inText
}

// skipLiteral returns the offset just past the string literal starting at b[i].
// Balanced parentheses nest; a backslash escapes the next byte.
func skipLiteral(b []byte, i int) int {
	depth := 0
	for ; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(b)
}

// skipInlineImage returns the offset just past the EI that ends the inline
// image data following an ID operator at b[:i].
func skipInlineImage(b []byte, i int) int {
	i++ // the single white-space byte after ID
	for j := i; j+1 < len(b); j++ {
		if b[j] != 'E' || b[j+1] != 'I' || !isWhite(b[j-1]) {
			continue
		}
		if j+2 == len(b) || isWhite(b[j+2]) || isDelim(b[j+2]) {
			return j + 2
		}
	}
	return len(b)
}

func isWhite(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
