package syntax

// checkBalance scans code for unbalanced brackets and unterminated strings or
// block comments. Regex literals are not recognised.
func checkBalance(code string) error {
	var stack []rune
	line := 1
	closer := map[rune]rune{')': '(', ']': '[', '}': '{'}

	runes := []rune(code)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\n':
			line++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			if i < len(runes) {
				line++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			start := line
			i += 2
			for ; i < len(runes); i++ {
				if runes[i] == '\n' {
					line++
				}
				if runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/' {
					i++
					break
				}
			}
			if i >= len(runes) {
				return invalid("unterminated comment starting line %d", start)
			}
		case r == '"' || r == '\'' || r == '`':
			start := line
			i++
			for ; i < len(runes) && runes[i] != r; i++ {
				switch runes[i] {
				case '\\':
					i++
				case '\n':
					if r != '`' {
						return invalid("unterminated string on line %d", start)
					}
					line++
				}
			}
			if i >= len(runes) {
				return invalid("unterminated string starting line %d", start)
			}
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, r)
		case r == ')' || r == ']' || r == '}':
			if len(stack) == 0 || stack[len(stack)-1] != closer[r] {
				return invalid("unexpected %q on line %d", r, line)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return invalid("unclosed %q", stack[len(stack)-1])
	}
	return nil
}
