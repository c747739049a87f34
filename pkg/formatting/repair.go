package formatting

import "strings"

// RepairJSON attempts a best-effort structural repair of truncated or
// unbalanced JSON content: it trims a dangling partial token after the last
// complete value and appends the closers for any brackets left open.
// It never touches content that is already balanced.
func RepairJSON(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return content
	}

	var stack []byte
	inString := false
	escaped := false
	lastComplete := -1

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
				lastComplete = i
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
			lastComplete = i
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
			lastComplete = i
		case ',', ':', ' ', '\n', '\t', '\r':
		default:
			lastComplete = i
		}
	}

	if len(stack) == 0 && !inString {
		return content
	}

	// Unterminated string: cut back to the last complete value, then drop
	// any trailing comma or key fragment left behind.
	if inString && lastComplete >= 0 {
		content = content[:lastComplete+1]
	}
	content = strings.TrimRight(content, ", \n\t\r")
	content = strings.TrimSuffix(content, ":")
	content = strings.TrimRight(content, ", \n\t\r")
	content = dropDanglingKey(content)
	content = strings.TrimRight(content, ", \n\t\r")

	var sb strings.Builder
	sb.WriteString(content)
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			sb.WriteByte('}')
		case '[':
			sb.WriteByte(']')
		}
	}

	return sb.String()
}

// dropDanglingKey removes a trailing complete string when it is an object
// key rather than a value: keys follow '{' or ',', values follow ':' or '['.
func dropDanglingKey(content string) string {
	if !strings.HasSuffix(content, `"`) {
		return content
	}
	open := strings.LastIndex(content[:len(content)-1], `"`)
	if open < 0 {
		return content
	}

	before := strings.TrimRight(content[:open], " \n\t\r")
	if strings.HasSuffix(before, "{") || strings.HasSuffix(before, ",") {
		return before
	}
	return content
}

// ParseRepaired parses content as JSON into T, falling back to a
// bracket-balancing repair when direct and fenced parsing both fail.
func ParseRepaired[T any](content string) (T, error) {
	result, err := Parse[T](content)
	if err == nil {
		return result, nil
	}

	return Parse[T](RepairJSON(stripFence(content)))
}

func stripFence(content string) string {
	matches := jsonBlockRegex.FindStringSubmatch(strings.TrimSpace(content))
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return content
}
