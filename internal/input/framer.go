package input

import "strings"

const separators = "\r\n"

// frame dispatches every complete line of buf in order and returns the text
// to keep for the next poll. dispatch returns false to abandon the rest of
// the buffer.
//
// Without retain, the kept text is whatever follows the last separator in
// buf, so complete lines behind an abandoned one are dropped with it. With
// retain, those lines are kept and run on a later poll.
func frame(buf string, retain bool, dispatch func(line string) bool) string {
	start := 0
	for {
		lineStart := indexNotAny(buf, start)
		if lineStart < 0 {
			break
		}
		n := strings.IndexAny(buf[lineStart:], separators)
		if n < 0 {
			break
		}
		lineEnd := lineStart + n
		line := buf[lineStart:lineEnd]
		if line == "" {
			break
		}
		if !dispatch(line) {
			if retain {
				return strings.TrimLeft(buf[lineEnd:], separators)
			}
			break
		}
		start = lineEnd
	}

	last := strings.LastIndexAny(buf, separators)
	switch {
	case last < 0:
		return buf
	case last == len(buf)-1:
		return ""
	default:
		return buf[last+1:]
	}
}

func indexNotAny(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] != '\r' && s[i] != '\n' {
			return i
		}
	}
	return -1
}

// hasCompleteLine reports whether buf still holds a terminated line.
func hasCompleteLine(buf string) bool {
	i := indexNotAny(buf, 0)
	return i >= 0 && strings.ContainsAny(buf[i:], separators)
}
