package llm

import "unicode/utf8"

// ContinuationMarker separates the sampled parts of a long document.
const ContinuationMarker = "\n\n[... content continues ...]\n\n"

// SelectContent fits text into maxChars characters. Short text is returned
// unchanged. Longer text is cut to its head, a window around its midpoint
// and its tail (about 40/20/40 of the budget) joined by ContinuationMarker,
// so both the introduction and the conclusion reach the model.
func SelectContent(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	n := len(runes)
	if n <= maxChars {
		return text
	}

	head, middle, tail := budget(maxChars)
	if head == 0 || tail == 0 {
		return string(runes[:maxChars])
	}

	midStart := n/2 - middle/2
	if midStart < head {
		midStart = head
	}
	midEnd := midStart + middle
	if midEnd > n-tail {
		midEnd = n - tail
		midStart = max(head, midEnd-middle)
	}

	out := string(runes[:head]) + ContinuationMarker +
		string(runes[midStart:midEnd]) + ContinuationMarker +
		string(runes[n-tail:])
	if utf8.RuneCountInString(out) > maxChars {
		out = string([]rune(out)[:maxChars])
	}
	return out
}

// budget splits maxChars into head, middle and tail sizes after reserving
// room for two markers. All three are zero when the budget cannot hold the
// markers.
func budget(maxChars int) (head, middle, tail int) {
	avail := maxChars - 2*utf8.RuneCountInString(ContinuationMarker)
	if avail <= 0 {
		return 0, 0, 0
	}
	head = avail * 40 / 100
	middle = avail * 20 / 100
	tail = avail - head - middle
	return head, middle, tail
}
