// Package history keeps the most-recently-used list of generated selectors
// and the journal of changes made to it.
package history

import "github.com/xkilldash9x/selector-cli/internal/config"

// Push returns a new history with sel at the front and any earlier copy of
// sel removed, truncated to capacity entries. A capacity of zero or less
// means config.DefaultHistoryCapacity. An empty sel returns a copy of
// history unchanged. The input slice is never modified.
func Push(history []string, sel string, capacity int) []string {
	if capacity <= 0 {
		capacity = config.DefaultHistoryCapacity
	}
	if sel == "" {
		out := append([]string(nil), history...)
		if len(out) > capacity {
			out = out[:capacity]
		}
		return out
	}

	out := make([]string, 0, min(len(history)+1, capacity))
	out = append(out, sel)
	for _, s := range history {
		if len(out) == capacity {
			break
		}
		if s != sel {
			out = append(out, s)
		}
	}
	return out
}
