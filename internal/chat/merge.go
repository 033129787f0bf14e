package chat

import (
	"sort"

	"mamafit-chat/internal/domain"
)

// MergeMessages reconciles a history page with the live-pushed list for
// the same room into one deduplicated feed, newest first.
//
// The two sources overlap: a message sent by the user shows up in the
// live stream and again in a refetched history page. Duplicates are
// detected on the (text, timestamp, sender) triple, keeping the first
// occurrence in iteration order (history page first, then live list).
func MergeMessages(history, live []domain.Message) []domain.Message {
	merged := make([]domain.Message, 0, len(history)+len(live))
	seen := make(map[string]struct{}, len(history)+len(live))

	for _, m := range history {
		key := m.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range live {
		key := m.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, m)
	}

	sortNewestFirst(merged)
	return merged
}

// sortNewestFirst orders messages by timestamp descending. The sort is
// stable so same-timestamp messages keep their arrival order.
func sortNewestFirst(msgs []domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.After(msgs[j].Timestamp)
	})
}
