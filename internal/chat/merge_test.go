package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamafit-chat/internal/domain"
	"mamafit-chat/internal/testutil"
)

func TestMergeMessages_Dedup(t *testing.T) {
	ts := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	history := []domain.Message{testutil.MessageAt("r1", "hi", "A", ts)}
	live := []domain.Message{testutil.MessageAt("r1", "hi", "A", ts)}

	merged := MergeMessages(history, live)
	require.Len(t, merged, 1)
	assert.Equal(t, "hi", merged[0].Text)
}

func TestMergeMessages_KeepsFirstOccurrence(t *testing.T) {
	ts := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	fromHistory := testutil.MessageAt("r1", "hi", "A", ts)
	fromHistory.SenderID = "history-side"
	fromLive := testutil.MessageAt("r1", "hi", "A", ts)
	fromLive.SenderID = "live-side"

	merged := MergeMessages([]domain.Message{fromHistory}, []domain.Message{fromLive})
	require.Len(t, merged, 1)
	assert.Equal(t, "history-side", merged[0].SenderID)
}

func TestMergeMessages_NearDuplicatesSurvive(t *testing.T) {
	ts := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		live domain.Message
	}{
		{"different_text", testutil.MessageAt("r1", "hi!", "A", ts)},
		{"different_timestamp", testutil.MessageAt("r1", "hi", "A", ts.Add(time.Second))},
		{"different_sender", testutil.MessageAt("r1", "hi", "B", ts)},
	}

	history := []domain.Message{testutil.MessageAt("r1", "hi", "A", ts)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeMessages(history, []domain.Message{tt.live})
			assert.Len(t, merged, 2)
		})
	}
}

func TestMergeMessages_NewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	history := []domain.Message{
		testutil.MessageAt("r1", "one", "A", base.Add(1*time.Minute)),
		testutil.MessageAt("r1", "three", "A", base.Add(3*time.Minute)),
	}
	live := []domain.Message{
		testutil.MessageAt("r1", "four", "B", base.Add(4*time.Minute)),
		testutil.MessageAt("r1", "two", "B", base.Add(2*time.Minute)),
	}

	merged := MergeMessages(history, live)
	require.Len(t, merged, 4)

	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].Timestamp.After(merged[i-1].Timestamp),
			"messages must be non-increasing by timestamp at index %d", i)
	}
	assert.Equal(t, "four", merged[0].Text)
	assert.Equal(t, "one", merged[3].Text)
}

func TestMergeMessages_EmptySources(t *testing.T) {
	ts := time.Now()
	msgs := []domain.Message{testutil.MessageAt("r1", "hi", "A", ts)}

	assert.Len(t, MergeMessages(nil, nil), 0)
	assert.Len(t, MergeMessages(msgs, nil), 1)
	assert.Len(t, MergeMessages(nil, msgs), 1)
}

func TestMergeMessages_StableForEqualTimestamps(t *testing.T) {
	ts := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	history := []domain.Message{
		testutil.MessageAt("r1", "first", "A", ts),
		testutil.MessageAt("r1", "second", "B", ts),
	}

	merged := MergeMessages(history, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "first", merged[0].Text)
	assert.Equal(t, "second", merged[1].Text)
}
