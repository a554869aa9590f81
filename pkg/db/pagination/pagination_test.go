package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 4, 5, 10, 30, 0, 123456789, time.UTC)
	token, err := EncodeCursor(Cursor{
		ID:        "1234567890",
		CreatedAt: createdAt.Format(time.RFC3339Nano),
	})
	require.NoError(t, err)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)

	gotTime, gotID, err := decoded.Keys()
	require.NoError(t, err)
	assert.True(t, gotTime.Equal(createdAt))
	assert.EqualValues(t, 1234567890, gotID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!!")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ ID string }
	rows := []*row{{"a"}, {"b"}, {"c"}, {"d"}}

	trimmed, info := BuildCursorPageInfo(rows, 3, func(r *row) string { return r.ID })
	assert.Len(t, trimmed, 3)
	assert.True(t, info.HasMore)
	assert.Equal(t, "c", info.NextPageToken)

	trimmed, info = BuildCursorPageInfo(rows[:2], 3, func(r *row) string { return r.ID })
	assert.Len(t, trimmed, 2)
	assert.False(t, info.HasMore)

	trimmed, info = BuildCursorPageInfo(nil, 3, func(r *row) string { return r.ID })
	assert.Empty(t, trimmed)
	assert.False(t, info.HasMore)
}
