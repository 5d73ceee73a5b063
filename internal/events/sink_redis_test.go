package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisSinkRPushesEventJSON(t *testing.T) {
	mr := miniredis.RunT(t)

	sink, err := NewRedisSink("redis://"+mr.Addr(), "ingest_events")
	require.NoError(t, err)
	require.Equal(t, "redis", sink.Name())

	payload := BuildIngestedEvent("work-1", "story.txt", "Title", "Author", "sha1", "default", "run-1",
		map[string]int{"chars": 10, "scenes": 1, "chunks": 1})
	require.NoError(t, sink.Emit(context.Background(), payload))

	list, err := mr.List("ingest_events")
	require.NoError(t, err)
	require.Len(t, list, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(list[0]), &got))
	require.Equal(t, "document.ingested", got["type"])
	require.Equal(t, "work-1", got["work_id"])
}
