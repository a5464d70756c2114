package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

type stringSource struct {
	content string
	err     error
}

func (s *stringSource) Open(context.Context) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.content)), nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type recordingWriter struct {
	batches [][]chat.FAQRecord
	err     error
}

func (w *recordingWriter) InsertBatch(_ context.Context, records []chat.FAQRecord) error {
	if w.err != nil {
		return w.err
	}
	batch := make([]chat.FAQRecord, len(records))
	copy(batch, records)
	w.batches = append(w.batches, batch)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoader_IngestsRowsAndSkipsHeader(t *testing.T) {
	src := &stringSource{content: "question,answer\nWhat are your hours?,We operate 9am-5pm.\nDo you salt?,Yes.\n"}
	embedder := &fakeEmbedder{}
	writer := &recordingWriter{}

	loader := NewLoader(src, embedder, writer, 10, testLogger())
	written, err := loader.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, written)
	require.Equal(t, 2, embedder.calls)
	require.Len(t, writer.batches, 1)
	require.Equal(t, "What are your hours?", writer.batches[0][0].Question)
	require.NotEmpty(t, writer.batches[0][0].Embedding)
}

func TestLoader_NoHeaderStillWorks(t *testing.T) {
	src := &stringSource{content: "Do you salt?,Yes.\n"}
	writer := &recordingWriter{}

	loader := NewLoader(src, &fakeEmbedder{}, writer, 10, testLogger())
	written, err := loader.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, written)
	require.Equal(t, "Do you salt?", writer.batches[0][0].Question)
}

func TestLoader_BatchesWrites(t *testing.T) {
	var rows strings.Builder
	rows.WriteString("question,answer\n")
	for i := 0; i < 5; i++ {
		rows.WriteString("q,a\n")
	}
	writer := &recordingWriter{}

	loader := NewLoader(&stringSource{content: rows.String()}, &fakeEmbedder{}, writer, 2, testLogger())
	written, err := loader.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, written)
	require.Len(t, writer.batches, 3)
	require.Len(t, writer.batches[0], 2)
	require.Len(t, writer.batches[2], 1)
}

func TestLoader_SkipsIncompleteRows(t *testing.T) {
	src := &stringSource{content: "question,answer\n,missing question\nvalid question,\nreal question,real answer\n"}
	writer := &recordingWriter{}

	loader := NewLoader(src, &fakeEmbedder{}, writer, 10, testLogger())
	written, err := loader.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, written)
	require.Equal(t, "real question", writer.batches[0][0].Question)
}

func TestLoader_EmbedFailureAborts(t *testing.T) {
	src := &stringSource{content: "q,a\n"}
	embedder := &fakeEmbedder{err: errors.New("provider down")}

	loader := NewLoader(src, embedder, &recordingWriter{}, 10, testLogger())
	_, err := loader.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "embed row")
}

func TestLoader_SourceFailure(t *testing.T) {
	loader := NewLoader(&stringSource{err: errors.New("no such file")}, &fakeEmbedder{}, &recordingWriter{}, 10, testLogger())
	_, err := loader.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "open source")
}

func TestLoader_WriteFailure(t *testing.T) {
	src := &stringSource{content: "q,a\n"}
	writer := &recordingWriter{err: errors.New("db down")}

	loader := NewLoader(src, &fakeEmbedder{}, writer, 10, testLogger())
	_, err := loader.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "write batch")
}
