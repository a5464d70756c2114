package vertex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooksComplete(t *testing.T) {
	require.True(t, looksComplete("We operate 9am-5pm."))
	require.True(t, looksComplete("Yes!"))
	require.True(t, looksComplete("Does that help?"))
	require.False(t, looksComplete(""))
	require.False(t, looksComplete("We operate from 9am until"))
}

func TestExtractText(t *testing.T) {
	require.Equal(t, "", extractText(generateResponse{}))

	resp := generateResponse{}
	resp.Candidates = append(resp.Candidates, struct {
		Content content `json:"content"`
	}{Content: content{Parts: []part{{Text: "  hello "}, {Text: "world  "}}}})
	require.Equal(t, "hello world", extractText(resp))
}
