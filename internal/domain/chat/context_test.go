package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func TestBuildContext_EmptyMatches(t *testing.T) {
	require.Equal(t, NoContextSentinel, BuildContext(nil, 100, wordCounter{}))
	require.Equal(t, NoContextSentinel, BuildContext([]RetrievedMatch{}, 0, nil))
}

func TestBuildContext_FormatsNumberedBlocks(t *testing.T) {
	matches := []RetrievedMatch{
		{Question: "What are your hours?", Answer: "We operate 9am-5pm.", Similarity: 0.9},
		{Question: "Do you salt driveways?", Answer: "Yes, on request.", Similarity: 0.8},
	}

	got := BuildContext(matches, 0, nil)
	require.Equal(t,
		"[1] Q: What are your hours?\nA: We operate 9am-5pm.\n\n[2] Q: Do you salt driveways?\nA: Yes, on request.",
		got)
}

func TestBuildContext_Deterministic(t *testing.T) {
	matches := []RetrievedMatch{
		{Question: "a", Answer: "b", Similarity: 0.5},
		{Question: "c", Answer: "d", Similarity: 0.4},
	}
	first := BuildContext(matches, 20, wordCounter{})
	for i := 0; i < 10; i++ {
		require.Equal(t, first, BuildContext(matches, 20, wordCounter{}))
	}
}

func TestBuildContext_DropsLowerSimilarityOnBudget(t *testing.T) {
	matches := []RetrievedMatch{
		{Question: "short", Answer: "answer", Similarity: 0.9},
		{Question: "a much longer question that costs many tokens", Answer: "an equally long answer with many words inside", Similarity: 0.5},
	}

	got := BuildContext(matches, 8, wordCounter{})
	require.Contains(t, got, "[1] Q: short")
	require.NotContains(t, got, "much longer question")
}

func TestBuildContext_AlwaysKeepsFirstMatch(t *testing.T) {
	matches := []RetrievedMatch{
		{Question: "one question that alone exceeds the entire budget already", Answer: "and the answer makes it even longer", Similarity: 0.9},
	}

	got := BuildContext(matches, 1, wordCounter{})
	require.Contains(t, got, "[1] Q:")
}

func TestBuildPrompt_Layout(t *testing.T) {
	prompt := BuildPrompt("be helpful", "some context", "my question")
	require.Equal(t, "be helpful", prompt.System)
	require.Equal(t, "Context:\nsome context\n\nUser question:\nmy question\n\nAnswer:", prompt.User)
	require.Equal(t, "be helpful\nContext:\nsome context\n\nUser question:\nmy question\n\nAnswer:", prompt.Text())
}
