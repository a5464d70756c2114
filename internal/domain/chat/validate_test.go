package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnswerIssues(t *testing.T) {
	require.Equal(t, "empty_or_too_short", AnswerIssues(""))
	require.Equal(t, "empty_or_too_short", AnswerIssues("   "))
	require.Equal(t, "empty_or_too_short", AnswerIssues("ok."))
	require.Equal(t, "truncated", AnswerIssues("We operate from 9am to"))
	require.Equal(t, "", AnswerIssues("We operate from 9am to 5pm."))
	require.Equal(t, "", AnswerIssues("Yes!"+" Our crews run all winter."))
	require.Equal(t, "", AnswerIssues("Is that all?"))
}

func TestNormalizeQuestion(t *testing.T) {
	require.Equal(t, "what are your hours", NormalizeQuestion("  What   ARE your\nhours "))
	require.Equal(t, "", NormalizeQuestion("   "))
	require.Equal(t,
		NormalizeQuestion("Do you salt driveways?"),
		NormalizeQuestion("do YOU salt   driveways?"))
}
