package chat

import "strings"

const minAnswerLen = 5

// AnswerIssues inspects a generated answer and returns a comma separated list
// of problems, or empty when the answer looks usable. Issues are diagnostic:
// they annotate the response, they never fail the request.
func AnswerIssues(answer string) string {
	var issues []string
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < minAnswerLen {
		issues = append(issues, "empty_or_too_short")
	} else if last := trimmed[len(trimmed)-1]; last != '.' && last != '!' && last != '?' {
		issues = append(issues, "truncated")
	}
	return strings.Join(issues, ", ")
}

// NormalizeQuestion collapses whitespace and case for trending counters so
// rephrasings of the same question share a bucket.
func NormalizeQuestion(question string) string {
	fields := strings.Fields(strings.ToLower(question))
	return strings.Join(fields, " ")
}
