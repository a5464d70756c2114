package chat

import "strings"

// RefusalAnswer is returned verbatim when the guard blocks a question.
const RefusalAnswer = "Sorry - I can't help with that request."

// blockedPhrases is a deterministic safety gate. Only clearly unsafe or
// illegal intents are blocked; everything else is allowed so the gate can
// never take the whole service down.
var blockedPhrases = []string{
	// weapons/explosives/violence
	"how to build a bomb", "make a bomb", "explosive", "molotov",
	"how to kill", "kill someone", "murder", "shoot", "stab",
	// self-harm
	"suicide", "kill myself", "self harm",
	// illegal / sabotage
	"sabotage", "disable a plow", "destroy", "poison", "ricin",
	"steal", "hack", "bypass", "jailbreak",
}

// GateDecision is the outcome of the prompt guard.
type GateDecision struct {
	Allowed bool
	Reason  string
}

// GuardQuestion screens a question before any external call is made.
func GuardQuestion(question string) GateDecision {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, phrase := range blockedPhrases {
		if strings.Contains(q, phrase) {
			return GateDecision{Allowed: false, Reason: "unsafe or illegal request"}
		}
	}
	return GateDecision{Allowed: true, Reason: "looks safe"}
}
