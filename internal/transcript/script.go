package transcript

import (
	"regexp"
	"strings"
)

// Step is a call-structure checklist step the live coach can nudge towards.
type Step string

const (
	StepOpening        Step = "opening"
	StepIdentification Step = "identification"
	StepEmpathy        Step = "empathy"
	StepClarify        Step = "clarify"
	StepRestate        Step = "restate"
	StepExpectations   Step = "expectations"
	StepClose          Step = "close"
	StepFeedback       Step = "feedback"
)

// State holds the completion flags inferred from the agent's lines.
type State struct {
	Opening        bool `json:"opening_done"`
	Identification bool `json:"identification_done"`
	Empathy        bool `json:"empathy_done"`
	Clarify        bool `json:"clarify_done"`
	Restate        bool `json:"restate_done"`
	Expectations   bool `json:"expectations_done"`
	Close          bool `json:"close_done"`
	Feedback       bool `json:"feedback_done"`
	NearClosing    bool `json:"near_closing"`
	CustomerSpoke  bool `json:"customer_spoke"`
}

var (
	reIntro          = regexp.MustCompile(`\b(my name is|this is)\b`)
	reAffiliation    = regexp.MustCompile(`\b(team|support|from|company)\b`)
	reHowCanIHelp    = regexp.MustCompile(`\bhow can i help\b`)
	reIdentification = regexp.MustCompile(`\b(name|last\s*(4|four)|id|phone|phone number|email)\b`)
	reEmpathy        = regexp.MustCompile(`\b(i understand|i'm sorry|sorry to hear|that sounds|i can imagine|i appreciate)\b`)
	reRestate        = regexp.MustCompile(`\b(just to confirm|to confirm|to make sure i understand|if i understand|so you('re| are))\b`)
	reExpectations   = regexp.MustCompile(`\b(next step|what i('ll| will) do|within|today|tomorrow|minutes|hours|by (the end|eod))\b`)
	reClose          = regexp.MustCompile(`\b(to summarize|just to summarize|summary|recap)\b`)
	reFeedback       = regexp.MustCompile(`\b(survey|feedback|rate|rating)\b`)
	reNearClosing    = regexp.MustCompile(`\b(anything else|goodbye|bye|thank you for calling|have a (good|nice) day)\b`)
	reQuestionWord   = regexp.MustCompile(`\b(can you|could you|what|when|where|which|how)\b`)
)

// ScriptState infers which checklist steps the agent has already covered.
func ScriptState(t string) State {
	a := AgentLinesOnly(t)
	spoke := HasCustomerSpoken(t)

	// clarifying questions only count once there is something to clarify
	after := agentLinesAfterCustomer(t)
	clarify := spoke && (strings.ContainsRune(after, '?') || reQuestionWord.MatchString(after))

	return State{
		Opening:        reIntro.MatchString(a) && reAffiliation.MatchString(a) && reHowCanIHelp.MatchString(a),
		Identification: reIdentification.MatchString(a),
		Empathy:        spoke && reEmpathy.MatchString(a),
		Clarify:        clarify,
		Restate:        spoke && reRestate.MatchString(a),
		Expectations:   spoke && reExpectations.MatchString(a),
		Close:          reClose.MatchString(a),
		Feedback:       reFeedback.MatchString(a),
		NearClosing:    reNearClosing.MatchString(a),
		CustomerSpoke:  spoke,
	}
}

// rule is one row of the next-missing-step table. applies gates the row; done
// reports whether the step is satisfied.
type rule struct {
	step    Step
	applies func(State) bool
	done    func(State) bool
}

func always(State) bool { return true }

func customerSpoke(s State) bool { return s.CustomerSpoke }

func nearClosing(s State) bool { return s.NearClosing }

// stepRules is evaluated top to bottom; the first applicable unmet step wins.
var stepRules = []rule{
	{StepOpening, always, func(s State) bool { return s.Opening }},
	{StepEmpathy, customerSpoke, func(s State) bool { return s.Empathy }},
	{StepClarify, customerSpoke, func(s State) bool { return s.Clarify }},
	{StepRestate, customerSpoke, func(s State) bool { return s.Restate }},
	{StepExpectations, customerSpoke, func(s State) bool { return s.Expectations }},
	{StepClose, nearClosing, func(s State) bool { return s.Close }},
	{StepFeedback, nearClosing, func(s State) bool { return s.Feedback }},
}

// NextMissingStep returns the highest-priority step the agent still owes.
// ok is false when nothing applicable is missing.
func NextMissingStep(t string) (Step, bool) {
	return NextMissingStepFor(ScriptState(t))
}

// NextMissingStepFor applies the step table to a precomputed state.
func NextMissingStepFor(s State) (Step, bool) {
	for _, r := range stepRules {
		if r.applies(s) && !r.done(s) {
			return r.step, true
		}
	}
	return "", false
}
