package coach

import (
	"roleplay-coach-go/internal/sanitize"
	"roleplay-coach-go/internal/transcript"
	"roleplay-coach-go/internal/types"
)

// Live-signal trigger names. Script-path triggers are named after the step.
const (
	TriggerLongSilence = "long_silence"
	TriggerSilence     = "silence"
	TriggerFluency     = "fluency"
	TriggerConfidence  = "confidence"
)

const (
	LongSilenceMs   = 3500
	SilenceMs       = 2500
	FillerThreshold = 3
)

// signals is everything the trigger table looks at, computed once per call.
type signals struct {
	silenceMs     int
	agentLast     string
	fillers       int
	unconfident   bool
	customerLast  bool
	step          transcript.Step
	stepMissing   bool
	recentContext string
}

func readSignals(in Input) signals {
	var s signals
	if in.Meta != nil {
		s.silenceMs = max(in.Meta.SilenceMs, 0)
		s.agentLast = in.Meta.AgentLastUtterance
	}
	if s.agentLast == "" {
		s.agentLast = transcript.LastAgentUtterance(in.Transcript)
	}
	s.fillers = transcript.FillerCount(s.agentLast)
	s.unconfident = transcript.HasUnconfidentPhrase(s.agentLast)
	s.customerLast = transcript.LastSpeakerIsCustomer(in.Transcript)
	s.step, s.stepMissing = transcript.NextMissingStep(in.Transcript)
	s.recentContext = transcript.RecentContext(in.Transcript, contextLines, contextChars)
	return s
}

// trigger is the outcome of the table: either a named trigger with its urgency
// or a suppression reason.
type trigger struct {
	name     string
	urgency  string
	step     transcript.Step
	suppress string
}

type triggerRule struct {
	name    string
	urgency string
	match   func(signals) bool
}

// liveRules are checked in order before the script path.
var liveRules = []triggerRule{
	{TriggerLongSilence, types.UrgencyHigh, func(s signals) bool { return s.silenceMs >= LongSilenceMs }},
	{TriggerSilence, types.UrgencyMedium, func(s signals) bool { return s.silenceMs >= SilenceMs }},
	{TriggerFluency, types.UrgencyMedium, func(s signals) bool { return s.fillers >= FillerThreshold }},
	{TriggerConfidence, types.UrgencyMedium, func(s signals) bool { return s.unconfident }},
}

func stepUrgency(step transcript.Step) string {
	switch step {
	case transcript.StepOpening, transcript.StepEmpathy:
		return types.UrgencyHigh
	default:
		return types.UrgencyMedium
	}
}

func pickTrigger(s signals) trigger {
	for _, r := range liveRules {
		if r.match(s) {
			return trigger{name: r.name, urgency: r.urgency}
		}
	}
	// script path: only right after the customer spoke
	if !s.customerLast {
		return trigger{suppress: sanitize.TagTiming}
	}
	if !s.stepMissing {
		return trigger{suppress: sanitize.TagOther}
	}
	return trigger{name: string(s.step), urgency: stepUrgency(s.step), step: s.step}
}

// triggerRules are the writing rules handed to the model for each trigger.
var triggerRules = map[string]string{
	TriggerLongSilence:                    "- Silence: suggest 1 clear sentence + 1 direct question.",
	TriggerSilence:                        "- Silence: suggest 1 clear sentence + 1 direct question.",
	TriggerFluency:                        "- Fluency: slow down, remove fillers.",
	TriggerConfidence:                     "- Confidence: stronger phrasing, no hedging words.",
	string(transcript.StepOpening):        "- Opening: greet, give your name and team, ask how you can help.",
	string(transcript.StepIdentification): "- Identification: ask for ONE identifying detail.",
	string(transcript.StepEmpathy):        "- Empathy: acknowledge the customer's feeling in one sentence.",
	string(transcript.StepClarify):        "- Clarify: ONE clarifying question only.",
	string(transcript.StepRestate):        "- Restate: confirm the issue back in one sentence.",
	string(transcript.StepExpectations):   "- Expectations: state the next step + a timeframe.",
	string(transcript.StepClose):          "- Close: recap what was agreed and ask if there is anything else.",
	string(transcript.StepFeedback):       "- Feedback: invite the customer to a short feedback survey.",
}
