package service

// AnswerAction is what the voice provider should do when a simulated call
// is answered. Exactly one concrete type is returned per call.
type AnswerAction interface {
	isAnswerAction()
}

// StreamAction tells the provider to bridge the call audio to a websocket.
type StreamAction struct {
	WSURL string
}

// SpeakAction tells the provider to read a prompt to the callee.
type SpeakAction struct {
	Text string
}

func (StreamAction) isAnswerAction() {}
func (SpeakAction) isAnswerAction()  {}

const defaultGreeting = "Hello, this is an automated call from your property consultant. Please hold while we connect you."

// AnswerConfig is the slice of voice provider configuration the service needs.
type AnswerConfig interface {
	GetStreamingEnabled() bool
	GetVoiceAPIKey() string
	GetStreamBaseURL() string
	GetDefaultTransferNumber() string
}

// DecideAnswerAction picks the call-control action for an answered call.
// Streaming requires the feature flag, a voice API credential and a stream
// endpoint; anything less degrades to a spoken prompt.
func DecideAnswerAction(cfg AnswerConfig, callSID string) AnswerAction {
	if cfg.GetStreamingEnabled() && cfg.GetVoiceAPIKey() != "" && cfg.GetStreamBaseURL() != "" {
		return StreamAction{WSURL: cfg.GetStreamBaseURL() + "/streams/" + callSID}
	}
	return SpeakAction{Text: defaultGreeting}
}
