package realtime

// MessageType defines the type of a structured message on the realtime connection
type MessageType string

// Structured message types exchanged with the speech service. Binary frames
// on the same connection carry audio in both directions.
const (
	MessageTypeConfigure       MessageType = "session.configure"
	MessageTypeReady           MessageType = "session.ready"
	MessageTypeTranscriptDelta MessageType = "transcript.delta"
	MessageTypeTranscriptFinal MessageType = "transcript.final"
	MessageTypeOrderItems      MessageType = "order.items"
	MessageTypeError           MessageType = "session.error"
	MessageTypeClosed          MessageType = "session.closed"
)

// BaseMessage defines the common structure for all structured messages
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ConfigureMessage is the single configuration message sent after the
// handshake and before any audio. It embeds the behavioral instructions and
// the catalog digest minted with the credential.
type ConfigureMessage struct {
	BaseMessage
	Instructions  string `json:"instructions"`
	CatalogDigest string `json:"catalog_digest"`
}

// TranscriptMessage carries an incremental or final transcript for one utterance
type TranscriptMessage struct {
	BaseMessage
	UtteranceID string `json:"utterance_id,omitempty"`
	Text        string `json:"text"`
}

// DetectedItemPayload is one {name, quantity, modifiers} tuple in a detection
type DetectedItemPayload struct {
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// OrderItemsMessage is the structured function-style payload emitted when the
// service detects one or more order items in speech
type OrderItemsMessage struct {
	BaseMessage
	UtteranceID string                `json:"utterance_id,omitempty"`
	Items       []DetectedItemPayload `json:"items"`
}

// ErrorMessage is a remote-reported session error
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
