package webhook

import "encoding/json"

// Payload is the body Meta posts to the webhook for Instagram and Messenger
// subscriptions.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging notifications for one page or account.
// Messaging items stay raw until Events decodes them one by one.
type Entry struct {
	ID        string            `json:"id"`
	Time      int64             `json:"time"`
	Messaging []json.RawMessage `json:"messaging"`
}

// Party identifies a sender or recipient.
type Party struct {
	ID string `json:"id"`
}

// Messaging is a single notification. Exactly one of the event fields is
// normally set.
type Messaging struct {
	Sender      *Party          `json:"sender,omitempty"`
	Recipient   *Party          `json:"recipient,omitempty"`
	Timestamp   int64           `json:"timestamp,omitempty"`
	Message     *Message        `json:"message,omitempty"`
	MessageEdit json.RawMessage `json:"message_edit,omitempty"`
	Read        json.RawMessage `json:"read,omitempty"`
	Reaction    json.RawMessage `json:"reaction,omitempty"`
	Postback    json.RawMessage `json:"postback,omitempty"`
}

// Message is the message body of a messaging notification.
type Message struct {
	MID         string            `json:"mid,omitempty"`
	Text        string            `json:"text,omitempty"`
	IsEcho      bool              `json:"is_echo,omitempty"`
	Attachments []json.RawMessage `json:"attachments,omitempty"`
}

// Parse decodes the envelope of a raw webhook body.
func Parse(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, newError(ErrorMalformedPayload, "decode_body", err)
	}
	return p, nil
}
