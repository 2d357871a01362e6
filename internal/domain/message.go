package domain

// Message is a single entry of the club message feed as served by the backend.
// Sender and Timestamp are optional; absent values stay zero.
type Message struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
