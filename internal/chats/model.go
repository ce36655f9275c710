package chats

import "time"

// Chat is one conversation owned by a user.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment rides on a message. PDF attachments exist only until their
// extracted text is folded into the message content; image attachments pass
// through unchanged.
type Attachment struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	ContentType   string `json:"contentType"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// Message is one conversational entry. Append-only within a chat.
type Message struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}
