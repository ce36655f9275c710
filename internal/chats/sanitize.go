package chats

import (
	"fmt"
	"strings"
)

// ExtractedTextMarker labels document text folded into a message's content.
// DocumentText scans for the same marker to recombine the folded segments.
const ExtractedTextMarker = "[PDF EXTRACTED TEXT]:"

const pdfContentType = "application/pdf"

// FoldPDFAttachments appends each message's PDF-extracted text to its
// content under the marker and detaches the PDF attachments, keeping
// non-PDF attachments in place.
func FoldPDFAttachments(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, msg := range messages {
		var extracted []string
		var kept []Attachment
		for _, att := range msg.Attachments {
			if att.ContentType == pdfContentType {
				extracted = append(extracted, att.ExtractedText)
				continue
			}
			kept = append(kept, att)
		}
		if len(extracted) > 0 {
			msg.Content += fmt.Sprintf("\n\n%s\n%s", ExtractedTextMarker, strings.Join(extracted, "\n"))
		}
		msg.Attachments = kept
		out[i] = msg
	}
	return out
}

// DocumentText recombines marked segments across all messages into one
// aggregate blob. A non-empty result makes this a document-extraction turn.
func DocumentText(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if !strings.Contains(msg.Content, ExtractedTextMarker) {
			continue
		}
		parts := strings.SplitN(msg.Content, ExtractedTextMarker, 2)
		if len(parts) > 1 {
			b.WriteString(strings.TrimSpace(parts[1]))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RejectedError reports which disallowed-category keyword matched.
type RejectedError struct {
	Keyword string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("the uploaded file appears to be a %s, which is not allowed", e.Keyword)
}

// CheckRejected scans extracted text for disallowed document categories,
// case-insensitively. A match rejects the request before any model call.
func CheckRejected(text string, keywords []string) error {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return &RejectedError{Keyword: kw}
		}
	}
	return nil
}
