package gemini

// Request/response shapes for the generateContent endpoint. Only the
// fields this service sends or reads are modeled.

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

// content is a content block with a role ("user" or "model") and parts.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

// inlineData carries base64-encoded media for vision requests.
type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}
