package stt

import "bytes"

// BodyKind tags the rough shape of a response body before parsing.
type BodyKind int

const (
	BodyOpaque BodyKind = iota
	BodyJSON
	BodyHTML
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyHTML:
		return "html"
	default:
		return "opaque"
	}
}

// ClassifyBody sniffs the first non-space byte: '{' or '[' means JSON,
// '<' means an HTML error page. This is a deliberate, named policy so a
// misrouted endpoint is reported instead of being parsed as an empty
// transcription.
func ClassifyBody(body []byte) BodyKind {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return BodyOpaque
	}
	switch trimmed[0] {
	case '{', '[':
		return BodyJSON
	case '<':
		return BodyHTML
	default:
		return BodyOpaque
	}
}
