// Package bpmn handles BPMN 2.0 XML documents: extracting them from
// assistant replies, generating fallback templates, and parsing them for
// structural checks.
package bpmn

import (
	"regexp"
	"strings"
)

// Sentinel markers the assistant is instructed to wrap diagram XML in.
const (
	StartMarker = "<BPMN_START>"
	EndMarker   = "<BPMN_END>"
)

// FallbackProse replaces the assistant text when no diagram could be
// extracted from the reply. The turn still completes; the user is asked to
// rephrase.
const FallbackProse = "Desculpe, não consegui gerar um diagrama BPMN válido. Tente reformular sua solicitação."

var markerRegion = regexp.MustCompile(`(?s)<BPMN_START>(.*?)<BPMN_END>`)

// Extraction is the result of splitting an assistant reply into prose and an
// optional embedded diagram.
type Extraction struct {
	Prose      string
	DiagramXML string
}

// HasDiagram returns true if a delimited diagram region was found.
func (e Extraction) HasDiagram() bool {
	return e.DiagramXML != ""
}

// Extract finds the first region delimited by the sentinel markers in reply.
// On a hit, DiagramXML is the trimmed interior and Prose is the reply with
// the whole marked region removed. On a miss, DiagramXML is empty and Prose
// is the fixed fallback message. A miss is a soft failure, not an error.
func Extract(reply string) Extraction {
	m := markerRegion.FindStringSubmatchIndex(reply)
	if m == nil {
		return Extraction{Prose: FallbackProse}
	}

	inner := reply[m[2]:m[3]]
	prose := reply[:m[0]] + reply[m[1]:]

	return Extraction{
		Prose:      strings.TrimSpace(prose),
		DiagramXML: strings.TrimSpace(inner),
	}
}
