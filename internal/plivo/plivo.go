// Package plivo renders the call-routing XML returned to Plivo's answer webhook.
package plivo

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// FallbackMessage is spoken when the forwarding number is not dialable.
const FallbackMessage = "On-call phone is invalid. Please use on-call list"

// ContentType of the rendered document.
const ContentType = "text/xml"

var (
	nationalRx = regexp.MustCompile(`^[0-9]{10}$`)
	dialableRx = regexp.MustCompile(`^\+1[0-9]{10}$`)
)

// Action is what Plivo does with the call: a Dial or a Speak.
type Action interface {
	action()
}

// Dial forwards the call to Number (E.164).
type Dial struct {
	Number string
}

// Speak reads Text to the caller.
type Speak struct {
	Text string
}

func (Dial) action()  {}
func (Speak) action() {}

// Document is one routing response.
type Document struct {
	Action  Action
	Comment string // optional, rendered as an XML comment
}

type wireNumber struct {
	Number string `xml:"Number"`
}

type wireResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Dial    *wireNumber `xml:"Dial,omitempty"`
	Speak   *string     `xml:"Speak,omitempty"`
	Comment xml.Comment `xml:",comment"`
}

// Normalize prefixes a bare 10-digit number with +1; anything else is returned unchanged.
func Normalize(number string) string {
	if nationalRx.MatchString(number) {
		return "+1" + number
	}
	return number
}

// Dialable reports whether number is +1 followed by exactly 10 digits.
func Dialable(number string) bool {
	return dialableRx.MatchString(number)
}

// Route builds the document for the selected number. Numbers that are not
// dialable after normalization get the spoken fallback.
func Route(selected, debug string) Document {
	doc := Document{Action: Speak{Text: FallbackMessage}}
	if n := Normalize(selected); Dialable(n) {
		doc.Action = Dial{Number: n}
	}
	if debug != "" {
		doc.Comment = " <Debug>" + escapeText(debug) + "</Debug> "
	}
	return doc
}

// Render routes selected and serializes the result. It never fails.
func Render(selected, debug string) []byte {
	return Route(selected, debug).Marshal()
}

// Marshal serializes the document with an XML declaration.
func (d Document) Marshal() []byte {
	w := wireResponse{Comment: xml.Comment(safeComment(d.Comment))}
	switch a := d.Action.(type) {
	case Dial:
		if Dialable(a.Number) {
			w.Dial = &wireNumber{Number: a.Number}
		} else {
			w.Speak = strPtr(FallbackMessage)
		}
	case Speak:
		w.Speak = strPtr(a.Text)
	default:
		w.Speak = strPtr(FallbackMessage)
	}

	b, err := xml.Marshal(w)
	if err != nil {
		// Only the comment can make encoding fail; drop it rather than the routing.
		w.Comment = nil
		b, _ = xml.Marshal(w)
	}
	return append([]byte(xml.Header[:len(xml.Header)-1]), b...)
}

// escapeText escapes markup so the annotation stays inert inside the comment.
func escapeText(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// safeComment removes sequences encoding/xml refuses inside comments.
func safeComment(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return s
}

func strPtr(s string) *string { return &s }
