package plivo

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dialDoc  = `<?xml version="1.0" encoding="UTF-8"?><Response><Dial><Number>+14155551234</Number></Dial></Response>`
	speakDoc = `<?xml version="1.0" encoding="UTF-8"?><Response><Speak>On-call phone is invalid. Please use on-call list</Speak></Response>`
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		want     string
	}{
		{name: "bare national number", selected: "4155551234", want: dialDoc},
		{name: "already prefixed", selected: "+14155551234", want: dialDoc},
		{name: "too short", selected: "123", want: speakDoc},
		{name: "empty", selected: "", want: speakDoc},
		{name: "eleven digits", selected: "14155551234", want: speakDoc},
		{name: "twelve digits", selected: "999999999999", want: speakDoc},
		{name: "formatted", selected: "(415) 555-1234", want: speakDoc},
		{name: "other country code", selected: "+444155551234", want: speakDoc},
		{name: "prefix without plus", selected: "+4155551234", want: speakDoc},
		{name: "unicode digits", selected: "٤١٥٥٥٥١٢٣٤", want: speakDoc},
		{name: "trailing newline", selected: "4155551234\n", want: speakDoc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Render(tt.selected, "")))
		})
	}
}

func TestRenderDebugAnnotation(t *testing.T) {
	for _, selected := range []string{"4155551234", "123"} {
		plain := string(Render(selected, ""))
		annotated := string(Render(selected, "call-uuid=abc"))

		assert.Contains(t, annotated, "<!-- <Debug>call-uuid=abc</Debug> -->")
		stripped := strings.Replace(annotated, "<!-- <Debug>call-uuid=abc</Debug> -->", "", 1)
		assert.Equal(t, plain, stripped, "annotation must not change routing content")
	}
}

func TestRenderHostileAnnotation(t *testing.T) {
	hostile := []string{
		"--><Dial><Number>+19005550000</Number></Dial><!--",
		"---",
		"-",
		"<Hangup/>",
		"a\nb",
	}
	for _, debug := range hostile {
		out := Render("123", debug)

		var parsed struct {
			XMLName xml.Name `xml:"Response"`
			Dial    *struct {
				Number string `xml:"Number"`
			} `xml:"Dial"`
			Speak  string `xml:"Speak"`
			Hangup *struct{} `xml:"Hangup"`
		}
		require.NoError(t, xml.Unmarshal(out, &parsed), "debug %q produced %s", debug, out)
		assert.Nil(t, parsed.Dial, "debug %q must never dial", debug)
		assert.Nil(t, parsed.Hangup)
		assert.Equal(t, FallbackMessage, parsed.Speak)
	}
}

func TestMarshalEnforcesDialable(t *testing.T) {
	doc := Document{Action: Dial{Number: "12345"}}
	assert.Equal(t, speakDoc, string(doc.Marshal()))

	assert.Equal(t, speakDoc, string(Document{}.Marshal()))
}

func TestRoute(t *testing.T) {
	assert.Equal(t, Dial{Number: "+12065550000"}, Route("2065550000", "").Action)
	assert.Equal(t, Speak{Text: FallbackMessage}, Route("x", "").Action)
	assert.Equal(t, " <Debug>a&lt;b</Debug> ", Route("x", "a<b").Comment)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "+14155551234", Normalize("4155551234"))
	assert.Equal(t, "+14155551234", Normalize("+14155551234"))
	assert.Equal(t, "123", Normalize("123"))
	assert.Equal(t, "", Normalize(""))
	assert.True(t, Dialable("+14155551234"))
	assert.False(t, Dialable("4155551234"))
}
