package transport

import (
	"strings"
	"testing"

	"estate_crm_backend/internal/telephony/service"
)

func TestAnswerXMLStream(t *testing.T) {
	doc := AnswerXML(service.StreamAction{WSURL: "wss://voice.example.com/streams/sid-1"})
	if !strings.Contains(doc, `<Stream url="wss://voice.example.com/streams/sid-1"/>`) {
		t.Errorf("missing stream element:\n%s", doc)
	}
	if !strings.HasPrefix(doc, `<?xml version="1.0"`) {
		t.Error("missing XML declaration")
	}
}

func TestAnswerXMLSpeakEscapes(t *testing.T) {
	doc := AnswerXML(service.SpeakAction{Text: `Offers <50% & "limited">`})
	if strings.Contains(doc, "<50%") {
		t.Errorf("unescaped text in document:\n%s", doc)
	}
	if !strings.Contains(doc, "&lt;50% &amp; &quot;limited&quot;&gt;") {
		t.Errorf("expected escaped text:\n%s", doc)
	}
}

func TestTransferXML(t *testing.T) {
	doc := TransferXML("+919812345678")
	if !strings.Contains(doc, "<Dial>+919812345678</Dial>") {
		t.Errorf("missing dial element:\n%s", doc)
	}
}

func TestHangupXML(t *testing.T) {
	if !strings.Contains(HangupXML, "<Hangup/>") {
		t.Error("hangup document must hang up")
	}
}
