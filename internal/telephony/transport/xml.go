// Package transport renders provider call-control XML documents.
package transport

import (
	"fmt"
	"strings"

	"estate_crm_backend/internal/telephony/service"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// HangupXML is the safe degradation document: end the call cleanly.
const HangupXML = xmlHeader + `
<Response>
  <Hangup/>
</Response>`

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// AnswerXML renders the call-control document for an answer action.
func AnswerXML(action service.AnswerAction) string {
	switch a := action.(type) {
	case service.StreamAction:
		return fmt.Sprintf(xmlHeader+`
<Response>
  <Connect>
    <Stream url="%s"/>
  </Connect>
</Response>`, xmlEscaper.Replace(a.WSURL))
	case service.SpeakAction:
		return fmt.Sprintf(xmlHeader+`
<Response>
  <Say>%s</Say>
</Response>`, xmlEscaper.Replace(a.Text))
	default:
		return HangupXML
	}
}

// TransferXML renders the dial-out document for a transfer destination.
func TransferXML(destination string) string {
	return fmt.Sprintf(xmlHeader+`
<Response>
  <Dial>%s</Dial>
</Response>`, xmlEscaper.Replace(destination))
}
