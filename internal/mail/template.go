package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// OTPSubject is the subject line of login code emails.
const OTPSubject = "Your Login Code"

var otpHTML = htmltemplate.Must(htmltemplate.New("otp_html").Parse(`
<h2>Your Login Code</h2>
<p>Your one-time login code is:</p>
<h1 style="font-size: 32px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</h1>
<p>This code will expire in {{.Minutes}} minutes.</p>
<p>If you didn't request this code, please ignore this email.</p>
`))

var otpText = texttemplate.Must(texttemplate.New("otp_text").Parse(`Your one-time login code is: {{.Code}}

This code will expire in {{.Minutes}} minutes.
If you didn't request this code, please ignore this email.
`))

type otpData struct {
	Code    string
	Minutes int
}

// NewOTPMessage renders the login code email for to.
func NewOTPMessage(to, code string, ttl time.Duration) (Message, error) {
	data := otpData{Code: code, Minutes: int(ttl / time.Minute)}

	var html, text bytes.Buffer
	if err := otpHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render otp html: %w", err)
	}
	if err := otpText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render otp text: %w", err)
	}

	return Message{
		To:       []string{to},
		Subject:  OTPSubject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
