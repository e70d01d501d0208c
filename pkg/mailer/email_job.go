package mailer

import "fmt"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// HTML is optional; Text is recommended as fallback.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// NewWelcomeJob builds the welcome email queued after a successful signup.
func NewWelcomeJob(to, name, role string) EmailJob {
	return EmailJob{
		To:      to,
		Subject: "Welcome to Digital Guardian",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour %s account is ready. Sign in, pick your avatar and start earning points.\n\nStay safe out there,\nThe Digital Guardian team\n",
			name, role),
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Your <strong>%s</strong> account is ready. Sign in, pick your avatar and start earning points.</p><p>Stay safe out there,<br>The Digital Guardian team</p>`,
			name, role),
	}
}
