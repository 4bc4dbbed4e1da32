package mailer

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Sender delivers account mail. Handlers depend on this interface so tests
// can record sends without an SMTP server.
type Sender interface {
	SendVerification(email, token string) error
	SendOTP(email, otp string) error
}

type SMTP struct {
	host string
	port int
	user string
	pass string
}

func NewSMTP() *SMTP {
	host := os.Getenv("MAIL_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}

	port := 465
	if p, err := strconv.Atoi(os.Getenv("MAIL_PORT")); err == nil && p > 0 {
		port = p
	}

	return &SMTP{
		host: host,
		port: port,
		user: os.Getenv("MAIL_USER"),
		pass: os.Getenv("MAIL_PASS"),
	}
}

func (s *SMTP) SendVerification(email, token string) error {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:5173"
	}
	link := frontend + "/verify-email?token=" + url.QueryEscape(token)

	body := fmt.Sprintf(`<p>Welcome to LabelLens!</p>
<p>Click the link below to verify your email. The link is valid for 10 minutes.</p>
<p><a href="%s">Verify your email</a></p>`, link)

	return s.send(email, "Verify your email", "text/html", body)
}

func (s *SMTP) SendOTP(email, otp string) error {
	body := fmt.Sprintf("Your OTP code is: %s. It is valid for 10 minutes.", otp)
	return s.send(email, "Password reset OTP Code", "text/plain", body)
}

func (s *SMTP) send(to, subject, contentType, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("LabelLens <%s>", s.user))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody(contentType, body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	return d.DialAndSend(m)
}
