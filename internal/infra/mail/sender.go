package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var closerTemplate = template.Must(template.New("closer").Parse(`<p>שלום {{.CloserName}},</p>
{{if .Assigned}}<p>הליד <b>{{.LeadName}}</b> ({{.LeadPhone}}) הועבר אליך.</p>
{{else}}<p>הליד <b>{{.LeadName}}</b> ({{.LeadPhone}}) עבר לסטטוס <b>{{.Status}}</b>.</p>
{{end}}<p>מזהה ליד: {{.LeadID}}</p>
`))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) NotifyCloser(to string, n CloserNotification) error {
	m, err := s.buildMessage(to, n)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send smtp: %w", err)
	}
	return nil
}

func (s *EmailSender) buildMessage(to string, n CloserNotification) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := closerTemplate.Execute(&body, n); err != nil {
		return nil, fmt.Errorf("render closer template: %w", err)
	}

	subject := fmt.Sprintf("ליד %s: %s", n.LeadName, n.Status)
	if n.Assigned {
		subject = fmt.Sprintf("ליד חדש הועבר אליך: %s", n.LeadName)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())
	return m, nil
}
