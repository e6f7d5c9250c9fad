package report

import (
	"bytes"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

const (
	report_notify_send = "notify.send"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

// Notifier mails the run summary to a fixed list of recipients.
type Notifier struct {
	config SmtpConfig
	tel    telemetry.API
}

func NewNotifier(config SmtpConfig, tel telemetry.API) Notifier {
	return Notifier{
		config: config,
		tel:    telemetry.NewScopedAPI("report", tel),
	}
}

func (n Notifier) send(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	return err
}

// Notify mails the summary of a run.
func (n Notifier) Notify(series covid.Series, charts []PublishedChart) error {
	if !n.config.Enabled() {
		return nil
	}

	var body bytes.Buffer
	Summary(&body, series, charts)

	subject := "Covid curve"
	if last, ok := series.Last(); ok {
		subject = fmt.Sprintf("Covid curve %s", last.Date.Format(covid.DateLayout))
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Covid curve <%s>", n.config.EmailAddress)
	mail.To = n.config.To
	mail.Subject = subject
	mail.Text = body.Bytes()

	err := n.send(mail)
	if err != nil {
		n.tel.ReportBroken(report_notify_send, err)
		return err
	}
	return nil
}
