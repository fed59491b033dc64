package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"
)

// SMTPNotifier sends transactional emails over plain SMTP. Templates are
// parsed once at construction so a bad template fails startup, not an order.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	tmpl     *template.Template
}

func NewSMTP(host string, port int, username, password, from string) (*SMTPNotifier, error) {
	tmpl, err := template.New("emails").Funcs(template.FuncMap{
		"rand": func(v int64) string { return fmt.Sprintf("R%d", v) },
	}).Parse(emailTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &SMTPNotifier{
		host: host, port: port,
		username: username, password: password,
		from: from, tmpl: tmpl,
	}, nil
}

func (n *SMTPNotifier) SendOrderConfirmation(ctx context.Context, s Snapshot) error {
	subject := fmt.Sprintf("Order Confirmed - %s", s.OrderNumber)
	return n.send(ctx, s.CustomerEmail, subject, "order_confirmation", s)
}

func (n *SMTPNotifier) SendShippingNotification(ctx context.Context, s Snapshot) error {
	subject := fmt.Sprintf("Your order %s has shipped", s.OrderNumber)
	return n.send(ctx, s.CustomerEmail, subject, "order_shipped", s)
}

func (n *SMTPNotifier) SendDeliveryConfirmation(ctx context.Context, s Snapshot) error {
	subject := fmt.Sprintf("Your order %s was delivered", s.OrderNumber)
	return n.send(ctx, s.CustomerEmail, subject, "order_delivered", s)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, templateName string, s Snapshot) error {
	var body bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&body, templateName, s); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	opts := []mail.Option{
		mail.WithPort(n.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.username),
			mail.WithPassword(n.password))
	}
	c, err := mail.NewClient(n.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", templateName, to, err)
	}
	return nil
}
