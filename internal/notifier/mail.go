package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MailConfig holds the SMTP settings of a MailNotifier
type MailConfig struct {
	Host          string
	Port          int
	Account       string
	Password      string
	Sender        string // envelope and From address
	SenderName    string
	SendTo        []string
	RetryInterval time.Duration
	MaxRetries    uint64
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailNotifier sends HTML mail through an SMTP server, retrying failed attempts at a
// fixed interval
type MailNotifier struct {
	cfg  MailConfig
	send sendFunc
	now  func() time.Time
}

// NewMailNotifier creates a mail notifier
func NewMailNotifier(cfg MailConfig) (*MailNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 25
	}
	if _, err := mail.ParseAddress(cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.Sender, err)
	}
	if len(cfg.SendTo) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	for _, to := range cfg.SendTo {
		if _, err := mail.ParseAddress(to); err != nil {
			return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
		}
	}

	return &MailNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
		now:  time.Now,
	}, nil
}

// Notify sends the message. A failed attempt is retried after RetryInterval, up to
// MaxRetries times, unless ctx is done first.
func (n *MailNotifier) Notify(ctx context.Context, msg Message) error {
	body := n.compose(msg)
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	var auth smtp.Auth
	if n.cfg.Account != "" {
		auth = smtp.PlainAuth("", n.cfg.Account, n.cfg.Password, n.cfg.Host)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(n.cfg.RetryInterval), n.cfg.MaxRetries),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return n.send(addr, auth, n.cfg.Sender, n.cfg.SendTo, body)
	}, policy)
	if err != nil {
		return fmt.Errorf("sending mail after %d attempt(s): %w", attempt, err)
	}
	return nil
}

// compose renders an RFC 5322 message. The HTML body is used when present, the plain
// text otherwise.
func (n *MailNotifier) compose(msg Message) []byte {
	from := mail.Address{Name: n.cfg.SenderName, Address: n.cfg.Sender}

	contentType := "text/plain; charset=UTF-8"
	content := msg.Text
	if msg.HTML != "" {
		contentType = "text/html; charset=UTF-8"
		content = msg.HTML
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(n.cfg.SendTo, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	return buf.Bytes()
}
