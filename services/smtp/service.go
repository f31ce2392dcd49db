package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
)

// SMTPConfig describes the outbound server used for acknowledgment replies
type SMTPConfig struct {
	Server      string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromDomain  string
	Security    enum.EmailSecurity
}

// SMTPClient sends acknowledgment replies to report senders
type SMTPClient struct {
	config *SMTPConfig
}

func NewSMTPClient(config *SMTPConfig) *SMTPClient {
	return &SMTPClient{
		config: config,
	}
}

// SendReply sends an acknowledgment for a processed message. accepted selects
// between the accepted and rejected reply bodies
func (s *SMTPClient) SendReply(ctx context.Context, msg *models.InboundMessage, accepted bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPClient.SendReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessageIdentity(span, msg.Identity)
	span.SetTag("reply.accepted", accepted)

	if msg.Sender == "" {
		err := errors.New("message has no sender address")
		tracing.TraceErr(span, err)
		return err
	}

	buffer, err := s.prepareMessage(ctx, msg, accepted)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	err = s.sendToServer(ctx, s.config.FromAddress, []string{msg.Sender}, buffer)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// prepareMessage builds the reply in proper MIME format
func (s *SMTPClient) prepareMessage(ctx context.Context, msg *models.InboundMessage, accepted bool) (*bytes.Buffer, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPClient.prepareMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	buffer := bytes.NewBuffer(nil)

	headers := s.buildHeaders(msg, accepted)
	tracing.LogObjectAsJson(span, "headers", headers)

	writeHeaders(headers, buffer)

	_, err := buffer.WriteString(renderReplyBody(accepted, utils.Now()))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return buffer, nil
}

func (s *SMTPClient) buildHeaders(msg *models.InboundMessage, accepted bool) []headerField {
	subject := acceptedReplySubjectPrefix + msg.Subject

	headers := []headerField{
		{"From", s.config.FromAddress},
		{"To", msg.Sender},
		{"Subject", subject},
		{"Date", utils.Now().Format("Mon, 02 Jan 2006 15:04:05 -0700")},
		{"Message-ID", utils.GenerateMessageID(s.config.FromDomain, "")},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	if msg.MessageID != "" {
		headers = append(headers,
			headerField{"In-Reply-To", "<" + msg.MessageID + ">"},
			headerField{"References", "<" + msg.MessageID + ">"},
		)
	}

	return headers
}

type headerField struct {
	Name  string
	Value string
}

// writeHeaders writes email headers to the buffer in order
func writeHeaders(headers []headerField, buffer *bytes.Buffer) {
	for _, h := range headers {
		buffer.WriteString(fmt.Sprintf("%s: %s\r\n", h.Name, h.Value))
	}
	buffer.WriteString("\r\n")
}

// sendToServer sends the prepared reply to the SMTP server
func (s *SMTPClient) sendToServer(ctx context.Context, from string, recipients []string, buffer *bytes.Buffer) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPClient.sendToServer")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Server)

	switch s.config.Security {
	case enum.EmailSecurityTLS:
		return s.sendWithExplicitTLS(ctx, addr, auth, from, recipients, buffer)
	case enum.EmailSecurityStartTLS:
		return s.sendWithSTARTTLS(ctx, addr, auth, from, recipients, buffer)
	}

	// Standard SMTP (may use STARTTLS if server supports it)
	err := smtp.SendMail(addr, auth, from, recipients, buffer.Bytes())
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *SMTPClient) sendWithSTARTTLS(ctx context.Context, addr string, auth smtp.Auth, from string, recipients []string, buffer *bytes.Buffer) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPClient.sendWithSTARTTLS")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("smtp_server", s.config.Server)
	span.LogKV("smtp_port", s.config.Port)
	span.LogKV("from_address", from)

	// Connect to the server without TLS first
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		err = fmt.Errorf("failed to connect to SMTP server: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Server)
	if err != nil {
		err = fmt.Errorf("failed to create SMTP client: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName: s.config.Server,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		err = fmt.Errorf("failed to start TLS: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	// Authenticate after TLS is established
	if err = client.Auth(auth); err != nil {
		err = fmt.Errorf("SMTP authentication failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return s.transmit(span, client, from, recipients, buffer)
}

// sendWithExplicitTLS sends a reply over an implicit TLS connection
func (s *SMTPClient) sendWithExplicitTLS(ctx context.Context, addr string, auth smtp.Auth, from string, recipients []string, buffer *bytes.Buffer) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPClient.sendWithExplicitTLS")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("address", addr)

	tlsConfig := &tls.Config{
		ServerName: s.config.Server,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		err = fmt.Errorf("failed to connect to SMTP server: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Server)
	if err != nil {
		err = fmt.Errorf("failed to create SMTP client: %w", err)
		tracing.TraceErr(span, err)
		return err
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		err = fmt.Errorf("SMTP authentication failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return s.transmit(span, client, from, recipients, buffer)
}

func (s *SMTPClient) transmit(span opentracing.Span, client *smtp.Client, from string, recipients []string, buffer *bytes.Buffer) error {
	if err := client.Mail(from); err != nil {
		err = fmt.Errorf("SMTP MAIL command failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			err = fmt.Errorf("SMTP RCPT command failed for %s: %w", recipient, err)
			tracing.TraceErr(span, err)
			return err
		}
	}

	dataWriter, err := client.Data()
	if err != nil {
		err = fmt.Errorf("SMTP DATA command failed: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	_, err = dataWriter.Write(buffer.Bytes())
	if err != nil {
		err = fmt.Errorf("failed to write email data: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	err = dataWriter.Close()
	if err != nil {
		err = fmt.Errorf("failed to close data writer: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	return client.Quit()
}
