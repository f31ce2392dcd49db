package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	go_imap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/docflowhq/docflow/interfaces"
	coreerrors "github.com/docflowhq/docflow/internal/errors"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
)

const (
	connectTimeout = 30 * time.Second
	fetchTimeout   = 60 * time.Second
	logoutTimeout  = 5 * time.Second

	processedFolderRoot = "Processed"
)

// MailboxConfig describes the IMAP endpoint the source reads from
type MailboxConfig struct {
	ID           string
	Server       string
	Port         int
	Username     string
	Password     string
	TLS          bool
	SourceFolder string
}

// ReplySender delivers acknowledgment replies back to the report sender
type ReplySender interface {
	SendReply(ctx context.Context, msg *models.InboundMessage, accepted bool) error
}

// MailSource implements interfaces.MailSource over a single IMAP mailbox
type MailSource struct {
	config      *MailboxConfig
	replySender ReplySender
	client      *client.Client
	clientMutex sync.Mutex
}

func NewMailSource(config *MailboxConfig, replySender ReplySender) interfaces.MailSource {
	return &MailSource{
		config:      config,
		replySender: replySender,
	}
}

// Connect establishes a connection to the IMAP server and logs in
func (s *MailSource) Connect(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailSource.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("mailbox.id", s.config.ID)
	span.SetTag("server", s.config.Server)

	serverAddr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: connectTimeout,
	}

	var c *client.Client
	var err error

	if s.config.TLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.Server,
		}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}

	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("connection error: %w", err)
	}

	c.Timeout = connectTimeout
	caps, err := c.Capability()
	if err != nil {
		c.Logout()
		err = fmt.Errorf("capability error: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	log.Printf("[%s] Server capabilities: %v", s.config.ID, caps)

	err = c.Login(s.config.Username, s.config.Password)
	if err != nil {
		c.Logout()
		err = fmt.Errorf("login error: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	// Reset timeout for normal operations
	c.Timeout = 0

	s.clientMutex.Lock()
	if s.client != nil {
		s.client.Timeout = logoutTimeout
		go s.client.Logout() // Ignore errors in a goroutine
	}
	s.client = c
	s.clientMutex.Unlock()

	log.Printf("[%s] Successfully connected to %s", s.config.ID, serverAddr)
	return nil
}

// FetchMessages loads up to limit messages from the source folder. Messages
// are fetched with BODY.PEEK so nothing is marked seen: fetching does not
// confirm receipt
func (s *MailSource) FetchMessages(ctx context.Context, limit int) ([]*models.InboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailSource.FetchMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("mailbox.id", s.config.ID)

	c, err := s.getClient()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	c.Timeout = connectTimeout
	mbox, err := c.Select(s.config.SourceFolder, false)
	c.Timeout = 0
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", coreerrors.ErrMailboxNotFound, s.config.SourceFolder, err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	log.Printf("[%s][%s] Selected folder - Messages: %d, Recent: %d, Unseen: %d",
		s.config.ID, s.config.SourceFolder, mbox.Messages, mbox.Recent, mbox.Unseen)

	if mbox.Messages == 0 {
		return nil, nil
	}

	from := uint32(1)
	to := mbox.Messages
	if limit > 0 && mbox.Messages > uint32(limit) {
		// Newest messages win when the mailbox exceeds the fetch cap
		from = mbox.Messages - uint32(limit) + 1
	}

	seqSet := new(go_imap.SeqSet)
	seqSet.AddRange(from, to)

	items := []go_imap.FetchItem{
		go_imap.FetchEnvelope,
		go_imap.FetchFlags,
		"BODY.PEEK[]",
		go_imap.FetchUid,
	}

	messages := make(chan *go_imap.Message, 10)
	done := make(chan error, 1)

	c.Timeout = fetchTimeout

	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var result []*models.InboundMessage
	for msg := range messages {
		inbound := s.buildInboundMessage(msg)
		if inbound != nil {
			result = append(result, inbound)
		}
	}

	c.Timeout = 0

	if err := <-done; err != nil {
		err = fmt.Errorf("error fetching messages: %w", err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogFields(tracingLog.Int("messages.fetched", len(result)))
	log.Printf("[%s][%s] Fetched %d messages", s.config.ID, s.config.SourceFolder, len(result))

	return result, nil
}

// Confirm acknowledges an accepted message: reply to the sender, then file
// the message under Processed/valid/<runDate>
func (s *MailSource) Confirm(ctx context.Context, msg *models.InboundMessage, runDate string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailSource.Confirm")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessageIdentity(span, msg.Identity)

	if s.replySender != nil {
		if err := s.replySender.SendReply(ctx, msg, true); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	folder := fmt.Sprintf("%s/valid/%s", processedFolderRoot, runDate)
	return s.moveMessage(ctx, msg, folder)
}

// NotifyRejected informs the sender that nothing was accepted and files the
// message under Processed/rejected/<runDate>
func (s *MailSource) NotifyRejected(ctx context.Context, msg *models.InboundMessage, runDate string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailSource.NotifyRejected")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessageIdentity(span, msg.Identity)

	if s.replySender != nil {
		if err := s.replySender.SendReply(ctx, msg, false); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	folder := fmt.Sprintf("%s/rejected/%s", processedFolderRoot, runDate)
	return s.moveMessage(ctx, msg, folder)
}

// Close logs out from the IMAP server
func (s *MailSource) Close() error {
	s.clientMutex.Lock()
	defer s.clientMutex.Unlock()

	if s.client == nil {
		return nil
	}

	s.client.Timeout = logoutTimeout
	err := s.client.Logout()
	s.client = nil
	if err != nil {
		log.Printf("[%s] Error during logout: %v", s.config.ID, err)
	}
	return err
}

func (s *MailSource) getClient() (*client.Client, error) {
	s.clientMutex.Lock()
	defer s.clientMutex.Unlock()

	if s.client == nil {
		return nil, errors.New("not connected")
	}

	// Perform a NOOP to check the connection is still alive
	if err := s.client.Noop(); err != nil {
		s.client = nil
		return nil, fmt.Errorf("connection health check failed: %w", err)
	}

	return s.client, nil
}

// buildInboundMessage converts a raw IMAP message into the pipeline's
// immutable InboundMessage, parsing MIME content with enmime
func (s *MailSource) buildInboundMessage(msg *go_imap.Message) *models.InboundMessage {
	if msg == nil || msg.Envelope == nil {
		return nil
	}

	inbound := &models.InboundMessage{
		MessageID:  utils.NormalizeMessageID(msg.Envelope.MessageId),
		ImapUID:    msg.Uid,
		Folder:     s.config.SourceFolder,
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}

	if len(msg.Envelope.From) > 0 {
		sender := msg.Envelope.From[0]
		inbound.Sender = sender.Address()
		inbound.SenderName = sender.PersonalName
	}

	inbound.Identity = utils.MessageIdentity(inbound.MessageID, inbound.Sender, inbound.ReceivedAt, inbound.Subject)

	raw := extractFullMessage(msg)
	if len(raw) > 0 {
		inbound.Attachments = parseAttachments(raw)
	}

	return inbound
}

// extractFullMessage pulls the entire message body literal out of the fetch
// response
func extractFullMessage(msg *go_imap.Message) []byte {
	var buf bytes.Buffer

	for section, literal := range msg.Body {
		if len(section.Path) == 0 && section.Specifier == go_imap.EntireSpecifier {
			data, err := io.ReadAll(literal)
			if err == nil {
				buf.Write(data)
				break
			}
		}
	}

	return buf.Bytes()
}

// parseAttachments extracts regular and inline attachments with enmime,
// preserving their order of appearance
func parseAttachments(messageData []byte) []*models.Attachment {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(messageData))
	if err != nil {
		return nil
	}

	var attachments []*models.Attachment

	for _, part := range envelope.Attachments {
		attachments = append(attachments, &models.Attachment{
			Filename:    part.FileName,
			ContentType: part.ContentType,
			Content:     part.Content,
		})
	}

	for _, part := range envelope.Inlines {
		// Inline parts without a filename are body content, not documents
		if part.FileName == "" {
			continue
		}
		attachments = append(attachments, &models.Attachment{
			Filename:    part.FileName,
			ContentType: part.ContentType,
			Content:     part.Content,
		})
	}

	return attachments
}

// moveMessage copies a message to the destination folder, creating it when
// missing, and expunges the original
func (s *MailSource) moveMessage(ctx context.Context, msg *models.InboundMessage, folder string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailSource.moveMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder.destination", folder)

	c, err := s.getClient()
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if err := s.ensureFolder(c, folder); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	c.Timeout = connectTimeout
	defer func() { c.Timeout = 0 }()

	if _, err := c.Select(s.config.SourceFolder, false); err != nil {
		err = fmt.Errorf("error selecting folder: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	seqSet := new(go_imap.SeqSet)
	seqSet.AddNum(msg.ImapUID)

	if err := c.UidCopy(seqSet, folder); err != nil {
		err = fmt.Errorf("error copying message to %s: %w", folder, err)
		tracing.TraceErr(span, err)
		return err
	}

	item := go_imap.FormatFlagsOp(go_imap.AddFlags, true)
	flags := []interface{}{go_imap.DeletedFlag}
	if err := c.UidStore(seqSet, item, flags, nil); err != nil {
		err = fmt.Errorf("error flagging message deleted: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	if err := c.Expunge(nil); err != nil {
		err = fmt.Errorf("error expunging folder: %w", err)
		tracing.TraceErr(span, err)
		return err
	}

	log.Printf("[%s] Moved message %s to %s", s.config.ID, msg.Identity, folder)
	return nil
}

// ensureFolder creates the destination folder unless it already exists
func (s *MailSource) ensureFolder(c *client.Client, folder string) error {
	c.Timeout = connectTimeout
	defer func() { c.Timeout = 0 }()

	mailboxes := make(chan *go_imap.MailboxInfo, 10)
	done := make(chan error, 1)

	go func() {
		done <- c.List("", folder, mailboxes)
	}()

	exists := false
	for m := range mailboxes {
		if strings.EqualFold(m.Name, folder) {
			exists = true
		}
	}

	if err := <-done; err != nil {
		return fmt.Errorf("error listing folders: %w", err)
	}

	if exists {
		return nil
	}

	if err := c.Create(folder); err != nil {
		return fmt.Errorf("error creating folder %s: %w", folder, err)
	}

	log.Printf("[%s] Created folder %s", s.config.ID, folder)
	return nil
}
