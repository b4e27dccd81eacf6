package sources

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"necromancer/internal/core"
	"necromancer/internal/logger"
)

var (
	replyPrefix = regexp.MustCompile(`(?i)^((re|fwd?|aw|tr)\s*:\s*)+`)
	urlPattern  = regexp.MustCompile(`https?://[^\s<>"')\]|]+`)
)

// EmailSource searches Gmail for messages about finished work.
type EmailSource struct {
	enabled      bool
	auth         GoogleAuth
	maxEmails    int
	lookbackDays int
	now          func() time.Time
	// options overrides the OAuth client options; tests point it at a fake.
	options []option.ClientOption
	log     zerolog.Logger
}

// NewEmailSource creates a Gmail source.
func NewEmailSource(enabled bool, auth GoogleAuth, maxEmails, lookbackDays int) *EmailSource {
	if maxEmails <= 0 {
		maxEmails = 100
	}
	if lookbackDays <= 0 {
		lookbackDays = 365
	}
	return &EmailSource{
		enabled:      enabled,
		auth:         auth,
		maxEmails:    maxEmails,
		lookbackDays: lookbackDays,
		now:          time.Now,
		log:          logger.For("email"),
	}
}

func (s *EmailSource) Name() core.Source { return core.SourceEmail }

func (s *EmailSource) Ready() error {
	if !s.enabled {
		return fmt.Errorf("%w: disabled", ErrNotConfigured)
	}
	if s.options != nil {
		return nil
	}
	return s.auth.Ready()
}

// Query is the Gmail search used to find candidate messages.
func (s *EmailSource) Query() string {
	after := s.now().AddDate(0, 0, -s.lookbackDays).Format("2006/01/02")
	return fmt.Sprintf("after:%s (has:attachment OR subject:(project OR portfolio OR work OR design OR code OR article))", after)
}

func (s *EmailSource) Scrape(ctx context.Context) ([]core.Project, error) {
	opts := s.options
	if opts == nil {
		var err error
		if opts, err = s.auth.ClientOptions(ctx, GmailScope); err != nil {
			return nil, err
		}
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}

	list, err := svc.Users.Messages.List("me").Q(s.Query()).MaxResults(int64(s.maxEmails)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	projects := []core.Project{}
	for i, ref := range list.Messages {
		if i >= s.maxEmails {
			break
		}
		msg, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn().Err(err).Str("message_id", ref.Id).Msg("Skipping message")
			continue
		}
		if p, ok := messageToProject(msg); ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

// messageToProject keeps messages whose subject or text mention project work.
func messageToProject(msg *gmail.Message) (core.Project, bool) {
	if msg == nil || msg.Payload == nil {
		return core.Project{}, false
	}

	headers := make(map[string]string)
	for _, h := range msg.Payload.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}
	subject := headers["subject"]
	if subject == "" {
		subject = "Untitled"
	}

	plain, html, attachments := walkParts(msg.Payload)
	body := plain
	var links []string
	if html != "" {
		text, hrefs := htmlText(html)
		if body == "" {
			body = text
		}
		links = hrefs
	}
	if len(links) == 0 {
		links = urlPattern.FindAllString(body, -1)
	}

	if !looksLikeProject(subject + " " + msg.Snippet + " " + body) {
		return core.Project{}, false
	}

	description := msg.Snippet
	if description == "" {
		description = strings.Join(strings.Fields(body), " ")
	}

	p := core.Project{
		ID:          msg.Id,
		Title:       cleanSubject(subject),
		Description: truncate(description, 200),
		Tags:        []string{"email"},
		Links:       dedupe(links),
		Source:      core.SourceEmail,
		Date:        messageDate(headers["date"], msg.InternalDate),
		Metadata: map[string]string{
			"message_id": msg.Id,
			"subject":    subject,
		},
	}
	if from := headers["from"]; from != "" {
		p.Metadata["from"] = from
	}
	if len(attachments) > 0 {
		p.Metadata["attachments"] = strings.Join(attachments, ", ")
	}
	return p, true
}

func cleanSubject(subject string) string {
	subject = strings.TrimSpace(replyPrefix.ReplaceAllString(strings.TrimSpace(subject), ""))
	if subject == "" {
		subject = "Untitled"
	}
	return truncate(subject, 100)
}

func messageDate(header string, internalMillis int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t.UTC()
		}
	}
	if internalMillis > 0 {
		return time.UnixMilli(internalMillis).UTC()
	}
	return time.Time{}
}

// walkParts collects the first text/plain and text/html bodies and any
// attachment file names.
func walkParts(part *gmail.MessagePart) (plain, html string, attachments []string) {
	var walk func(p *gmail.MessagePart)
	walk = func(p *gmail.MessagePart) {
		if p == nil {
			return
		}
		if p.Filename != "" {
			attachments = append(attachments, p.Filename)
		} else if p.Body != nil && p.Body.Data != "" {
			switch {
			case strings.HasPrefix(p.MimeType, "text/plain") && plain == "":
				plain = decodeBody(p.Body.Data)
			case strings.HasPrefix(p.MimeType, "text/html") && html == "":
				html = decodeBody(p.Body.Data)
			}
		}
		for _, child := range p.Parts {
			walk(child)
		}
	}
	walk(part)
	return plain, html, attachments
}

func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

// htmlText flattens an HTML body to text and returns its outbound links.
func htmlText(content string) (string, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", nil
	}
	doc.Find("script, style, head").Remove()

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.HasPrefix(href, "http") {
			links = append(links, href)
		}
	})
	return strings.Join(strings.Fields(doc.Text()), " "), links
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
