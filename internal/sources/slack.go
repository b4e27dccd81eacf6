package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"necromancer/internal/core"
)

// DefaultSlackBaseURL is the Slack Web API root.
const DefaultSlackBaseURL = "https://slack.com/api"

const slackQuery = "project OR portfolio OR completed OR finished OR launched OR delivered"

var slackLink = regexp.MustCompile(`<(https?://[^>|]+)(?:\|[^>]*)?>`)

// SlackSource searches Slack messages announcing finished work.
type SlackSource struct {
	enabled     bool
	token       string
	userID      string
	maxMessages int
	baseURL     string
	client      *http.Client
}

// NewSlackSource creates a Slack source. An empty baseURL uses the public API.
func NewSlackSource(enabled bool, token, userID string, maxMessages int, baseURL string) *SlackSource {
	if maxMessages <= 0 {
		maxMessages = 100
	}
	if baseURL == "" {
		baseURL = DefaultSlackBaseURL
	}
	return &SlackSource{
		enabled:     enabled,
		token:       token,
		userID:      userID,
		maxMessages: maxMessages,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SlackSource) Name() core.Source { return core.SourceSlack }

func (s *SlackSource) Ready() error {
	if !s.enabled {
		return fmt.Errorf("%w: disabled", ErrNotConfigured)
	}
	if s.token == "" {
		return fmt.Errorf("%w: slack token not set", ErrNotConfigured)
	}
	return nil
}

type slackSearchResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages struct {
		Matches []slackMessage `json:"matches"`
	} `json:"messages"`
}

type slackMessage struct {
	Text      string `json:"text"`
	Username  string `json:"username"`
	TS        string `json:"ts"`
	Permalink string `json:"permalink"`
	Channel   struct {
		Name string `json:"name"`
	} `json:"channel"`
}

func (s *SlackSource) Scrape(ctx context.Context) ([]core.Project, error) {
	query := slackQuery
	if s.userID != "" {
		query = fmt.Sprintf("from:<@%s> (%s)", s.userID, slackQuery)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("count", strconv.Itoa(s.maxMessages))
	params.Set("sort", "timestamp")
	params.Set("sort_dir", "desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.messages?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	var body slackSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode slack response: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("slack error: %s", body.Error)
	}

	projects := []core.Project{}
	for i, msg := range body.Messages.Matches {
		if i >= s.maxMessages {
			break
		}
		if p, ok := slackToProject(msg); ok {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func slackToProject(msg slackMessage) (core.Project, bool) {
	text := strings.TrimSpace(msg.Text)
	if len(text) < 20 || !looksLikeProject(text) {
		return core.Project{}, false
	}

	username := msg.Username
	if username == "" {
		username = "unknown"
	}

	p := core.Project{
		Title:       slackTitle(text),
		Description: truncate(text, 300),
		Tags:        []string{"slack", username},
		Links:       slackLinks(text),
		Source:      core.SourceSlack,
		Date:        slackTime(msg.TS),
		Metadata: map[string]string{
			"username": username,
		},
	}
	if msg.Channel.Name != "" {
		p.Metadata["channel"] = msg.Channel.Name
	}
	if msg.Permalink != "" {
		p.Metadata["permalink"] = msg.Permalink
	}
	return p, true
}

// slackTitle takes the first line, or its first sentence when the line runs
// long.
func slackTitle(text string) string {
	line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if len(line) > 80 {
		line = strings.TrimSpace(strings.SplitN(line, ".", 2)[0])
	}
	line = slackLink.ReplaceAllString(line, "$1")
	if line == "" {
		return "Slack Discussion"
	}
	return truncate(line, 60)
}

func slackLinks(text string) []string {
	var links []string
	for _, m := range slackLink.FindAllStringSubmatch(text, -1) {
		links = append(links, m[1])
	}
	links = append(links, urlPattern.FindAllString(text, -1)...)
	return dedupe(links)
}

// slackTime parses message timestamps like "1712345678.000200".
func slackTime(ts string) time.Time {
	secs, err := strconv.ParseFloat(ts, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	whole := int64(secs)
	return time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC()
}
