package parser

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/infrastructure/httpclient"
	"SMMAgent/internal/scanner"
)

// Scanner names referenced from config.
const (
	HeadlinesScannerName = "rss-headlines"
	ChannelScannerName   = "rss-channel"
)

const (
	userAgent         = "Mozilla/5.0 (compatible; SMM-Agent/1.0)"
	maxPlainHeadlines = 15
	maxChannelPosts   = 8
	maxDescription    = 200
)

var (
	headlineCDATA = regexp.MustCompile(`<title><!\[CDATA\[([^\]]+)\]\]></title>`)
	headlinePlain = regexp.MustCompile(`<title>([^<]{5,100})</title>`)

	channelCDATA = regexp.MustCompile(`<title><!\[CDATA\[([^\]]{10,200})\]\]>`)
	channelPlain = regexp.MustCompile(`<title>([^<]{10,150})</title>`)
	channelDesc  = regexp.MustCompile(`(?s)<description><!\[CDATA\[(.+?)\]\]></description>`)
)

// NewFeedClient returns the HTTP client feeds are fetched with.
func NewFeedClient() *httpclient.Client {
	opts := httpclient.DefaultOptions()
	opts.UserAgent = userAgent
	return httpclient.New(opts)
}

// HeadlinesScanner extracts item titles from trend feeds such as Google Trends or vc.ru.
type HeadlinesScanner struct {
	client *httpclient.Client
}

// NewHeadlinesScanner wires an HTTP client; nil uses NewFeedClient.
func NewHeadlinesScanner(client *httpclient.Client) *HeadlinesScanner {
	if client == nil {
		client = NewFeedClient()
	}
	return &HeadlinesScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *HeadlinesScanner) Name() string { return HeadlinesScannerName }

// Scan fetches the endpoint and returns its headlines.
func (s *HeadlinesScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedItem, error) {
	body, err := fetch(ctx, s.client, req.Endpoint)
	if err != nil {
		return nil, err
	}

	titles := parseHeadlines(body)
	items := make([]domain.FeedItem, 0, len(titles))
	for _, title := range titles {
		items = append(items, domain.FeedItem{Title: title, Source: req.Endpoint.Name})
	}
	return items, nil
}

// ChannelScanner extracts posts with descriptions from channel feeds (rsshub Telegram mirrors).
type ChannelScanner struct {
	client *httpclient.Client
}

// NewChannelScanner wires an HTTP client; nil uses NewFeedClient.
func NewChannelScanner(client *httpclient.Client) *ChannelScanner {
	if client == nil {
		client = NewFeedClient()
	}
	return &ChannelScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *ChannelScanner) Name() string { return ChannelScannerName }

// Scan fetches the endpoint and returns its latest posts. Option "limit"
// overrides the default post count.
func (s *ChannelScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedItem, error) {
	body, err := fetch(ctx, s.client, req.Endpoint)
	if err != nil {
		return nil, err
	}

	limit := maxChannelPosts
	if v, err := strconv.Atoi(req.Options["limit"]); err == nil && v > 0 {
		limit = v
	}
	return parseChannelPosts(body, req.Endpoint.Name, limit), nil
}

func fetch(ctx context.Context, client *httpclient.Client, ep scanner.Endpoint) (string, error) {
	if ep.URL == "" {
		return "", fmt.Errorf("endpoint %s has no url", ep.Name)
	}
	resp, err := client.Get(ctx, ep.URL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", ep.Name, err)
	}
	return string(resp.Body), nil
}

// parseHeadlines returns CDATA titles followed by at most 15 plain titles, de-duplicated.
func parseHeadlines(body string) []string {
	var titles []string
	for _, m := range headlineCDATA.FindAllStringSubmatch(body, -1) {
		titles = append(titles, m[1])
	}

	plain := 0
	for _, m := range headlinePlain.FindAllStringSubmatch(body, -1) {
		t := strings.TrimSpace(m[1])
		if strings.Contains(t, "http") || strings.Contains(t, "<?") {
			continue
		}
		if plain == maxPlainHeadlines {
			break
		}
		titles = append(titles, t)
		plain++
	}

	return dedupe(titles)
}

func parseChannelPosts(body, source string, limit int) []domain.FeedItem {
	var titles []string
	for _, m := range channelCDATA.FindAllStringSubmatch(body, -1) {
		titles = append(titles, m[1])
	}
	for _, m := range channelPlain.FindAllStringSubmatch(body, -1) {
		t := strings.TrimSpace(m[1])
		if strings.HasPrefix(t, "http") || strings.Contains(t, "<?") {
			continue
		}
		titles = append(titles, t)
	}
	titles = dedupe(titles)
	if len(titles) > limit {
		titles = titles[:limit]
	}

	var descs []string
	for _, m := range channelDesc.FindAllStringSubmatch(body, -1) {
		descs = append(descs, truncate(stripHTML(m[1]), maxDescription))
	}

	items := make([]domain.FeedItem, 0, len(titles))
	for i, t := range titles {
		item := domain.FeedItem{Title: t, Source: source}
		if i < len(descs) {
			item.Description = descs[i]
		}
		items = append(items, item)
	}
	return items
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
