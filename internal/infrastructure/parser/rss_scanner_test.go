package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SMMAgent/internal/config"
	"SMMAgent/internal/infrastructure/httpclient"
	"SMMAgent/internal/scanner"
)

const trendsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Daily Search Trends</title>
<link>https://trends.google.com/trends/trendingsearches/daily?geo=UZ</link>
<item><title><![CDATA[Uzbekistan vs Iran]]></title></item>
<item><title><![CDATA[Navruz 2026]]></title></item>
<item><title>Tashkent weather</title></item>
<item><title>See https://example.com</title></item>
<item><title>abc</title></item>
<item><title>Tashkent weather</title></item>
</channel></rss>`

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title><![CDATA[Pixie UZ - Telegram Channel]]></title>
<item>
<title><![CDATA[Autumn sale starts today]]></title>
<description><![CDATA[<p>Up to <b>50%</b> off</p><img src="x.jpg">]]></description>
</item>
<item>
<title>https://t.me/pixie_uz/100</title>
<description><![CDATA[Plain text post]]></description>
</item>
</channel></rss>`

func fastClient() *httpclient.Client {
	return httpclient.New(httpclient.Options{Timeout: time.Second, MaxRetries: 0, BaseDelay: time.Millisecond})
}

func TestParseHeadlines(t *testing.T) {
	t.Parallel()

	got := parseHeadlines(trendsFeed)
	want := []string{"Uzbekistan vs Iran", "Navruz 2026", "Daily Search Trends", "Tashkent weather"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected headlines %q", got)
	}
}

func TestParseHeadlinesCapsPlainTitles(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "<item><title>Headline number %d</title></item>", i)
	}
	if got := parseHeadlines(b.String()); len(got) != maxPlainHeadlines {
		t.Fatalf("expected %d headlines, got %d", maxPlainHeadlines, len(got))
	}
}

func TestParseChannelPosts(t *testing.T) {
	t.Parallel()

	items := parseChannelPosts(channelFeed, "pixie_uz", maxChannelPosts)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if items[0].Title != "Pixie UZ - Telegram Channel" || items[1].Title != "Autumn sale starts today" {
		t.Fatalf("unexpected titles %+v", items)
	}
	if items[0].Description != "Up to 50% off" {
		t.Fatalf("html not stripped: %q", items[0].Description)
	}
	if items[1].Source != "pixie_uz" {
		t.Fatalf("source not set: %+v", items[1])
	}
}

func TestParseChannelPostsTruncatesDescriptions(t *testing.T) {
	t.Parallel()

	body := "<title><![CDATA[A long enough title]]></title><description><![CDATA[" + strings.Repeat("я", 300) + "]]></description>"
	items := parseChannelPosts(body, "x", 1)
	if len(items) != 1 || len([]rune(items[0].Description)) != maxDescription {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestScannersFetchOverHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "SMM-Agent") {
			t.Errorf("missing user agent")
		}
		_, _ = io.WriteString(w, trendsFeed)
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Timeout: time.Second, UserAgent: userAgent})
	items, err := NewHeadlinesScanner(client).Scan(context.Background(), scanner.Request{
		FeedName: "google-trends",
		Endpoint: scanner.Endpoint{Name: "UZ", URL: srv.URL},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 4 || items[0].Source != "UZ" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestStrategySourceIsolatesEndpointFailures(t *testing.T) {
	t.Parallel()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, channelFeed)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer broken.Close()

	reg := scanner.NewRegistry(NewHeadlinesScanner(fastClient()), NewChannelScanner(fastClient()))
	feeds := []config.FeedConfig{
		{Name: "telegram", Group: config.GroupCompetitors, Scanner: ChannelScannerName, Endpoints: []config.EndpointConfig{
			{Name: "pixie_uz", URL: ok.URL},
			{Name: "telecom_uz", URL: broken.URL},
		}},
		{Name: "trends", Group: config.GroupTrends, Scanner: HeadlinesScannerName, Endpoints: []config.EndpointConfig{
			{Name: "vc.ru", URL: broken.URL},
		}},
	}
	src := NewStrategySource(reg, feeds, nil)

	items, err := src.FetchGroup(context.Background(), config.GroupCompetitors)
	if err != nil {
		t.Fatalf("FetchGroup: %v", err)
	}
	if len(items) != 2 || items[0].Source != "pixie_uz" {
		t.Fatalf("unexpected items %+v", items)
	}

	if _, err := src.FetchGroup(context.Background(), config.GroupTrends); err == nil {
		t.Fatal("expected error when every endpoint failed")
	}
	if _, err := src.FetchGroup(context.Background(), "unknown"); err == nil {
		t.Fatal("expected error for an empty group")
	}
}

func TestStrategySourceUnknownScanner(t *testing.T) {
	t.Parallel()

	src := NewStrategySource(scanner.NewRegistry(), []config.FeedConfig{
		{Name: "x", Group: "g", Scanner: "atom", Endpoints: []config.EndpointConfig{{Name: "a", URL: "http://localhost"}}},
	}, nil)
	if _, err := src.FetchGroup(context.Background(), "g"); err == nil {
		t.Fatal("expected unknown scanner error")
	}
}
