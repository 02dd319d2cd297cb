package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/cloudshift-ai/migbot/internal/index"
)

// WebConfig configures blog ingestion from a WordPress REST API feed.
type WebConfig struct {
	FeedURL      string
	PostsPerPage int
	MaxPages     int
	FetchDelay   time.Duration
	Chunking     ChunkConfig
}

// WebReader fetches and chunks blog content from a WordPress posts
// feed, paginating until a short page or the page cap.
type WebReader struct {
	cfg     WebConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// wpPost is the subset of the WordPress REST post payload we consume.
type wpPost struct {
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

// NewWebReader creates a blog ingestion adapter. An empty feed URL
// disables the adapter; Read returns no chunks.
func NewWebReader(cfg WebConfig, client *http.Client, logger *slog.Logger) *WebReader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.FetchDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &WebReader{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		logger:  logger,
	}
}

// Name implements index.Source.
func (r *WebReader) Name() string { return "web" }

// Read pages through the posts feed and produces one chunk sequence
// per post. Posts whose rendered content is empty fall back to
// readability extraction of the post page itself; posts that still
// yield nothing are skipped.
func (r *WebReader) Read(ctx context.Context) ([]index.Chunk, error) {
	if r.cfg.FeedURL == "" {
		return nil, nil
	}

	var chunks []index.Chunk
	for page := 1; page <= r.cfg.MaxPages; page++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		posts, last, err := r.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetching blog page %d: %w", page, err)
		}

		for _, post := range posts {
			text := r.postText(post)
			if text == "" {
				r.logger.Warn("skipping empty post", "link", post.Link)
				continue
			}
			source := post.Link
			if source == "" {
				source = "blog"
			}
			chunks = append(chunks, makeChunks(text, index.SourceTypeWeb, source, r.cfg.Chunking)...)
		}

		if last {
			break
		}
	}
	return chunks, nil
}

// fetchPage fetches one page of the feed. The bool return reports
// whether this was the last page: WordPress answers a short page at
// the end, and HTTP 400 when paging past it.
func (r *WebReader) fetchPage(ctx context.Context, page int) ([]wpPost, bool, error) {
	pageURL, err := r.pageURL(page)
	if err != nil {
		return nil, true, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, true, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest && page > 1 {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, true, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var posts []wpPost
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, true, fmt.Errorf("decoding posts: %w", err)
	}

	return posts, len(posts) < r.cfg.PostsPerPage, nil
}

func (r *WebReader) pageURL(page int) (string, error) {
	u, err := url.Parse(r.cfg.FeedURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(r.cfg.PostsPerPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// postText returns the plain text of a post, preferring the rendered
// feed content and falling back to readability extraction of the post
// page. Fallback failures are logged, not fatal.
func (r *WebReader) postText(post wpPost) string {
	text := stripHTML(post.Content.Rendered)
	if text != "" {
		return withTitle(post.Title.Rendered, text)
	}
	if post.Link == "" {
		return ""
	}

	article, err := readability.FromURL(post.Link, r.client.Timeout)
	if err != nil {
		r.logger.Warn("readability fallback failed", "link", post.Link, "error", err)
		return ""
	}
	return withTitle(post.Title.Rendered, strings.TrimSpace(article.TextContent))
}

func withTitle(renderedTitle, text string) string {
	title := stripHTML(renderedTitle)
	if title == "" {
		return text
	}
	return title + "\n\n" + text
}

// stripHTML converts rendered HTML to plain text, collapsing blank
// lines so paragraph splitting stays meaningful.
func stripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	var parts []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(parts, "\n\n")
}
