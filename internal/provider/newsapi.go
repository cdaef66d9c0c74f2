package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"btc-news-timeline/internal/domain"
	"btc-news-timeline/internal/sentiment"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	newsAPIBaseURL   = "https://newsapi.org/v2"
	cryptoSearchTerm = "bitcoin"
	cryptoWindow     = 24 * time.Hour
	apiKeyParam      = "apiKey"
	redactedValue    = "REDACTED"
)

var truncationMarker = regexp.MustCompile(`\s\[\+\d+\schars\]$`)

// NewsAPISource is one NewsAPI variant: global top headlines or the crypto keyword search.
type NewsAPISource struct {
	sourceType domain.SourceType
	endpoint   string
	apiKey     string
	fixed      map[string]string
	window     time.Duration

	client  *resty.Client
	tracer  trace.Tracer
	limiter *RateLimiter
	now     func() time.Time
}

// NewGlobalNewsSource returns the general-headlines variant filtered to US English news.
func NewGlobalNewsSource(tracer trace.Tracer, baseURL, apiKey string, timeout time.Duration) *NewsAPISource {
	return newNewsAPISource(tracer, domain.SourceGlobal, joinURL(baseURL, "top-headlines"), apiKey, map[string]string{
		"language": "en",
		"country":  "us",
	}, 0, timeout)
}

// NewCryptoNewsSource returns the "bitcoin" search variant over a sliding 24h window.
func NewCryptoNewsSource(tracer trace.Tracer, baseURL, apiKey string, timeout time.Duration) *NewsAPISource {
	return newNewsAPISource(tracer, domain.SourceCrypto, joinURL(baseURL, "everything"), apiKey, map[string]string{
		"language": "en",
		"q":        cryptoSearchTerm,
		"sortBy":   "popularity",
	}, cryptoWindow, timeout)
}

func newNewsAPISource(
	tracer trace.Tracer,
	sourceType domain.SourceType,
	endpoint string,
	apiKey string,
	fixed map[string]string,
	window time.Duration,
	timeout time.Duration,
) *NewsAPISource {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	return &NewsAPISource{
		sourceType: sourceType,
		endpoint:   endpoint,
		apiKey:     apiKey,
		fixed:      fixed,
		window:     window,
		client:     client,
		tracer:     tracer,
		limiter:    newsAPILimiter,
		now:        time.Now,
	}
}

func joinURL(baseURL, path string) string {
	if baseURL == "" {
		baseURL = newsAPIBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + path
}

func (s *NewsAPISource) SourceType() domain.SourceType { return s.sourceType }

func (s *NewsAPISource) Endpoint() string { return s.endpoint }

// BaseQueryParams returns a fresh copy of the fixed parameters, plus the date window when the
// variant has one.
func (s *NewsAPISource) BaseQueryParams(now time.Time) map[string]string {
	params := make(map[string]string, len(s.fixed)+3)
	for k, v := range s.fixed {
		params[k] = v
	}
	params[apiKeyParam] = s.apiKey
	if s.window > 0 {
		now = now.UTC()
		params["from"] = now.Add(-s.window).Format(time.RFC3339)
		params["to"] = now.Format(time.RFC3339)
	}
	return params
}

type newsAPIEnvelope struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// FetchPage requests one page of pageSize articles and returns those whose titles are not in
// existing, normalized and tagged with priceID.
func (s *NewsAPISource) FetchPage(ctx context.Context, pageSize int, existing domain.TitleSet, priceID int64) ([]domain.NewsRecord, error) {
	ctx, span := s.tracer.Start(ctx, "newsapi.fetch-page")
	defer span.End()
	span.SetAttributes(
		attribute.String("source_type", string(s.sourceType)),
		attribute.Int("page_size", pageSize),
	)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, domain.NewIngestionError(domain.KindFetch, "rate limit wait", err)
	}
	span.SetAttributes(attribute.Int("rate_limit_remaining", s.limiter.Available()))

	params := s.BaseQueryParams(s.now())
	params["pageSize"] = strconv.Itoa(pageSize)

	var envelope, failure newsAPIEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(&envelope).
		SetError(&failure).
		Get(s.endpoint)
	if err != nil {
		return nil, domain.NewIngestionError(domain.KindFetch, fmt.Sprintf("%s news request", s.sourceType), redactURLError(err))
	}
	if !resp.IsSuccess() {
		detail := failure.Message
		if detail == "" {
			detail = strings.TrimSpace(string(resp.Body()))
		}
		return nil, domain.NewIngestionError(domain.KindFetch,
			fmt.Sprintf("%s news request returned %d %s: %s", s.sourceType, resp.StatusCode(), failure.Code, detail), nil)
	}
	if envelope.Status != "ok" {
		return nil, domain.NewIngestionError(domain.KindUpstreamAPI,
			fmt.Sprintf("%s news status %q code=%s: %s", s.sourceType, envelope.Status, envelope.Code, envelope.Message), nil)
	}

	records := make([]domain.NewsRecord, 0, len(envelope.Articles))
	for _, a := range envelope.Articles {
		if a.Title == "" || existing.Contains(a.Title) {
			continue
		}
		records = append(records, s.normalize(a, priceID))
	}
	span.SetAttributes(attribute.Int("articles", len(envelope.Articles)), attribute.Int("unseen", len(records)))
	return records, nil
}

func (s *NewsAPISource) normalize(a newsAPIArticle, priceID int64) domain.NewsRecord {
	content := TrimTruncationMarker(a.Content)
	publishedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(a.PublishedAt))
	if err != nil {
		publishedAt = s.now()
	}
	return domain.NewsRecord{
		PriceID:     priceID,
		Title:       a.Title,
		Content:     content,
		Description: a.Description,
		Source:      a.Source.Name,
		URL:         a.URL,
		Timestamp:   publishedAt.UTC(),
		Sentiment:   sentiment.Classify(sentiment.ArticleText(a.Title, a.Description, content)),
		SourceType:  s.sourceType,
	}
}

// redactURLError masks the API key in the request URL that net/http embeds in transport errors.
func redactURLError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	redacted := &url.Error{Op: uerr.Op, URL: redactedValue, Err: uerr.Err}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		q := u.Query()
		if q.Has(apiKeyParam) {
			q.Set(apiKeyParam, redactedValue)
		}
		u.RawQuery = q.Encode()
		redacted.URL = u.String()
	}
	return redacted
}

// TrimTruncationMarker removes a trailing " [+N chars]" marker from article content.
func TrimTruncationMarker(content string) string {
	return truncationMarker.ReplaceAllString(content, "")
}
