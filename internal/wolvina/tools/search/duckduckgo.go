package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const duckDuckGoUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DuckDuckGoClient scrapes the keyless DuckDuckGo HTML endpoint.
type DuckDuckGoClient struct {
	endpoint string
	client   *http.Client
}

func NewDuckDuckGoClient(endpoint string, timeout time.Duration) *DuckDuckGoClient {
	if endpoint == "" {
		endpoint = "https://html.duckduckgo.com/html/"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DuckDuckGoClient{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

func (c *DuckDuckGoClient) Name() string { return "duckduckgo" }

func (c *DuckDuckGoClient) Search(ctx context.Context, req Request) (*Response, error) {
	form := url.Values{"q": {req.Query}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create duckduckgo request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", duckDuckGoUserAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "duckduckgo request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("duckduckgo returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse duckduckgo html")
	}

	out := &Response{Query: req.Query}
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if req.MaxResults > 0 && len(out.Results) >= req.MaxResults {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDuckDuckGoLink(href)
		if target == "" {
			return true
		}
		out.Results = append(out.Results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Content: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			Source:  c.Name(),
		})
		return true
	})
	return out, nil
}

// resolveDuckDuckGoLink unwraps "//duckduckgo.com/l/?uddg=<target>" redirects.
func resolveDuckDuckGoLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
