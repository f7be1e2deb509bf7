package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	domain "github.com/phlcrny/Install-GitLabRunner/internal/domain/release"
	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
)

// Feed lists runner releases, newest first.
type Feed interface {
	List(ctx context.Context) ([]domain.Release, error)
}

// Client fetches releases from a paginated JSON feed.
type Client struct {
	// baseURL is the release feed endpoint.
	baseURL string
	// httpClient is used for all feed requests.
	httpClient *http.Client
}

const (
	// perPage is the page size requested from the feed.
	perPage = 100

	// maxPages bounds pagination so a misbehaving feed cannot loop forever.
	maxPages = 50
)

var errBadHTTPStatus = errors.New("unexpected http status")

// NewClient creates a feed client for the provided endpoint.
// The timeout bounds each page request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// List fetches every page of the feed and resolves release tags.
// Releases with malformed tags are excluded from the result with a warning;
// they must never become upgrade candidates.
func (c *Client) List(ctx context.Context) ([]domain.Release, error) {
	result := make([]domain.Release, 0, perPage)

	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch release feed page %d: %w", page, err)
		}

		if len(batch) == 0 {
			break
		}

		for _, r := range batch {
			if err := r.Resolve(); err != nil {
				logger.WarnKV(ctx, "Skipping release with malformed tag",
					"tag", r.TagName, "error", err)

				continue
			}

			result = append(result, r)
		}

		if len(batch) < perPage {
			break
		}
	}

	return result, nil
}

// fetchPage requests a single feed page and decodes its JSON body.
func (c *Client) fetchPage(ctx context.Context, page int) ([]domain.Release, error) {
	pageURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed URL: %w", err)
	}

	query := pageURL.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	pageURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", pageURL.String(), response.Status, errBadHTTPStatus)
	}

	var batch []domain.Release
	if err = json.NewDecoder(response.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode release feed: %w", err)
	}

	return batch, nil
}
