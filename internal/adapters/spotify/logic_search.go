package spotify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/observability"
)

// SearchByEmotion maps label to its query template and returns up to five
// matching tracks. No matches is an empty slice, not an error. Every failure
// wraps domain.ErrCatalogUnavailable.
func (c *Client) SearchByEmotion(ctx context.Context, label string) ([]domain.Track, error) {
	tracks, err := c.searchByEmotion(ctx, label)
	switch {
	case err != nil:
		c.metrics.ObserveCatalogSearch(observability.OutcomeError)
		return nil, fmt.Errorf("spotify adapter: %w: %w", domain.ErrCatalogUnavailable, err)
	case len(tracks) == 0:
		c.metrics.ObserveCatalogSearch(observability.OutcomeEmpty)
	default:
		c.metrics.ObserveCatalogSearch(observability.OutcomeOK)
	}
	return tracks, nil
}

func (c *Client) searchByEmotion(ctx context.Context, label string) ([]domain.Track, error) {
	if c.tokens == nil {
		return nil, errors.New("no token provider configured")
	}
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	searchURL, err := url.Parse(fmt.Sprintf("%s/search", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid search url: %w", err)
	}

	query := searchURL.Query()
	query.Set("q", domain.QueryFor(label))
	query.Set("type", "track")
	query.Set("limit", strconv.Itoa(c.limit))
	searchURL.RawQuery = query.Encode()

	log.Printf("DEBUG spotify adapter: search request URL: %s", searchURL.String()) // #nosec G706 -- URL is internally constructed from configured baseURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.tokens.(invalidator); ok {
			inv.Invalidate()
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	items, err := decodeSearch(resp.Body)
	if err != nil {
		return nil, err
	}
	return mapTracksToDomain(items), nil
}
