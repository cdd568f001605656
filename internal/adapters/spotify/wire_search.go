package spotify

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/zmb3/spotify/v2"
)

// decodeSearch reads a /search response body. A response without a tracks
// page yields no items.
func decodeSearch(r io.Reader) ([]spotify.FullTrack, error) {
	var result spotify.SearchResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("search decode error: %w", err)
	}
	if result.Tracks == nil {
		return nil, nil
	}
	return result.Tracks.Tracks, nil
}
