package domain

import "fmt"

const embedURLFormat = "https://open.spotify.com/embed/track/%s"

// Track represents a catalog track in the domain layer.
type Track struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"` // artist names joined with ", "
	Album    string `json:"album,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
}

// EmbedURL returns the URL of the catalog's embeddable player for the track.
func (t Track) EmbedURL() string {
	if t.ID == "" {
		return ""
	}
	return fmt.Sprintf(embedURLFormat, t.ID)
}
