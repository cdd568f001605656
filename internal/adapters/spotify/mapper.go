package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a clean Domain track.
func mapTrackToDomain(ft spotify.FullTrack) domain.Track {
	// 1. Flatten Artists (List -> String)
	artistNames := make([]string, 0, len(ft.Artists))
	for _, a := range ft.Artists {
		artistNames = append(artistNames, a.Name)
	}

	// 2. Extract Album Cover
	coverURL := ""
	if len(ft.Album.Images) > 0 {
		coverURL = ft.Album.Images[0].URL
	}

	return domain.Track{
		ID:       string(ft.ID),
		Name:     ft.Name,
		Artist:   strings.Join(artistNames, ", "),
		Album:    ft.Album.Name,
		CoverURL: coverURL,
	}
}

func mapTracksToDomain(items []spotify.FullTrack) []domain.Track {
	tracks := make([]domain.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, mapTrackToDomain(item))
	}
	return tracks
}
