package metabrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// RecordingService provides MusicBrainz recording lookups.
type RecordingService struct {
	client *Client
}

// Search runs a recording search and returns up to limit hits, best first.
func (s *RecordingService) Search(ctx context.Context, song, artist string, limit int) ([]Recording, error) {
	if limit <= 0 {
		limit = 1
	}

	query := url.Values{}
	query.Set("query", buildRecordingQuery(song, artist))
	query.Set("fmt", "json")
	query.Set("limit", fmt.Sprintf("%d", limit))

	body, err := s.client.get(ctx, s.client.musicBrainzURL+"/recording/", query)
	if err != nil {
		return nil, err
	}

	var resp recordingSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("metabrainz: failed to parse recording search: %w", err)
	}

	return resp.Recordings, nil
}

// LookupMBID returns the MBID of the best recording match for song by artist.
//
// Returns ErrNoMatch when the search has no results and ErrInvalidMBID
// when the top hit does not carry a UUID.
func (s *RecordingService) LookupMBID(ctx context.Context, song, artist string) (string, error) {
	recordings, err := s.Search(ctx, song, artist, 1)
	if err != nil {
		return "", err
	}
	if len(recordings) == 0 {
		return "", ErrNoMatch
	}

	id := recordings[0].ID
	if !ValidMBID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMBID, id)
	}

	return id, nil
}

// ValidMBID reports whether id is a canonical 36 character UUID.
func ValidMBID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// buildRecordingQuery builds the Lucene query for a song/artist pair.
func buildRecordingQuery(song, artist string) string {
	return fmt.Sprintf(`recording:"%s" AND artist:"%s"`, escapePhrase(song), escapePhrase(artist))
}

// escapePhrase escapes the characters that would end a quoted Lucene phrase.
func escapePhrase(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(strings.TrimSpace(s))
}
