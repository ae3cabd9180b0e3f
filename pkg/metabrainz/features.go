package metabrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// FeatureService provides AcousticBrainz descriptor lookups.
type FeatureService struct {
	client *Client
}

// Get fetches the acoustic features for a recording.
//
// The combined document is tried first. If it is unavailable the
// high-level and low-level documents are requested separately and merged;
// the call only fails when both of them fail. When one of them fails with
// a temporary error the partial features are returned together with that
// error, so callers can use them without treating them as final.
func (s *FeatureService) Get(ctx context.Context, mbid string) (*Features, error) {
	if !ValidMBID(mbid) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMBID, mbid)
	}

	base := s.client.acousticBrainzURL + "/" + url.PathEscape(mbid)

	body, err := s.client.get(ctx, base, nil)
	if err == nil {
		var doc combinedDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("metabrainz: failed to parse features for %s: %w", mbid, err)
		}
		f := &Features{}
		f.applyHighLevel(doc.HighLevel)
		f.applyLowLevel(doc.lowLevelDocument)
		return f, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.client.logDebugf("metabrainz: combined document for %s unavailable, falling back: %v", mbid, err)

	f := &Features{}

	hlBody, hlErr := s.client.get(ctx, base+"/high-level", nil)
	if hlErr == nil {
		var doc highLevelDocument
		if err := json.Unmarshal(hlBody, &doc); err != nil {
			hlErr = fmt.Errorf("metabrainz: failed to parse high-level for %s: %w", mbid, err)
		} else {
			f.applyHighLevel(doc.HighLevel)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	llBody, llErr := s.client.get(ctx, base+"/low-level", nil)
	if llErr == nil {
		var doc lowLevelDocument
		if err := json.Unmarshal(llBody, &doc); err != nil {
			llErr = fmt.Errorf("metabrainz: failed to parse low-level for %s: %w", mbid, err)
		} else {
			f.applyLowLevel(doc)
		}
	}

	if hlErr != nil && llErr != nil {
		if IsTemporary(llErr) && !IsTemporary(hlErr) {
			return nil, llErr
		}
		return nil, hlErr
	}

	for _, err := range []error{hlErr, llErr} {
		if IsTemporary(err) {
			return f, fmt.Errorf("metabrainz: partial features for %s: %w", mbid, err)
		}
	}

	return f, nil
}

func (f *Features) applyHighLevel(hl highLevel) {
	f.Danceability = hl.Danceability.Value
	f.Genre = hl.GenreRosamerica.Value
	f.Gender = hl.Gender.Value
	f.Mood = hl.MoodAggressive.Value
	f.Instrumental = hl.VoiceInstrumental.Value
	f.MoodHappy = hl.MoodHappy.Value
}

func (f *Features) applyLowLevel(ll lowLevelDocument) {
	f.BPM = ll.Rhythm.BPM
	f.Key = ll.Tonal.Key
	f.Loudness = ll.LowLevel.AverageLoudness
}
