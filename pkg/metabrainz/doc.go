// Package metabrainz provides a client library for two MetaBrainz web
// services: the MusicBrainz recording search and the AcousticBrainz
// acoustic descriptor API.
//
// # Overview
//
// Both services are public, unauthenticated JSON APIs that ask every
// client to identify itself with a meaningful User-Agent including
// contact details. NewClient refuses to build a client without one.
//
// # Recording lookups
//
// MusicBrainz identifies recordings by MBID, a UUID. LookupMBID runs a
// Lucene query of the form
//
//	recording:"<song>" AND artist:"<artist>"
//
// and returns the id of the top hit:
//
//	mbid, err := client.Recordings().LookupMBID(ctx, "Sugar, Sugar", "The Archies")
//	if errors.Is(err, metabrainz.ErrNoMatch) {
//	    // nothing found, not worth retrying
//	}
//
// # Acoustic features
//
// FeatureService.Get returns the high-level classifier values
// (danceability, genre, gender, moods, voice/instrumental) and a few
// low-level descriptors (BPM, key, average loudness):
//
//	f, err := client.Features().Get(ctx, mbid)
//	if err != nil {
//	    return err
//	}
//	if f.MoodHappy != nil {
//	    fmt.Println(*f.MoodHappy)
//	}
//
// # Retries
//
// Every request is retried up to Config.MaxRetries times with exponential
// backoff starting at one second and capped at thirty, on network
// errors, 429 and 5xx responses. A Retry-After header overrides the
// computed delay. The package does not throttle; callers are expected to
// pace requests themselves (MusicBrainz allows about one per second).
//
// # Errors
//
// Non-200 responses surface as *Error. Use errors.Is with ErrNotFound,
// ErrNoMatch and ErrInvalidMBID for the definitive cases, and
// IsTemporary to decide whether a failure is worth retrying later.
package metabrainz
