package metabrainz

// Recording is a single MusicBrainz recording search hit.
type Recording struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Score  int    `json:"score"`
	Length int    `json:"length"`

	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
}

// Features holds the acoustic descriptors pulled from AcousticBrainz.
//
// A nil field means the service did not report it.
type Features struct {
	Danceability *string  // highlevel.danceability
	Genre        *string  // highlevel.genre_rosamerica
	Gender       *string  // highlevel.gender
	Mood         *string  // highlevel.mood_aggressive
	Instrumental *string  // highlevel.voice_instrumental
	MoodHappy    *string  // highlevel.mood_happy
	BPM          *float64 // rhythm.bpm
	Key          *string  // tonal.key_key
	Loudness     *float64 // lowlevel.average_loudness
}

// Empty reports whether no descriptor was found at all.
func (f *Features) Empty() bool {
	return f == nil || (f.Danceability == nil && f.Genre == nil && f.Gender == nil &&
		f.Mood == nil && f.Instrumental == nil && f.MoodHappy == nil &&
		f.BPM == nil && f.Key == nil && f.Loudness == nil)
}

type recordingSearchResponse struct {
	Count      int         `json:"count"`
	Recordings []Recording `json:"recordings"`
}

// classifier is one high-level model output, e.g. {"value": "danceable", "probability": 0.9}.
type classifier struct {
	Value       *string  `json:"value"`
	Probability *float64 `json:"probability"`
}

type highLevel struct {
	Danceability      classifier `json:"danceability"`
	GenreRosamerica   classifier `json:"genre_rosamerica"`
	Gender            classifier `json:"gender"`
	MoodAggressive    classifier `json:"mood_aggressive"`
	VoiceInstrumental classifier `json:"voice_instrumental"`
	MoodHappy         classifier `json:"mood_happy"`
}

type highLevelDocument struct {
	HighLevel highLevel `json:"highlevel"`
}

type lowLevelDocument struct {
	Rhythm struct {
		BPM *float64 `json:"bpm"`
	} `json:"rhythm"`
	Tonal struct {
		Key *string `json:"key_key"`
	} `json:"tonal"`
	LowLevel struct {
		AverageLoudness *float64 `json:"average_loudness"`
	} `json:"lowlevel"`
}

// combinedDocument carries both levels in one payload.
type combinedDocument struct {
	highLevelDocument
	lowLevelDocument
}
