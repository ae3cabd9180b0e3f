package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Columns is the CSV header, in order.
var Columns = []string{
	"song", "date", "artist", "this_week", "last_week", "peak_position", "weeks_on_chart",
	"mbid",
	"danceability", "genre", "gender", "mood", "instrumental", "bpm", "key", "loudness", "mood_happy",
}

// WriteCSV writes rows with a header line. Null values are empty cells.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		record := []string{
			r.Song,
			formatDate(r.Date),
			r.Artist,
			strconv.Itoa(r.ThisWeek),
			formatInt(r.LastWeek),
			strconv.Itoa(r.PeakPosition),
			strconv.Itoa(r.WeeksOnChart),
			r.MBID,
			formatString(r.Danceability),
			formatString(r.Genre),
			formatString(r.Gender),
			formatString(r.Mood),
			formatString(r.Instrumental),
			formatFloat(r.BPM),
			formatString(r.Key),
			formatFloat(r.Loudness),
			formatString(r.MoodHappy),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows written by WriteCSV. Columns are matched by header
// name; unknown columns are ignored and missing ones stay null.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, required := range []string{"song", "artist"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		p := recordParser{record: record, index: index}
		row := Row{
			Song:         p.str("song"),
			Date:         p.date("date"),
			Artist:       p.str("artist"),
			ThisWeek:     p.integer("this_week"),
			LastWeek:     p.optInt("last_week"),
			PeakPosition: p.integer("peak_position"),
			WeeksOnChart: p.integer("weeks_on_chart"),
			MBID:         p.str("mbid"),
			Features: Features{
				Danceability: p.optStr("danceability"),
				Genre:        p.optStr("genre"),
				Gender:       p.optStr("gender"),
				Mood:         p.optStr("mood"),
				Instrumental: p.optStr("instrumental"),
				BPM:          p.optFloat("bpm"),
				Key:          p.optStr("key"),
				Loudness:     p.optFloat("loudness"),
				MoodHappy:    p.optStr("mood_happy"),
			},
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, p.err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// SaveFile writes rows to path atomically via temp file + rename.
func SaveFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	if err := WriteCSV(f, rows); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	return os.Rename(tmpPath, path)
}

// LoadFile reads rows from a CSV file.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// recordParser reads typed cells out of one record and keeps the first error.
type recordParser struct {
	record []string
	index  map[string]int
	err    error
}

func (p *recordParser) str(col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(p.record) {
		return ""
	}
	return p.record[i]
}

func (p *recordParser) optStr(col string) *string {
	v := p.str(col)
	if v == "" {
		return nil
	}
	return &v
}

func (p *recordParser) integer(col string) int {
	v := p.optInt(col)
	if v == nil {
		return 0
	}
	return *v
}

func (p *recordParser) optInt(col string) *int {
	v := p.str(col)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Dataframe tools write integer columns with nulls as floats.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			p.fail(col, err)
			return nil
		}
		n = int(f)
	}
	return &n
}

func (p *recordParser) optFloat(col string) *float64 {
	v := p.str(col)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(col, err)
		return nil
	}
	return &f
}

func (p *recordParser) date(col string) time.Time {
	v := p.str(col)
	if v == "" {
		return time.Time{}
	}
	if len(v) > len(dateLayout) {
		v = v[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		p.fail(col, err)
	}
	return t
}

func (p *recordParser) fail(col string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
