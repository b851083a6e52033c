package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one transcript file and the call identity derived from its name.
type Source struct {
	Path     string `json:"path"`
	CallID   string `json:"call_id"`
	Ticker   string `json:"ticker"`
	CallDate string `json:"call_date"`
}

// CallIDFromPath derives ticker and date from names like
// "2017-Aug-01-AAPL.txt": the last dash component is the ticker and the first
// three form the date. The call id is "TICKER_DATE".
func CallIDFromPath(path string) (callID, ticker, date string) {
	base := strings.TrimSuffix(filepath.Base(path), ".txt")
	parts := strings.Split(base, "-")
	ticker = parts[len(parts)-1]
	date = strings.Join(parts[:min(3, len(parts))], "-")
	return ticker + "_" + date, ticker, date
}

// Discover lists transcripts laid out as <root>/<TICKER>/<file>.txt, sorted by
// path. Alternate-stream files such as "x.txt:Zone.Identifier" do not match.
func Discover(root string) ([]Source, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("transcript root: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(root, "*", "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob transcripts: %w", err)
	}
	sort.Strings(matches)

	out := make([]Source, 0, len(matches))
	for _, p := range matches {
		out = append(out, NewSource(p))
	}
	return out, nil
}

// NewSource builds a Source for a single transcript path.
func NewSource(path string) Source {
	id, ticker, date := CallIDFromPath(path)
	return Source{Path: path, CallID: id, Ticker: ticker, CallDate: date}
}

// Load reads the transcript and segments it.
func (s Source) Load() ([]Utterance, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", s.Path, err)
	}
	return Segment(s.CallID, strings.ToValidUTF8(string(raw), "")), nil
}
