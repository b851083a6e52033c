package orchestrator

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

const (
	UtterancesFile = "utterances.jsonl"
	ScoredFile     = "utterances_scored.jsonl"
	PairsFile      = "qa_pairs.jsonl"
	PairsCSVFile   = "qa_pairs.csv"
	ManifestFile   = "manifest.json"
)

func mkRunDir(outputsRoot string, now time.Time) (string, error) {
	dir := filepath.Join(outputsRoot, "run_"+now.Format("20060102-150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONL writes one JSON object per line, creating parent directories.
func WriteJSONL[T any](path string, recs []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range recs {
		if err := enc.Encode(recs[i]); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSONL reads records written by WriteJSONL. Blank lines are skipped.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

var pairsHeader = []string{
	"call_id", "q_order", "a_order", "n_answers",
	"q_polarity", "a_polarity", "qa_delta",
	"q_len", "a_len", "len_ratio",
	"q_unc", "a_unc", "unc_delta",
	"q_num", "a_num", "num_delta",
	"answer_speaker_role", "q_text", "a_text",
}

// WritePairsCSV writes pairs as CSV with a header row.
func WritePairsCSV(path string, pairs []features.QAPair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write(pairsHeader)
	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, p := range pairs {
		_ = w.Write([]string{
			p.CallID, strconv.Itoa(p.QOrder), strconv.Itoa(p.AOrder), strconv.Itoa(p.NAnswers),
			ff(p.QPolarity), ff(p.APolarity), ff(p.QADelta),
			strconv.Itoa(p.QLen), strconv.Itoa(p.ALen), ff(p.LenRatio),
			ff(p.QUnc), ff(p.AUnc), ff(p.UncDelta),
			ff(p.QNum), ff(p.ANum), ff(p.NumDelta),
			string(p.AnswerSpeakerRole), p.QText, p.AText,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

type bundle struct {
	utts   []transcript.Utterance
	scored []features.ScoredUtterance
	pairs  []features.QAPair
}

// persist writes every output of a run into dir and lists them in m.Files.
func persist(dir string, b bundle, m *Manifest) error {
	steps := []struct {
		name  string
		write func(string) error
	}{
		{UtterancesFile, func(p string) error { return WriteJSONL(p, b.utts) }},
		{ScoredFile, func(p string) error { return WriteJSONL(p, b.scored) }},
		{PairsFile, func(p string) error { return WriteJSONL(p, b.pairs) }},
		{PairsCSVFile, func(p string) error { return WritePairsCSV(p, b.pairs) }},
	}
	for _, s := range steps {
		if err := s.write(filepath.Join(dir, s.name)); err != nil {
			return fmt.Errorf("persist %s: %w", s.name, err)
		}
		m.Files = append(m.Files, s.name)
	}
	m.Files = append(m.Files, ManifestFile)
	if err := writeJSON(filepath.Join(dir, ManifestFile), m); err != nil {
		return fmt.Errorf("persist %s: %w", ManifestFile, err)
	}
	return nil
}
