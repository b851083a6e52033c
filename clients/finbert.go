package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/sentiment"
)

// --- FinBERT (/score) ---
type ScoreReq struct {
	Text      string `json:"text"`
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens"`
	Stride    int    `json:"stride"`
	BatchSize int    `json:"batch_size"`
}

type ScoreResp struct {
	Scores    map[string]float64 `json:"scores"`
	SentScore float64            `json:"sent_score"`
}

func (h *HTTP) Score(ctx context.Context, url string, req ScoreReq) (*ScoreResp, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("finbert encode: %w", err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(url, "/")+"/score", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("finbert %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out ScoreResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("finbert decode: %w", err)
	}
	return &out, nil
}

// FinBERTOptions mirrors the chunking knobs of the inference service.
type FinBERTOptions struct {
	Model     string
	MaxTokens int
	Stride    int
	BatchSize int
}

// FinBERT is a sentiment.Scorer backed by the FinBERT inference service.
type FinBERT struct {
	http *HTTP
	url  string
	opts FinBERTOptions
}

func NewFinBERT(h *HTTP, url string, opts FinBERTOptions) *FinBERT {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 256
	}
	if opts.Stride <= 0 {
		opts.Stride = 64
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	return &FinBERT{http: h, url: url, opts: opts}
}

// ScoreText scores text remotely. Blank text is answered locally with the
// zero distribution. The returned distribution is renormalised to sum to 1
// and polarity is derived from it as positive minus negative.
func (f *FinBERT) ScoreText(ctx context.Context, text string) (sentiment.Distribution, float64, error) {
	if sentiment.Blank(text) {
		return sentiment.Distribution{}, 0, nil
	}
	resp, err := f.http.Score(ctx, f.url, ScoreReq{
		Text:      text,
		Model:     f.opts.Model,
		MaxTokens: f.opts.MaxTokens,
		Stride:    f.opts.Stride,
		BatchSize: f.opts.BatchSize,
	})
	if err != nil {
		return sentiment.Distribution{}, 0, err
	}
	d := sentiment.Distribution{
		Negative: resp.Scores[sentiment.LabelNegative],
		Neutral:  resp.Scores[sentiment.LabelNeutral],
		Positive: resp.Scores[sentiment.LabelPositive],
	}
	if d.Negative < 0 || d.Neutral < 0 || d.Positive < 0 {
		return sentiment.Distribution{}, 0, fmt.Errorf("finbert: negative probability in %+v", d)
	}
	sum := d.Sum()
	if sum <= 0 {
		return sentiment.Distribution{}, 0, fmt.Errorf("finbert: %w", ErrEmptyResponse)
	}
	d.Negative /= sum
	d.Neutral /= sum
	d.Positive /= sum
	return d, d.Polarity(), nil
}
