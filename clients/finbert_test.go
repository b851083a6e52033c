package clients

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newScoreServer(t *testing.T, handler func(w http.ResponseWriter, req ScoreReq)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/score" {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			http.Error(w, "bad content type "+ct, http.StatusBadRequest)
			return
		}
		var req ScoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFinBERTScoreText(t *testing.T) {
	var got ScoreReq
	srv, _ := newScoreServer(t, func(w http.ResponseWriter, req ScoreReq) {
		got = req
		_ = json.NewEncoder(w).Encode(ScoreResp{
			Scores:    map[string]float64{"negative": 0.1, "neutral": 0.3, "positive": 0.6},
			SentScore: 0.5,
		})
	})

	f := NewFinBERT(NewHTTP(time.Second), srv.URL+"/", FinBERTOptions{Model: "ProsusAI/finbert"})
	d, pol, err := f.ScoreText(context.Background(), "Revenue grew nicely.")
	if err != nil {
		t.Fatalf("ScoreText error: %v", err)
	}
	if got.Text != "Revenue grew nicely." || got.MaxTokens != 256 || got.Stride != 64 || got.BatchSize != 16 || got.Model != "ProsusAI/finbert" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if math.Abs(d.Positive-0.6) > 1e-9 || math.Abs(d.Negative-0.1) > 1e-9 {
		t.Fatalf("distribution = %+v", d)
	}
	if math.Abs(pol-(d.Positive-d.Negative)) > 1e-12 {
		t.Fatalf("polarity = %v, want pos-neg", pol)
	}
}

func TestFinBERTNormalisesDistribution(t *testing.T) {
	srv, _ := newScoreServer(t, func(w http.ResponseWriter, req ScoreReq) {
		_ = json.NewEncoder(w).Encode(ScoreResp{Scores: map[string]float64{"negative": 1, "neutral": 1, "positive": 2}})
	})
	d, _, err := NewFinBERT(NewHTTP(0), srv.URL, FinBERTOptions{}).ScoreText(context.Background(), "x")
	if err != nil {
		t.Fatalf("ScoreText error: %v", err)
	}
	if math.Abs(d.Sum()-1) > 1e-9 || math.Abs(d.Positive-0.5) > 1e-9 {
		t.Fatalf("distribution = %+v, want normalised", d)
	}
}

func TestFinBERTBlankTextSkipsRequest(t *testing.T) {
	srv, calls := newScoreServer(t, func(w http.ResponseWriter, req ScoreReq) {
		t.Error("service should not be called for blank text")
	})
	d, pol, err := NewFinBERT(NewHTTP(0), srv.URL, FinBERTOptions{}).ScoreText(context.Background(), "  \n ")
	if err != nil || d.Sum() != 0 || pol != 0 {
		t.Fatalf("ScoreText(blank) = %+v, %v, %v", d, pol, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("service called %d times", calls.Load())
	}
}

func TestFinBERTErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, req ScoreReq)
		check   func(t *testing.T, err error)
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, req ScoreReq) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model not loaded") {
					t.Fatalf("error = %v, want status and body", err)
				}
			},
		},
		{
			name: "decode",
			handler: func(w http.ResponseWriter, req ScoreReq) {
				_, _ = w.Write([]byte("{not json"))
			},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "finbert decode") {
					t.Fatalf("error = %v, want decode error", err)
				}
			},
		},
		{
			name: "empty scores",
			handler: func(w http.ResponseWriter, req ScoreReq) {
				_, _ = w.Write([]byte(`{"scores":{}}`))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyResponse) {
					t.Fatalf("error = %v, want ErrEmptyResponse", err)
				}
			},
		},
		{
			name: "negative probability",
			handler: func(w http.ResponseWriter, req ScoreReq) {
				_, _ = w.Write([]byte(`{"scores":{"negative":-0.1,"neutral":0.5,"positive":0.6}}`))
			},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "negative probability") {
					t.Fatalf("error = %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newScoreServer(t, tt.handler)
			_, _, err := NewFinBERT(NewHTTP(0), srv.URL, FinBERTOptions{}).ScoreText(context.Background(), "text")
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestFinBERTUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	if _, _, err := NewFinBERT(NewHTTP(time.Second), url, FinBERTOptions{}).ScoreText(context.Background(), "text"); err == nil {
		t.Fatal("expected error when service is down")
	}
}
