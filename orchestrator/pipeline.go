// Package orchestrator runs the transcript pipeline end to end: discover
// transcripts, segment, score, pair, then persist the records of the run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cfg "github.com/ravinpandey/ecalls-ar-sentiment-mvp/config"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/observe"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/sentiment"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

// Sink receives the records of each call after scoring and pairing.
type Sink interface {
	SaveCall(ctx context.Context, src transcript.Source, recs []features.ScoredUtterance) error
	SavePairs(ctx context.Context, pairs []features.QAPair) error
}

type Pipeline struct {
	cfg     *cfg.Root
	scorer  sentiment.Scorer
	sink    Sink
	log     logrus.FieldLogger
	metrics *observe.Metrics
	now     func() time.Time
}

type Option func(*Pipeline)

// WithSink stores every call in s in addition to the run directory.
func WithSink(s Sink) Option { return func(p *Pipeline) { p.sink = s } }

func WithMetrics(m *observe.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

func NewPipeline(c *cfg.Root, s sentiment.Scorer, log logrus.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     c,
		scorer:  s,
		log:     log,
		metrics: observe.DefaultMetrics(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.scorer = p.instrument(s)
	return p
}

func (p *Pipeline) instrument(s sentiment.Scorer) sentiment.Scorer {
	provider := p.cfg.Sentiment.Provider
	return sentiment.ScorerFunc(func(ctx context.Context, text string) (sentiment.Distribution, float64, error) {
		start := time.Now()
		d, pol, err := s.ScoreText(ctx, text)
		p.metrics.RecordScore(ctx, provider, time.Since(start), err)
		return d, pol, err
	})
}

// Segment loads and segments every source, in source order.
func (p *Pipeline) Segment(ctx context.Context, srcs []transcript.Source) ([]transcript.Utterance, []CallSummary, error) {
	var all []transcript.Utterance
	calls := make([]CallSummary, 0, len(srcs))
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		utts, err := src.Load()
		if err != nil {
			return nil, nil, err
		}
		qa := countQA(utts)
		p.metrics.RecordSegment(ctx, len(utts)-qa, qa)
		p.log.WithFields(logrus.Fields{"call_id": src.CallID, "utterances": len(utts), "qa": qa}).Debug("segmented")
		calls = append(calls, CallSummary{CallID: src.CallID, Path: src.Path, Utterances: len(utts), QA: qa})
		all = append(all, utts...)
	}
	return all, calls, nil
}

// Score filters utts and scores what remains on the configured worker pool.
func (p *Pipeline) Score(ctx context.Context, utts []transcript.Utterance, f Filter) ([]features.ScoredUtterance, error) {
	kept := f.apply(utts)
	if len(kept) == 0 {
		p.log.Warn("nothing to score after filters")
		return nil, nil
	}
	start := time.Now()
	scored, err := features.Score(ctx, kept, p.scorer, features.ScoreOptions{Workers: p.cfg.Sentiment.Workers})
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"utterances": len(scored),
		"workers":    p.cfg.Sentiment.Workers,
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("scored")
	return scored, nil
}

func (p *Pipeline) Pair(ctx context.Context, scored []features.ScoredUtterance) []features.QAPair {
	pairs := features.Pair(scored)
	p.metrics.Pairs.Add(ctx, int64(len(pairs)))
	return pairs
}

// Run processes every transcript under rawRoot and writes the outputs into a
// fresh run directory under the processed path.
func (p *Pipeline) Run(ctx context.Context, rawRoot string) (*Result, error) {
	srcs, err := transcript.Discover(rawRoot)
	if err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, fmt.Errorf("no transcripts under %s", rawRoot)
	}
	p.log.WithFields(logrus.Fields{"raw": rawRoot, "calls": len(srcs)}).Info("parsing, scoring and pairing")

	utts, calls, err := p.Segment(ctx, srcs)
	if err != nil {
		return nil, err
	}
	scored, err := p.Score(ctx, utts, Filter{})
	if err != nil {
		return nil, err
	}
	pairs := p.Pair(ctx, scored)

	pairsByCall := map[string]int{}
	for _, pr := range pairs {
		pairsByCall[pr.CallID]++
	}
	for i := range calls {
		calls[i].Pairs = pairsByCall[calls[i].CallID]
	}

	if p.sink != nil {
		if err := p.store(ctx, srcs, scored, pairs); err != nil {
			return nil, err
		}
	}

	now := p.now()
	dir, err := mkRunDir(p.cfg.Paths.Processed, now)
	if err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	m := Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		RawRoot:     rawRoot,
		Provider:    p.cfg.Sentiment.Provider,
		Calls:       calls,
		Utterances:  len(utts),
		Scored:      len(scored),
		Pairs:       len(pairs),
	}
	if m.Provider == cfg.ProviderFinBERT {
		m.Model = p.cfg.Sentiment.ModelName
	}
	if err := persist(dir, bundle{utts: utts, scored: scored, pairs: pairs}, &m); err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"run_id":     m.RunID,
		"dir":        dir,
		"utterances": m.Utterances,
		"pairs":      m.Pairs,
	}).Info("run complete")
	return &Result{Dir: dir, Manifest: m}, nil
}

func (p *Pipeline) store(ctx context.Context, srcs []transcript.Source, scored []features.ScoredUtterance, pairs []features.QAPair) error {
	byCall := map[string][]features.ScoredUtterance{}
	for _, s := range scored {
		byCall[s.CallID] = append(byCall[s.CallID], s)
	}
	for _, src := range srcs {
		if err := p.sink.SaveCall(ctx, src, byCall[src.CallID]); err != nil {
			return err
		}
	}
	if err := p.sink.SavePairs(ctx, pairs); err != nil {
		return err
	}
	p.log.WithField("calls", len(srcs)).Info("stored")
	return nil
}
