// Package store persists calls, scored utterances and QA pairs in SQLite
// through gorm. Writes are keyed by call id and replace earlier rows for the
// same call, so re-running a transcript is idempotent.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

const batchSize = 500

// ErrNotFound is returned when a call id is not stored.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Open connects to the SQLite database at path and migrates the schema.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Call{}, &Utterance{}, &QAPair{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.WithField("path", path).Debug("database ready")
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveCall replaces the call row and all scored utterances of src.CallID and
// clears its stored pairs, which SavePairs then rewrites.
func (s *Store) SaveCall(ctx context.Context, src transcript.Source, recs []features.ScoredUtterance) error {
	call := Call{
		CallID:     src.CallID,
		Ticker:     src.Ticker,
		CallDate:   src.CallDate,
		SourcePath: src.Path,
		Utterances: len(recs),
		UpdatedAt:  time.Now().UTC(),
	}
	rows := make([]Utterance, 0, len(recs))
	for _, r := range recs {
		if r.CallID != src.CallID {
			return fmt.Errorf("save call %s: record belongs to %s", src.CallID, r.CallID)
		}
		if r.Section == transcript.SectionQA {
			call.QAUtterances++
		}
		rows = append(rows, utteranceRow(r))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_id = ?", src.CallID).Delete(&Utterance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("call_id = ?", src.CallID).Delete(&QAPair{}).Error; err != nil {
			return err
		}
		if err := tx.Save(&call).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("save call %s: %w", src.CallID, err)
	}
	s.log.WithFields(logrus.Fields{"call_id": src.CallID, "utterances": len(rows)}).Debug("call stored")
	return nil
}

// SavePairs replaces the stored pairs of every call present in pairs.
func (s *Store) SavePairs(ctx context.Context, pairs []features.QAPair) error {
	if len(pairs) == 0 {
		return nil
	}
	var callIDs []string
	seen := map[string]bool{}
	rows := make([]QAPair, 0, len(pairs))
	for _, p := range pairs {
		if !seen[p.CallID] {
			seen[p.CallID] = true
			callIDs = append(callIDs, p.CallID)
		}
		rows = append(rows, pairRow(p))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_id IN ?", callIDs).Delete(&QAPair{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("save pairs: %w", err)
	}
	return nil
}

func (s *Store) Calls(ctx context.Context) ([]Call, error) {
	var calls []Call
	if err := s.db.WithContext(ctx).Order("call_id").Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	return calls, nil
}

// Utterances returns the scored utterances of a call in order, optionally
// restricted to one section.
func (s *Store) Utterances(ctx context.Context, callID string, section transcript.Section) ([]features.ScoredUtterance, error) {
	db := s.db.WithContext(ctx)
	var call Call
	if err := db.Where("call_id = ?", callID).First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("call %s: %w", callID, ErrNotFound)
		}
		return nil, fmt.Errorf("get call %s: %w", callID, err)
	}

	q := db.Where("call_id = ?", callID)
	if section != "" {
		q = q.Where("section = ?", string(section))
	}
	var rows []Utterance
	if err := q.Order("utt_order").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list utterances %s: %w", callID, err)
	}
	out := make([]features.ScoredUtterance, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

type PairFilter struct {
	CallID string
	// Role restricts to pairs answered by this speaker role.
	Role  transcript.Role
	Limit int
}

// Pairs lists stored pairs ordered by call id and question order.
func (s *Store) Pairs(ctx context.Context, f PairFilter) ([]features.QAPair, error) {
	q := s.db.WithContext(ctx).Model(&QAPair{})
	if f.CallID != "" {
		q = q.Where("call_id = ?", f.CallID)
	}
	if f.Role != "" {
		q = q.Where("answer_speaker_role = ?", string(f.Role))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []QAPair
	if err := q.Order("call_id").Order("q_order").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	out := make([]features.QAPair, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

type Stats struct {
	Calls          int64   `json:"calls"`
	Utterances     int64   `json:"utterances"`
	Pairs          int64   `json:"pairs"`
	AvgQPolarity   float64 `json:"avg_q_polarity"`
	AvgAPolarity   float64 `json:"avg_a_polarity"`
	AvgQADelta     float64 `json:"avg_qa_delta"`
	PositiveDeltas int64   `json:"positive_deltas"`
	NegativeDeltas int64   `json:"negative_deltas"`
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	var st Stats
	if err := db.Model(&Call{}).Count(&st.Calls).Error; err != nil {
		return nil, fmt.Errorf("count calls: %w", err)
	}
	if err := db.Model(&Utterance{}).Count(&st.Utterances).Error; err != nil {
		return nil, fmt.Errorf("count utterances: %w", err)
	}
	if err := db.Model(&QAPair{}).Count(&st.Pairs).Error; err != nil {
		return nil, fmt.Errorf("count pairs: %w", err)
	}
	if st.Pairs == 0 {
		return &st, nil
	}
	var avg struct {
		Q, A, Delta float64
	}
	if err := db.Model(&QAPair{}).
		Select("AVG(q_polarity) AS q, AVG(a_polarity) AS a, AVG(qa_delta) AS delta").
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("average pairs: %w", err)
	}
	st.AvgQPolarity, st.AvgAPolarity, st.AvgQADelta = avg.Q, avg.A, avg.Delta
	if err := db.Model(&QAPair{}).Where("qa_delta > ?", 0).Count(&st.PositiveDeltas).Error; err != nil {
		return nil, fmt.Errorf("count positive deltas: %w", err)
	}
	if err := db.Model(&QAPair{}).Where("qa_delta < ?", 0).Count(&st.NegativeDeltas).Error; err != nil {
		return nil, fmt.Errorf("count negative deltas: %w", err)
	}
	return &st, nil
}
