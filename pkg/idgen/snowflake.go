// Package idgen issues time-ordered 64-bit ids for ledger events.
//
// Layout: 1 unused sign bit, 41 bits of milliseconds since 2024-01-01 UTC,
// 10 bits of worker id and a 12-bit per-millisecond sequence.
package idgen

import (
	"fmt"
	"sync"
	"time"
)

const (
	epoch          = int64(1704067200000)
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
	now       func() int64
}

func NewSnowflake(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("idgen: worker id must be within 0-%d, got %d", maxWorkerID, workerID)
	}
	return &Snowflake{
		workerID: workerID,
		now:      func() int64 { return time.Now().UnixMilli() },
	}, nil
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// Init sets the worker id of the package-level generator. Only the first call counts.
func Init(workerID int64) error {
	var err error
	once.Do(func() {
		defaultGenerator, err = NewSnowflake(workerID)
	})
	return err
}

// NextID falls back to worker 1 when Init was never called.
func NextID() int64 {
	_ = Init(1)
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now < s.timestamp {
		// clock stepped back; stay on the last issued millisecond
		now = s.timestamp
	}

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = s.now()
			}
		}
	} else {
		s.sequence = 0
	}
	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// GenerateEventNo formats an id as EVT + UTC timestamp + the low eight digits, e.g. EVT20240115143052_00012345.
func GenerateEventNo() string {
	id := NextID()
	return fmt.Sprintf("EVT%s_%08d", time.Now().UTC().Format("20060102150405"), id%100000000)
}
