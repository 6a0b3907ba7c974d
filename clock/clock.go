package clock

import (
	"context"
	"sync"
	"time"

	"github.com/axiomesh/govtracker/repo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ModeLocal = repo.ClockModeLocal
	ModeChain = repo.ClockModeChain
)

// Clock supplies the block number stamped on every governance call.
type Clock interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Manual is advanced by hand.
type Manual struct {
	mu    sync.RWMutex
	block uint64
}

func NewManual(block uint64) *Manual {
	return &Manual{block: block}
}

func (m *Manual) BlockNumber(context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.block, nil
}

func (m *Manual) Set(block uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}

func (m *Manual) Advance(n uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block += n
	return m.block
}

// Local derives the block number from wall time: one block every interval since genesis.
type Local struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

func NewLocal(genesis time.Time, interval time.Duration) (*Local, error) {
	if interval <= 0 {
		return nil, errors.Errorf("block interval must be positive, got %s", interval)
	}
	return &Local{genesis: genesis, interval: interval, now: time.Now}, nil
}

func (l *Local) BlockNumber(context.Context) (uint64, error) {
	elapsed := l.now().Sub(l.genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / l.interval), nil
}

// New builds the clock named by cfg.Mode. A chain clock is dialed before returning.
func New(ctx context.Context, cfg *repo.Clock, logger logrus.FieldLogger) (Clock, error) {
	switch cfg.Mode {
	case "", ModeLocal:
		l, err := NewLocal(time.Unix(cfg.GenesisUnix, 0), cfg.BlockInterval)
		if err != nil {
			return nil, err
		}
		return l, nil
	case ModeChain:
		c, err := DialChain(ctx, cfg.DialUrl, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.Errorf("unknown clock mode %q", cfg.Mode)
	}
}
