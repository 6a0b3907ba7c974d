package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const headChanSize = 16

// HeadReader is the part of an RPC client the chain clock needs.
type HeadReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	Close()
}

var _ HeadReader = (*ethclient.Client)(nil)

type Dialer func(ctx context.Context, url string) (HeadReader, error)

func dialEth(ctx context.Context, url string) (HeadReader, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type ChainOption func(*Chain)

func WithDialer(d Dialer) ChainOption {
	return func(c *Chain) { c.dial = d }
}

// WithRetry sets the attempt limit and the fibonacci backoff factor for dialing and reading.
func WithRetry(attempts uint, factor time.Duration) ChainOption {
	return func(c *Chain) {
		c.attempts = attempts
		c.factor = factor
	}
}

// Chain reads the block number from a node. Once Follow runs, new heads keep a
// cached height current and BlockNumber answers from it.
type Chain struct {
	url      string
	dial     Dialer
	logger   logrus.FieldLogger
	attempts uint
	factor   time.Duration

	mu     sync.RWMutex
	client HeadReader

	latest    atomic.Uint64
	following atomic.Bool
}

func DialChain(ctx context.Context, url string, logger logrus.FieldLogger, opts ...ChainOption) (*Chain, error) {
	c := &Chain{
		url:      url,
		dial:     dialEth,
		logger:   logger,
		attempts: 5,
		factor:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) retry(action func(attempt uint) error) error {
	return retry.Retry(action, strategy.Limit(c.attempts), strategy.Backoff(backoff.Fibonacci(c.factor)))
}

func (c *Chain) connect(ctx context.Context) error {
	var client HeadReader
	action := func(attempt uint) error {
		var err error
		client, err = c.dial(ctx, c.url)
		if err != nil {
			c.logger.WithFields(logrus.Fields{"url": c.url, "attempt": attempt}).Warnf("dial node: %s", err)
		}
		return err
	}
	if err := c.retry(action); err != nil {
		return errors.Wrapf(err, "dial %s", c.url)
	}

	c.mu.Lock()
	old := c.client
	c.client = client
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (c *Chain) current() HeadReader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Chain) observe(n uint64) {
	for {
		old := c.latest.Load()
		if n <= old || c.latest.CompareAndSwap(old, n) {
			return
		}
	}
}

func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	if c.following.Load() {
		return c.latest.Load(), nil
	}

	var n uint64
	action := func(attempt uint) error {
		var err error
		n, err = c.current().BlockNumber(ctx)
		return err
	}
	if err := c.retry(action); err != nil {
		return 0, errors.Wrap(err, "read block number")
	}
	c.observe(n)
	return c.latest.Load(), nil
}

// Follow subscribes to new heads until ctx is done, reconnecting when the
// subscription drops.
func (c *Chain) Follow(ctx context.Context) error {
	heads := make(chan *types.Header, headChanSize)
	for {
		if _, err := c.BlockNumber(ctx); err != nil {
			return err
		}
		sub, err := c.current().SubscribeNewHead(ctx, heads)
		if err != nil {
			return errors.Wrap(err, "subscribe new heads")
		}
		c.following.Store(true)
		c.logger.WithField("block", c.latest.Load()).Info("following chain heads")

		err = c.drain(ctx, sub, heads)
		c.following.Store(false)
		sub.Unsubscribe()
		if err == nil {
			return nil
		}

		c.logger.Warnf("head subscription dropped: %s", err)
		if err := c.connect(ctx); err != nil {
			return err
		}
	}
}

func (c *Chain) drain(ctx context.Context, sub ethereum.Subscription, heads <-chan *types.Header) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case h := <-heads:
			if h != nil && h.Number != nil {
				c.observe(h.Number.Uint64())
			}
		}
	}
}

func (c *Chain) Close() {
	c.following.Store(false)
	if client := c.current(); client != nil {
		client.Close()
	}
}
