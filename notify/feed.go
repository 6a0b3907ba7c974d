package notify

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"
)

var topicEvents = map[common.Hash]func() Event{}

func init() {
	for _, f := range []func() Event{
		func() Event { return &ProposalCreated{} },
		func() Event { return &Voted{} },
		func() Event { return &ProposalClosed{} },
		func() Event { return &ProposalCancelled{} },
		func() Event { return &CrossChainMessage{} },
	} {
		topicEvents[Topic(f())] = f
	}
}

func Topic(e Event) common.Hash {
	return crypto.Keccak256Hash([]byte(e.Signature()))
}

// ToLog wraps an event the way a contract log would carry it: topic0 is the
// event signature hash, topic1 the proposal id, data the JSON payload.
func ToLog(emitter common.Address, block uint64, index uint, e Event) (*types.Log, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &types.Log{
		Address:     emitter,
		Topics:      []common.Hash{Topic(e), common.BigToHash(new(big.Int).SetUint64(e.Proposal()))},
		Data:        data,
		BlockNumber: block,
		Index:       index,
	}, nil
}

// FromLog decodes a log produced by ToLog.
func FromLog(log *types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log without topics")
	}
	f, ok := topicEvents[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("unknown event topic %s", log.Topics[0].Hex())
	}
	e := f()
	if err := json.Unmarshal(log.Data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Feed publishes events as logs to go-ethereum style subscribers. Send blocks
// until every subscriber took the log, so subscribers should use buffered channels.
type Feed struct {
	emitter common.Address
	logger  logrus.FieldLogger
	feed    event.Feed

	mu    sync.Mutex
	index uint
}

func NewFeed(emitter common.Address, logger logrus.FieldLogger) *Feed {
	return &Feed{emitter: emitter, logger: logger}
}

func (f *Feed) Subscribe(ch chan<- types.Log) event.Subscription {
	return f.feed.Subscribe(ch)
}

func (f *Feed) Publish(block uint64, events ...Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range events {
		log, err := ToLog(f.emitter, block, f.index, e)
		if err != nil {
			f.logger.Errorf("encode %s error: %s", e.Signature(), err)
			continue
		}
		f.index++
		f.feed.Send(*log)
	}
}
