package main

import (
	"context"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/axiom-kit/storage"
	"github.com/axiomesh/axiom-kit/storage/leveldb"
	"github.com/axiomesh/govtracker/core"
	"github.com/axiomesh/govtracker/notify"
	"github.com/axiomesh/govtracker/referendum"
	"github.com/axiomesh/govtracker/repo"
	"github.com/axiomesh/govtracker/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const logChanMaxSize = 1000

// node is the governor wired to the repo database and the configured sinks.
type node struct {
	config *repo.Config
	logger *logrus.Logger
	db     storage.Storage
	gov    *core.Governor
	feed   *notify.Feed
}

func newLogger(cfg *repo.Config) *logrus.Logger {
	logger := log.New()
	logger.SetLevel(log.ParseLevel(cfg.Log.Level))
	return logger
}

func openNode(r *repo.Repo, logger *logrus.Logger) (*node, error) {
	cfg := r.Config
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	params, err := core.NewParams(&cfg.Governance)
	if err != nil {
		return nil, err
	}
	submitter, err := referendum.New(cfg.Referendum.Policy, cfg.Referendum.Endpoint, cfg.Referendum.Timeout)
	if err != nil {
		return nil, err
	}

	db, err := leveldb.New(r.DBPath())
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", r.DBPath())
	}

	feed := notify.NewFeed(common.HexToAddress(cfg.Notify.Emitter), logger)
	gov, err := core.NewGovernor(params, store.New(store.FromStorage(db)), submitter, notify.Multi{notify.NewLogger(logger), feed}, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &node{
		config: cfg,
		logger: logger,
		db:     db,
		gov:    gov,
		feed:   feed,
	}, nil
}

// listenEvents drains the log feed until ctx is done.
func (n *node) listenEvents(ctx context.Context) {
	logs := make(chan types.Log, logChanMaxSize)
	sub := n.feed.Subscribe(logs)
	defer sub.Unsubscribe()

	n.logger.Info("listen events")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("context done")
			return
		case err := <-sub.Err():
			if err != nil {
				n.logger.Errorf("event subscription: %s", err)
			}
			return
		case l := <-logs:
			n.handleLog(&l)
		}
	}
}

func (n *node) handleLog(l *types.Log) {
	e, err := notify.FromLog(l)
	if err != nil {
		n.logger.WithFields(logrus.Fields{
			"block": l.BlockNumber,
			"index": l.Index,
		}).Errorf("decode log: %s", err)
		return
	}
	n.logger.WithFields(logrus.Fields{
		"block": l.BlockNumber,
		"index": l.Index,
		"topic": l.Topics[0].Hex(),
	}).Debugf("emitted %s", e.Signature())
}

func (n *node) Close() error {
	return n.db.Close()
}
