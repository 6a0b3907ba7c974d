package referendum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	PolicySequence      = "sequence"
	PolicyProposalCount = "proposal-count"
	PolicyRemote        = "remote"
)

// Request describes a proposal that was resolved in favor.
type Request struct {
	ProposalID      uint64
	Title           string
	Description     string
	Creator         common.Address
	TotalFor        *uint256.Int
	TotalAgainst    *uint256.Int
	Block           uint64
	ProposalCount   uint64
	ReferendumCount uint64
}

// Submitter hands an in-favor decision to the enactment system and returns
// the referendum index it was filed under. It is called synchronously while
// the close transaction is still open, a returned error aborts the close.
type Submitter interface {
	Submit(ctx context.Context, req *Request) (uint64, error)
}

type Func func(ctx context.Context, req *Request) (uint64, error)

func (f Func) Submit(ctx context.Context, req *Request) (uint64, error) {
	return f(ctx, req)
}

// Sequence files referenda under dense indexes starting at zero. The counter
// lives in the ledger and advances in the same transaction as the close.
type Sequence struct{}

func (Sequence) Submit(_ context.Context, req *Request) (uint64, error) {
	return req.ReferendumCount, nil
}

// ProposalCount reuses the global proposal count as the index. Indexes are
// not unique across closes; kept for compatibility with existing records.
type ProposalCount struct{}

func (ProposalCount) Submit(_ context.Context, req *Request) (uint64, error) {
	return req.ProposalCount, nil
}

// Remote posts the request to an enactment endpoint, which answers with
// {"index": n}.
type Remote struct {
	Endpoint string
	Client   *http.Client
}

func NewRemote(endpoint string, timeout time.Duration) *Remote {
	return &Remote{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	ProposalID   uint64         `json:"proposal_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Creator      common.Address `json:"creator"`
	TotalFor     string         `json:"total_for"`
	TotalAgainst string         `json:"total_against"`
	Block        uint64         `json:"block"`
}

type remoteResponse struct {
	Index *uint64 `json:"index"`
	Error string  `json:"error,omitempty"`
}

func (r *Remote) Submit(ctx context.Context, req *Request) (uint64, error) {
	body, err := json.Marshal(&remoteRequest{
		ProposalID:   req.ProposalID,
		Title:        req.Title,
		Description:  req.Description,
		Creator:      req.Creator,
		TotalFor:     types.FormatBalance(req.TotalFor),
		TotalAgainst: types.FormatBalance(req.TotalAgainst),
		Block:        req.Block,
	})
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return 0, errors.Wrap(err, "post referendum")
	}
	defer resp.Body.Close()

	out := &remoteResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode == http.StatusOK {
		return 0, errors.Wrap(err, "decode referendum response")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("referendum endpoint status code: %v, %s", resp.StatusCode, out.Error)
	}
	if out.Index == nil {
		return 0, errors.New("referendum endpoint returned no index")
	}
	return *out.Index, nil
}

// New builds the submitter for a configured policy.
func New(policy, endpoint string, timeout time.Duration) (Submitter, error) {
	switch policy {
	case PolicySequence, "":
		return Sequence{}, nil
	case PolicyProposalCount:
		return ProposalCount{}, nil
	case PolicyRemote:
		if endpoint == "" {
			return nil, errors.New("remote referendum policy needs an endpoint")
		}
		if timeout <= 0 {
			return nil, errors.Errorf("remote referendum timeout must be positive, got %s", timeout)
		}
		return NewRemote(endpoint, timeout), nil
	default:
		return nil, fmt.Errorf("unknown referendum policy %q", policy)
	}
}
