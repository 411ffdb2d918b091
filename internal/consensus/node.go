package consensus

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultThreshold is the default minimum weighted-approval ratio for a
// proposal to be approved.
const DefaultThreshold = 0.6

// Node combines an identity, a channel, and a decision threshold.
type Node struct {
	ID        string
	Threshold float64
	channel   *Channel
}

// NewNode constructs a Node. nodeID defaults to a fresh uuid when empty;
// threshold defaults to DefaultThreshold when zero.
func NewNode(channel *Channel, nodeID string, threshold float64) *Node {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Node{ID: nodeID, Threshold: threshold, channel: channel}
}

// CreateProposal builds a new Proposal stamped with this node's id as
// proposer. It does not post it; callers call BroadcastProposal.
func (n *Node) CreateProposal(title, description string, metadata map[string]any) *Proposal {
	return &Proposal{
		ID:          fmt.Sprintf("proposal-%s", uuid.NewString()[:8]),
		Title:       title,
		Description: description,
		Proposer:    n.ID,
		Status:      StatusPending,
		CreatedAt:   nowUnix(),
		Metadata:    metadata,
	}
}

// CreateVote builds a new Vote stamped with this node's id as voter.
func (n *Node) CreateVote(proposalID string, approve bool, confidence float64, reasoning string) *Vote {
	return &Vote{
		ProposalID: proposalID,
		Voter:      n.ID,
		Approve:    approve,
		Confidence: clampConfidence(confidence),
		Reasoning:  reasoning,
		VotedAt:    nowUnix(),
	}
}

// BroadcastProposal appends p to the channel.
func (n *Node) BroadcastProposal(p *Proposal) error {
	return n.channel.PostProposal(p)
}

// BroadcastVote appends v to the channel.
func (n *Node) BroadcastVote(v *Vote) error {
	return n.channel.PostVote(v)
}

// CheckForProposals returns every proposal currently on the channel.
func (n *Node) CheckForProposals() ([]*Proposal, error) {
	return n.channel.FindProposals()
}

// CollectVotes returns every vote on the channel addressed to proposalID,
// reconciled to at most one per voter (last write wins).
func (n *Node) CollectVotes(proposalID string) ([]*Vote, error) {
	all, err := n.channel.FindVotesForProposal(proposalID)
	if err != nil {
		return nil, err
	}
	byVoter := map[string]*Vote{}
	var order []string
	for _, v := range all {
		if _, seen := byVoter[v.Voter]; !seen {
			order = append(order, v.Voter)
		}
		byVoter[v.Voter] = v
	}
	out := make([]*Vote, 0, len(order))
	for _, voter := range order {
		out = append(out, byVoter[voter])
	}
	return out, nil
}

// EvaluationResult is the outcome of a weighted-confidence evaluation.
type EvaluationResult struct {
	WeightedApproval float64 `json:"weighted_approval"`
	Approved         bool    `json:"approved"`
	VoteCount        int     `json:"vote_count"`
}

// EvaluateProposal computes weighted_approval = Σ(confidence·approve) /
// Σ(confidence), compares it against threshold (falling back to n.Threshold
// when threshold is 0), and updates proposal.Status to APPROVED or
// REJECTED. With zero votes, weighted_approval is 0 and the proposal is not
// approved.
func (n *Node) EvaluateProposal(p *Proposal, threshold float64) EvaluationResult {
	if threshold == 0 {
		threshold = n.Threshold
	}

	var weighted, total float64
	for _, v := range p.Votes {
		total += v.Confidence
		if v.Approve {
			weighted += v.Confidence
		}
	}

	result := EvaluationResult{VoteCount: len(p.Votes)}
	if total > 0 {
		result.WeightedApproval = weighted / total
	}
	result.Approved = result.WeightedApproval >= threshold

	if result.Approved {
		p.Status = StatusApproved
	} else {
		p.Status = StatusRejected
	}
	return result
}

// ProposeAndVote posts a new proposal and the proposer's own vote in a
// single call, returning both records.
func (n *Node) ProposeAndVote(title, description string, metadata map[string]any, approve bool, confidence float64, reasoning string) (*Proposal, *Vote, error) {
	p := n.CreateProposal(title, description, metadata)
	if err := n.BroadcastProposal(p); err != nil {
		return nil, nil, fmt.Errorf("propose and vote: broadcast proposal: %w", err)
	}
	v := n.CreateVote(p.ID, approve, confidence, reasoning)
	if err := n.BroadcastVote(v); err != nil {
		return nil, nil, fmt.Errorf("propose and vote: broadcast vote: %w", err)
	}
	p.AddVote(v)
	return p, v, nil
}
