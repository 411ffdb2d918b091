package consensus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/swarmforge/core/internal/swarmerr"
)

const (
	// ProposalPrefix begins every proposal line in the log.
	ProposalPrefix = "SWARM_PROPOSAL:"
	// VotePrefix begins every vote line in the log.
	VotePrefix = "SWARM_VOTE:"
)

// Channel is an append-only shared log file: the sole communication medium
// between SwarmNodes. Lines are never rewritten once appended.
type Channel struct {
	path string
}

// NewChannel returns a Channel backed by the file at path. The file and its
// parent directory are created lazily on first append.
func NewChannel(path string) *Channel {
	return &Channel{path: path}
}

// withLockedAppend opens the channel file for append, takes an exclusive
// advisory lock for the duration of the write, and calls fn with the open
// file.
func (c *Channel) withLockedAppend(fn func(*os.File) error) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create channel directory: %w: %v", swarmerr.ErrIO, err)
		}
	}
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open channel: %w: %v", swarmerr.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock channel: %w: %v", swarmerr.ErrIO, err)
	}
	defer func() { _ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) }()

	return fn(f)
}

// PostProposal appends one SWARM_PROPOSAL line.
func (c *Channel) PostProposal(p *Proposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	return c.withLockedAppend(func(f *os.File) error {
		_, err := f.WriteString(ProposalPrefix + string(data) + "\n")
		if err != nil {
			return fmt.Errorf("append proposal: %w: %v", swarmerr.ErrIO, err)
		}
		return nil
	})
}

// PostVote appends one SWARM_VOTE line.
func (c *Channel) PostVote(v *Vote) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vote: %w", err)
	}
	return c.withLockedAppend(func(f *os.File) error {
		_, err := f.WriteString(VotePrefix + string(data) + "\n")
		if err != nil {
			return fmt.Errorf("append vote: %w: %v", swarmerr.ErrIO, err)
		}
		return nil
	})
}

// FindProposals scans the channel from the beginning and returns every
// well-formed proposal. Malformed lines are skipped.
func (c *Channel) FindProposals() ([]*Proposal, error) {
	lines, err := c.readLines()
	if err != nil {
		return nil, err
	}
	var out []*Proposal
	for _, line := range lines {
		body, ok := strings.CutPrefix(line, ProposalPrefix)
		if !ok {
			continue
		}
		var p Proposal
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

// FindVotesForProposal scans the channel for every vote addressed to
// proposalID, in file order (including duplicate votes from the same
// voter; callers reconcile with last-write-wins).
func (c *Channel) FindVotesForProposal(proposalID string) ([]*Vote, error) {
	lines, err := c.readLines()
	if err != nil {
		return nil, err
	}
	var out []*Vote
	for _, line := range lines {
		body, ok := strings.CutPrefix(line, VotePrefix)
		if !ok {
			continue
		}
		var v Vote
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			continue
		}
		if v.ProposalID == proposalID {
			out = append(out, &v)
		}
	}
	return out, nil
}

func (c *Channel) readLines() ([]string, error) {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open channel: %w: %v", swarmerr.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan channel: %w: %v", swarmerr.ErrIO, err)
	}
	return lines, nil
}
