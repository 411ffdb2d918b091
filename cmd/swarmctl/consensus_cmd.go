package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/consensus"
)

func openNode() *consensus.Node {
	channel := consensus.NewChannel(cfg.ConsensusLogPath)
	return consensus.NewNode(channel, "", cfg.Consensus.Threshold)
}

var (
	proposeTitle       string
	proposeDescription string
	proposeVote        bool
	proposeConfidence  float64
	proposeReasoning   string
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Post a consensus proposal, optionally with the proposer's own vote",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := openNode()
		if cmd.Flags().Changed("vote") {
			p, v, err := n.ProposeAndVote(proposeTitle, proposeDescription, nil, proposeVote, proposeConfidence, proposeReasoning)
			if err != nil {
				return fmt.Errorf("propose: %w", err)
			}
			return printJSON(map[string]any{"proposal": p, "vote": v})
		}
		p := n.CreateProposal(proposeTitle, proposeDescription, nil)
		if err := n.BroadcastProposal(p); err != nil {
			return fmt.Errorf("propose: %w", err)
		}
		return printJSON(p)
	},
}

var (
	voteApprove    bool
	voteConfidence float64
	voteReasoning  string
	voteNode       string
)

var voteCmd = &cobra.Command{
	Use:   "vote <proposal-id>",
	Short: "Post a vote on a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel := consensus.NewChannel(cfg.ConsensusLogPath)
		node := voteNode
		if node == "" {
			node = "swarmctl"
		}
		n := consensus.NewNode(channel, node, cfg.Consensus.Threshold)
		v := n.CreateVote(args[0], voteApprove, voteConfidence, voteReasoning)
		if err := n.BroadcastVote(v); err != nil {
			return fmt.Errorf("vote: %w", err)
		}
		return printJSON(v)
	},
}

var evaluateThreshold float64

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <proposal-id>",
	Short: "Compute weighted-confidence approval for a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := openNode()
		proposals, err := n.CheckForProposals()
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		var target *consensus.Proposal
		for _, p := range proposals {
			if p.ID == args[0] {
				target = p
			}
		}
		if target == nil {
			return fmt.Errorf("evaluate: proposal %s: not found", args[0])
		}
		votes, err := n.CollectVotes(args[0])
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		for _, v := range votes {
			target.AddVote(v)
		}
		result := n.EvaluateProposal(target, evaluateThreshold)
		return printJSON(map[string]any{"proposal": target, "evaluation": result})
	},
}

func init() {
	proposeCmd.Flags().StringVar(&proposeTitle, "title", "", "proposal title")
	proposeCmd.Flags().StringVar(&proposeDescription, "description", "", "proposal description")
	proposeCmd.Flags().BoolVar(&proposeVote, "vote", false, "also cast the proposer's own vote")
	proposeCmd.Flags().Float64Var(&proposeConfidence, "confidence", 1.0, "proposer's own vote confidence, with --vote")
	proposeCmd.Flags().StringVar(&proposeReasoning, "reasoning", "", "proposer's own vote reasoning, with --vote")
	_ = proposeCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(proposeCmd)

	voteCmd.Flags().BoolVar(&voteApprove, "approve", false, "vote to approve")
	voteCmd.Flags().Float64Var(&voteConfidence, "confidence", 1.0, "vote confidence in [0,1]")
	voteCmd.Flags().StringVar(&voteReasoning, "reasoning", "", "vote reasoning")
	voteCmd.Flags().StringVar(&voteNode, "node", "", "voting node id (default: swarmctl)")
	rootCmd.AddCommand(voteCmd)

	evaluateCmd.Flags().Float64Var(&evaluateThreshold, "threshold", 0, "override the node's default approval threshold")
	rootCmd.AddCommand(evaluateCmd)
}
