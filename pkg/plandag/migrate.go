package plandag

import (
	"context"
	"fmt"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
)

// MigratedNode describes one node whose stored type was rewritten.
type MigratedNode struct {
	NodeID  string
	OldType string
	NewType NodeType
}

// MigrationOutcome is the result of scanning a project's plan for legacy
// node types.
type MigrationOutcome struct {
	CheckedNodes int
	Migrated     []MigratedNode
	Warnings     []string
	Errors       []string
}

// ValidateAndMigrateLegacyNodes scans every node of the project's plan,
// rewriting legacy type strings to their canonical form. If anything
// changed, the plan's version is bumped exactly once, regardless of how
// many nodes were migrated.
func (s *Service) ValidateAndMigrateLegacyNodes(ctx context.Context, projectID string) (*MigrationOutcome, error) {
	plan, err := s.GetOrCreatePlan(ctx, projectID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.store.ListNodes(ctx, plan.ID)
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to list nodes for plan %s", plan.ID)
	}

	outcome := &MigrationOutcome{CheckedNodes: len(nodes)}
	changed := false

	for _, row := range nodes {
		canonical, rewritten := CanonicalNodeType(row.NodeType)
		if !rewritten {
			continue
		}
		old := row.NodeType
		row.NodeType = string(canonical)
		if err := s.store.PutNode(ctx, &row); err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("node %s: %v", row.ID, err))
			continue
		}
		outcome.Migrated = append(outcome.Migrated, MigratedNode{NodeID: row.ID, OldType: old, NewType: canonical})
		changed = true
	}

	if changed {
		if _, err := s.bumpVersion(ctx, plan.ID); err != nil {
			return outcome, err
		}
	}

	return outcome, nil
}
