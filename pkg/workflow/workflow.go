// Copyright © 2018 One Concern

package workflow

import (
	"context"
	"sort"
)

// Workflow is the status document of a workflow
type Workflow struct {
	root *Node
	env  *env
}

// ParseWorkflow decodes the status document of a workflow
func ParseWorkflow(data []byte, opts ...Option) (*Workflow, error) {
	root, err := ParseNode(data)
	if err != nil {
		return nil, err
	}
	if root.Kind() != KindMap {
		return nil, ErrInvalidDocument.Wrapf("workflow is a %v", root.Kind())
	}
	return &Workflow{root: root, env: newEnv(opts)}, nil
}

// Root node of the status document
func (w *Workflow) Root() *Node {
	return w.root
}

// StepFilter selects steps. Empty criteria select everything.
type StepFilter struct {
	Names  []string
	Keys   []string
	Phases []string
	Types  []string
	IDs    []string
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func (f StepFilter) match(s *Step) bool {
	return (len(f.Names) == 0 || matchName(s.DisplayName, f.Names)) &&
		(len(f.Keys) == 0 || contains(f.Keys, s.Key)) &&
		(len(f.Phases) == 0 || contains(f.Phases, s.Phase)) &&
		(len(f.Types) == 0 || contains(f.Types, s.Type)) &&
		(len(f.IDs) == 0 || contains(f.IDs, s.ID))
}

// Steps yields the started steps of the workflow which match the filter, by start time
func (w *Workflow) Steps(ctx context.Context, filter StepFilter) ([]*Step, error) {
	nodes := w.root.Lookup("status", "nodes")
	steps := make([]*Step, 0, nodes.Len())
	for _, id := range nodes.Keys() {
		node, err := nodes.Get(id)
		if err != nil {
			return nil, err
		}
		if node.Lookup("startedAt").IsNull() {
			continue
		}
		step, err := parseStep(ctx, node, w.env)
		if err != nil {
			return nil, err
		}
		if step.ID == "" {
			step.ID = id
		}
		if filter.match(step) {
			steps = append(steps, step)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].StartedAt.Before(steps[j].StartedAt) })
	return steps, nil
}
