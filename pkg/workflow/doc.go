// Copyright © 2018 One Concern

// Package workflow adapts the status documents of a workflow engine to artifacts.
//
// Status documents are decoded as a generic tree of nodes, then typed as steps with
// their input and output parameters and artifacts. Steps know how to replace their
// outputs with newly uploaded artifacts, and how to move parameters too large for the
// engine through the storage backend.
package workflow
