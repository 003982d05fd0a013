// Copyright © 2018 One Concern

package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/oneconcern/stowage/pkg/artifact"
	"go.uber.org/zap"
)

const (
	// KeyParameter is the input parameter holding the key of a step
	KeyParameter = "dflow_key"

	// BigParameterPrefix prefixes artifacts holding the value of a big parameter
	BigParameterPrefix = "dflow_bigpar_"

	// ArchiveNone marks an artifact stored as loose objects
	ArchiveNone = "none"
)

// PathListParameter is the name of the output parameter holding the catalog of a sliced artifact
func PathListParameter(artifactName string) string {
	return "dflow_" + artifactName + "_path_list"
}

// Parameter of a step
type Parameter struct {
	Name        string
	Value       interface{}
	Type        string
	Description string

	// SaveAsArtifact parameters are also stored in the backend, under a big parameter artifact
	SaveAsArtifact bool
}

// Artifact of a step
type Artifact struct {
	Name      string
	Key       string
	LocalPath string

	// Archive is empty for tarballs, or ArchiveNone
	Archive string
}

// Handle yields a handle on the artifact
func (a *Artifact) Handle() artifact.Handle {
	if a.LocalPath != "" {
		return artifact.LocalHandle(a.LocalPath)
	}
	return artifact.Handle{Key: a.Key}
}

// IO are the inputs or outputs of a step
type IO struct {
	Parameters map[string]*Parameter
	Artifacts  map[string]*Artifact
}

func newIO() IO {
	return IO{
		Parameters: make(map[string]*Parameter),
		Artifacts:  make(map[string]*Artifact),
	}
}

// Step of a workflow
type Step struct {
	ID          string
	Name        string
	DisplayName string
	Phase       string
	Type        string
	StartedAt   time.Time
	Key         string
	Inputs      IO
	Outputs     IO

	env *env
}

// ParseStep types a status node as a step.
//
// Parameters declared with a non-string type are decoded with the codec: values which fail to
// decode are kept as raw strings. Big parameters are loaded from the backend when it is known.
func ParseStep(ctx context.Context, node *Node, opts ...Option) (*Step, error) {
	return parseStep(ctx, node, newEnv(opts))
}

func parseStep(ctx context.Context, node *Node, e *env) (*Step, error) {
	if node.Kind() != KindMap {
		return nil, ErrNotAMap.Wrapf("step is a %v", node.Kind())
	}
	s := &Step{
		ID:          node.Lookup("id").StrOr(""),
		Name:        node.Lookup("name").StrOr(""),
		DisplayName: node.Lookup("displayName").StrOr(""),
		Phase:       node.Lookup("phase").StrOr(""),
		Type:        node.Lookup("type").StrOr(""),
		env:         e,
	}
	if s.DisplayName == "" {
		s.DisplayName = s.Name
	}
	if started := node.Lookup("startedAt").StrOr(""); started != "" {
		t, err := time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, ErrInvalidDocument.Wrapf("startedAt %q: %v", started, err)
		}
		s.StartedAt = t
	}

	s.Inputs = s.parseIO(ctx, node.Lookup("inputs"))
	s.Outputs = s.parseIO(ctx, node.Lookup("outputs"))

	if p, ok := s.Inputs.Parameters[KeyParameter]; ok {
		if key, isString := p.Value.(string); isString {
			s.Key = key
		}
	}
	return s, nil
}

func (s *Step) parseIO(ctx context.Context, node *Node) IO {
	io := newIO()
	for _, pn := range node.Lookup("parameters").Items() {
		p := s.parseParameter(pn)
		if p.Name != "" {
			io.Parameters[p.Name] = p
		}
	}
	for _, an := range node.Lookup("artifacts").Items() {
		a := parseArtifact(an)
		if a.Name != "" {
			io.Artifacts[a.Name] = a
		}
	}
	s.loadBigParameters(ctx, io)
	return io
}

func (s *Step) parseParameter(node *Node) *Parameter {
	p := &Parameter{
		Name:        node.Lookup("name").StrOr(""),
		Description: node.Lookup("description").StrOr(""),
		Type:        node.Lookup("type").StrOr(""),
	}
	if v := node.Lookup("value"); !v.IsNull() {
		p.Value = v.Value()
	}
	if save, ok := node.Lookup("save_as_artifact").Scalar().(bool); ok {
		p.SaveAsArtifact = save
	}

	if p.Description != "" {
		desc, err := ParseNode([]byte(p.Description))
		if err == nil {
			if t := desc.Lookup("type").StrOr(""); t != "" {
				p.Type = t
			}
		}
	}

	raw, isString := p.Value.(string)
	if isString && p.Type != "" && !isStringType(p.Type) {
		decoded, ok := TryDecode(s.env.codec, raw)
		if !ok {
			s.env.l.Debug("parameter kept as raw string", zap.String("parameter", p.Name), zap.String("type", p.Type))
		}
		p.Value = decoded
	}
	return p
}

func parseArtifact(node *Node) *Artifact {
	a := &Artifact{
		Name:      node.Lookup("name").StrOr(""),
		LocalPath: node.Lookup("local_path").StrOr(""),
	}
	for _, keyPath := range [][]string{{"s3", "key"}, {"oss", "key"}, {"key"}} {
		if key := node.Lookup(keyPath...).StrOr(""); key != "" {
			a.Key = key
			break
		}
	}
	if archive := node.Lookup("archive"); archive.Kind() == KindMap && archive.Has(ArchiveNone) {
		a.Archive = ArchiveNone
	}
	return a
}

// IsSliced tells if an output artifact comes with its path list
func (s *Step) IsSliced(artifactName string) bool {
	_, ok := s.Outputs.Parameters[PathListParameter(artifactName)]
	return ok
}

// matchName tells if a display name designates one of names.
// Names match exactly, or as the prefix of an indexed name such as "name(0)".
func matchName(displayName string, names []string) bool {
	for _, name := range names {
		if displayName == name || strings.HasPrefix(displayName, name+"(") {
			return true
		}
	}
	return false
}
