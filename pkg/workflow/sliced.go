// Copyright © 2018 One Concern

package workflow

import (
	"context"
	"strings"

	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/oneconcern/stowage/pkg/slice"
	"go.uber.org/zap"
)

// ModifyOutputArtifact points an output artifact to a newly uploaded artifact
func (s *Step) ModifyOutputArtifact(name string, h artifact.Handle) error {
	a, ok := s.Outputs.Artifacts[name]
	if !ok {
		return ErrNoSuchArtifact.Wrapf("%s", name)
	}
	if h.IsLocal() {
		a.LocalPath = h.LocalPath
		return nil
	}

	a.Key = h.Key
	switch {
	case strings.HasSuffix(h.Key, artifact.ArchiveExt):
		a.Archive = ""
	case a.Archive == "":
		a.Archive = ArchiveNone
	}
	return nil
}

// PathList yields the catalog of a sliced output artifact
func (s *Step) PathList(name string) ([]catalog.Entry, error) {
	p, ok := s.Outputs.Parameters[PathListParameter(name)]
	if !ok {
		return nil, ErrNotSlicedOutput.Wrapf("%s", name)
	}

	var data []byte
	switch v := p.Value.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, ErrInvalidDocument.Wrap(err)
		}
	}

	var entries []catalog.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, ErrInvalidDocument.Wrap(err)
	}
	return entries, nil
}

// DownloadSlicedOutputArtifact downloads every item of a sliced output artifact into dst
func (s *Step) DownloadSlicedOutputArtifact(ctx context.Context, name, dst string) error {
	entries, err := s.PathList(name)
	if err != nil {
		return err
	}
	a, ok := s.Outputs.Artifacts[name]
	if !ok {
		return ErrNoSuchArtifact.Wrapf("%s", name)
	}

	for _, e := range entries {
		if e.IsHole() {
			continue
		}
		if _, err = artifact.Download(ctx, s.env.cfg, s.env.store, a.Handle().SubPath(e.Path()), dst, artifact.Logger(s.env.l)); err != nil {
			return err
		}
	}
	s.env.l.Debug("downloaded sliced output", zap.String("artifact", name), zap.Int("items", len(entries)))
	return nil
}

// UploadAndModifySlicedOutputArtifact uploads new content for every item of a sliced output artifact,
// and points the artifact to the upload. One path is expected per item, holes excluded, in order.
func (s *Step) UploadAndModifySlicedOutputArtifact(ctx context.Context, name string, paths []string) error {
	entries, err := s.PathList(name)
	if err != nil {
		return err
	}
	items := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsHole() {
			items = append(items, e)
		}
	}
	h, err := slice.Replace(ctx, s.env.cfg, s.env.store, items, paths, artifact.Logger(s.env.l))
	if err != nil {
		return err
	}
	return s.ModifyOutputArtifact(name, h)
}
