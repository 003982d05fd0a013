// Copyright © 2018 One Concern

package workflow

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/oneconcern/stowage/pkg/artifact"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// bigParameter is the document stored for a big parameter
type bigParameter struct {
	Value interface{} `json:"value"`
	Type  string      `json:"type,omitempty"`
}

// loadBigParameters promotes big parameter artifacts to parameters, unless the
// parameter is already known. This is best effort: failures are logged and skipped.
func (s *Step) loadBigParameters(ctx context.Context, io IO) {
	for name, a := range io.Artifacts {
		if !strings.HasPrefix(name, BigParameterPrefix) {
			continue
		}
		pname := strings.TrimPrefix(name, BigParameterPrefix)
		if _, known := io.Parameters[pname]; known {
			continue
		}
		p, err := s.loadBigParameter(ctx, pname, a)
		if err != nil {
			s.env.l.Debug("skipped big parameter", zap.String("parameter", pname), zap.Error(err))
			continue
		}
		io.Parameters[pname] = p
	}
}

func (s *Step) loadBigParameter(ctx context.Context, name string, a *Artifact) (_ *Parameter, err error) {
	if s.env.store == nil && a.LocalPath == "" {
		return nil, artifact.ErrArtifactNotFound.Wrapf("no backend to load %s", a.Name)
	}
	tmp, err := os.MkdirTemp("", "stowage-bigpar-")
	if err != nil {
		return nil, ErrParameterIO.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(tmp))
	}()

	if _, err = artifact.Download(ctx, s.env.cfg, s.env.store, a.Handle(), tmp, artifact.Logger(s.env.l)); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return nil, ErrParameterIO.Wrap(err)
	}
	if len(entries) != 1 || entries[0].IsDir() {
		return nil, ErrInvalidDocument.Wrapf("expected a single file for big parameter %s, got %d entries", name, len(entries))
	}
	data, err := os.ReadFile(filepath.Join(tmp, entries[0].Name()))
	if err != nil {
		return nil, ErrParameterIO.Wrap(err)
	}
	var content bigParameter
	if err = json.Unmarshal(data, &content); err != nil {
		return nil, ErrInvalidDocument.Wrap(err)
	}

	p := &Parameter{
		Name:           name,
		Type:           content.Type,
		Value:          content.Value,
		SaveAsArtifact: true,
	}
	if raw, isString := content.Value.(string); isString && content.Type != "" && !isStringType(content.Type) {
		p.Value, _ = TryDecode(s.env.codec, raw)
	}
	return p, nil
}

// ModifyOutputParameter sets the value of an output parameter.
//
// Values which are not strings are encoded with the codec. Parameters saved as artifacts,
// or exceeding the big parameter threshold when the step declares an artifact to hold them,
// are also stored in the backend.
func (s *Step) ModifyOutputParameter(ctx context.Context, name string, value interface{}) error {
	p, ok := s.Outputs.Parameters[name]
	if !ok {
		return ErrNoSuchParameter.Wrapf("%s", name)
	}

	encoded, isString := value.(string)
	if !isString {
		var err error
		if encoded, err = s.env.codec.Encode(value); err != nil {
			return err
		}
	}
	p.Value = encoded

	_, hasArtifact := s.Outputs.Artifacts[BigParameterPrefix+name]
	spill := p.SaveAsArtifact ||
		(hasArtifact && s.env.threshold >= 0 && int64(len(encoded)) > s.env.threshold)
	if !spill {
		return nil
	}
	return s.spillParameter(ctx, p)
}

func (s *Step) spillParameter(ctx context.Context, p *Parameter) (err error) {
	data, err := json.Marshal(bigParameter{Value: p.Value, Type: p.Type})
	if err != nil {
		return ErrInvalidDocument.Wrap(err)
	}

	a, ok := s.Outputs.Artifacts[BigParameterPrefix+p.Name]
	if !ok {
		a = &Artifact{Name: BigParameterPrefix + p.Name}
		s.Outputs.Artifacts[a.Name] = a
	}
	id := uuid.NewString()

	if s.env.cfg.Mode == artifact.ModeLocal {
		dir := filepath.Join(s.env.cfg.WorkDir, "upload", id)
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return ErrParameterIO.Wrap(err)
		}
		if err = os.WriteFile(filepath.Join(dir, p.Name), data, 0o600); err != nil {
			return ErrParameterIO.Wrap(err)
		}
		a.LocalPath = dir
		p.SaveAsArtifact = true
		return nil
	}
	if s.env.store == nil {
		return artifact.ErrArtifactNotFound.Wrapf("no backend to store parameter %s", p.Name)
	}

	tmp, err := os.MkdirTemp("", "stowage-bigpar-")
	if err != nil {
		return ErrParameterIO.Wrap(err)
	}
	defer func() {
		err = multierr.Append(err, os.RemoveAll(tmp))
	}()
	local := filepath.Join(tmp, p.Name)
	if err = os.WriteFile(local, data, 0o600); err != nil {
		return ErrParameterIO.Wrap(err)
	}

	key := path.Join(s.env.cfg.Prefix+"upload", id, p.Name)
	if err = s.env.store.Upload(ctx, key, local); err != nil {
		return err
	}
	s.env.l.Debug("spilled big parameter", zap.String("parameter", p.Name), zap.String("key", key))
	a.Key = key
	a.Archive = ArchiveNone
	p.SaveAsArtifact = true
	return nil
}
