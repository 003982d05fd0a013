package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oneconcern/stowage/pkg/artifact"
	"github.com/oneconcern/stowage/pkg/catalog"
	"github.com/oneconcern/stowage/pkg/errors"
	"github.com/oneconcern/stowage/pkg/slice"
	"github.com/oneconcern/stowage/pkg/storage"
	"github.com/oneconcern/stowage/pkg/storage/localfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const stepDoc = `{
  "id": "wf-123",
  "name": "wf.step",
  "displayName": "compute(0)",
  "phase": "Succeeded",
  "type": "Pod",
  "startedAt": "2024-01-02T03:04:05Z",
  "inputs": {
    "parameters": [
      {"name": "dflow_key", "value": "compute-0"},
      {"name": "n", "value": "3", "description": "{\"type\": \"int\"}"},
      {"name": "label", "value": "3", "description": "{\"type\": \"str\"}"},
      {"name": "broken", "value": "{not json", "description": "{\"type\": \"dict\"}"}
    ],
    "artifacts": [
      {"name": "data", "s3": {"key": "stowage/upload/x/data"}}
    ]
  },
  "outputs": {
    "parameters": [
      {"name": "result", "value": ""},
      {"name": "big", "value": "", "save_as_artifact": true, "description": "{\"type\": \"list\"}"},
      {"name": "dflow_out_path_list", "value": "[{\"dflow_list_item\": \"a.txt\", \"order\": 0}, {\"dflow_list_item\": null, \"order\": 1}, {\"dflow_list_item\": \"b.txt\", \"order\": 2}]"}
    ],
    "artifacts": [
      {"name": "out", "s3": {"key": "stowage/upload/y/out"}, "archive": {"none": {}}},
      {"name": "tarred", "s3": {"key": "stowage/upload/z/tarred.tgz"}},
      {"name": "dflow_bigpar_big"}
    ]
  }
}`

type stepFixture struct {
	cfg   artifact.Config
	store storage.Store
	work  string
}

func newStepFixture(t *testing.T) stepFixture {
	t.Helper()
	store, err := localfs.NewAt(t.TempDir())
	require.NoError(t, err)
	cfg := artifact.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	return stepFixture{cfg: cfg, store: store, work: cfg.WorkDir}
}

func (f stepFixture) parse(t *testing.T, doc string, opts ...Option) *Step {
	t.Helper()
	node, err := ParseNode([]byte(doc))
	require.NoError(t, err)
	opts = append([]Option{Backend(f.cfg, f.store), Logger(zaptest.NewLogger(t))}, opts...)
	step, err := ParseStep(context.Background(), node, opts...)
	require.NoError(t, err)
	return step
}

func TestParseStep(t *testing.T) {
	f := newStepFixture(t)
	step := f.parse(t, stepDoc)

	assert.Equal(t, "wf-123", step.ID)
	assert.Equal(t, "compute(0)", step.DisplayName)
	assert.Equal(t, "Succeeded", step.Phase)
	assert.Equal(t, "compute-0", step.Key)
	assert.Equal(t, 2024, step.StartedAt.Year())

	assert.Equal(t, float64(3), step.Inputs.Parameters["n"].Value)
	assert.Equal(t, "3", step.Inputs.Parameters["label"].Value)
	assert.Equal(t, "{not json", step.Inputs.Parameters["broken"].Value, "undecodable values are kept raw")

	assert.Equal(t, "stowage/upload/x/data", step.Inputs.Artifacts["data"].Key)
	assert.Equal(t, ArchiveNone, step.Outputs.Artifacts["out"].Archive)
	assert.Empty(t, step.Outputs.Artifacts["tarred"].Archive)
	assert.True(t, step.Outputs.Parameters["big"].SaveAsArtifact)

	assert.True(t, step.IsSliced("out"))
	assert.False(t, step.IsSliced("tarred"))

	_, err := ParseStep(context.Background(), NewNode([]interface{}{}))
	assert.True(t, errors.Is(err, ErrNotAMap))
}

func TestModifyOutputArtifact(t *testing.T) {
	f := newStepFixture(t)
	step := f.parse(t, stepDoc)

	require.NoError(t, step.ModifyOutputArtifact("tarred", artifact.Handle{Key: "stowage/new/loose"}))
	assert.Equal(t, "stowage/new/loose", step.Outputs.Artifacts["tarred"].Key)
	assert.Equal(t, ArchiveNone, step.Outputs.Artifacts["tarred"].Archive)

	require.NoError(t, step.ModifyOutputArtifact("out", artifact.Handle{Key: "stowage/new/packed.tgz"}))
	assert.Empty(t, step.Outputs.Artifacts["out"].Archive)

	require.NoError(t, step.ModifyOutputArtifact("out", artifact.LocalHandle("/tmp/somewhere")))
	assert.Equal(t, "/tmp/somewhere", step.Outputs.Artifacts["out"].LocalPath)

	err := step.ModifyOutputArtifact("nope", artifact.Handle{Key: "k"})
	assert.True(t, errors.Is(err, ErrNoSuchArtifact))
}

func TestBigParameterRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newStepFixture(t)
	step := f.parse(t, stepDoc)

	require.NoError(t, step.ModifyOutputParameter(ctx, "big", []int{1, 2, 3}))
	assert.Equal(t, "[1,2,3]", step.Outputs.Parameters["big"].Value)
	holder := step.Outputs.Artifacts["dflow_bigpar_big"]
	require.NotEmpty(t, holder.Key)
	assert.True(t, strings.HasPrefix(holder.Key, "stowage/upload/"))

	// a consumer sees the artifact but not the parameter, and promotes it
	consumer := f.parse(t, `{
	  "id": "c", "startedAt": "2024-01-02T03:04:05Z",
	  "inputs": {"artifacts": [{"name": "dflow_bigpar_big", "s3": {"key": "`+holder.Key+`"}}]}
	}`)
	p, ok := consumer.Inputs.Parameters["big"]
	require.True(t, ok)
	assert.True(t, p.SaveAsArtifact)
	assert.Equal(t, "list", p.Type)
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, p.Value)
}

func TestBigParameterBestEffort(t *testing.T) {
	f := newStepFixture(t)
	step := f.parse(t, `{
	  "id": "c",
	  "inputs": {"artifacts": [{"name": "dflow_bigpar_gone", "s3": {"key": "stowage/nowhere"}}]}
	}`)
	_, ok := step.Inputs.Parameters["gone"]
	assert.False(t, ok)
	assert.Contains(t, step.Inputs.Artifacts, "dflow_bigpar_gone")
}

func TestModifyOutputParameter(t *testing.T) {
	ctx := context.Background()
	f := newStepFixture(t)
	step := f.parse(t, stepDoc)

	require.NoError(t, step.ModifyOutputParameter(ctx, "result", "plain"))
	assert.Equal(t, "plain", step.Outputs.Parameters["result"].Value)

	require.NoError(t, step.ModifyOutputParameter(ctx, "result", map[string]int{"x": 1}))
	assert.Equal(t, `{"x":1}`, step.Outputs.Parameters["result"].Value)

	err := step.ModifyOutputParameter(ctx, "nope", 1)
	assert.True(t, errors.Is(err, ErrNoSuchParameter))
}

func TestModifyOutputParameterThreshold(t *testing.T) {
	ctx := context.Background()
	f := newStepFixture(t)
	step := f.parse(t, `{
	  "id": "s",
	  "outputs": {
	    "parameters": [{"name": "p", "value": ""}],
	    "artifacts": [{"name": "dflow_bigpar_p"}]
	  }
	}`, BigParameterThreshold(4))

	require.NoError(t, step.ModifyOutputParameter(ctx, "p", "tiny"))
	assert.Empty(t, step.Outputs.Artifacts["dflow_bigpar_p"].Key)

	require.NoError(t, step.ModifyOutputParameter(ctx, "p", "larger than four bytes"))
	assert.NotEmpty(t, step.Outputs.Artifacts["dflow_bigpar_p"].Key)
	assert.True(t, step.Outputs.Parameters["p"].SaveAsArtifact)

	size, err := ParseThreshold("1MiB")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), size)
}

func TestBigParameterLocalMode(t *testing.T) {
	ctx := context.Background()
	f := newStepFixture(t)
	f.cfg.Mode = artifact.ModeLocal
	step := f.parse(t, stepDoc)

	require.NoError(t, step.ModifyOutputParameter(ctx, "big", []string{"a"}))
	holder := step.Outputs.Artifacts["dflow_bigpar_big"]
	require.NotEmpty(t, holder.LocalPath)
	_, err := os.Stat(filepath.Join(holder.LocalPath, "big"))
	require.NoError(t, err)
}

func TestBigParameterLocalModeUnwritable(t *testing.T) {
	ctx := context.Background()
	f := newStepFixture(t)
	f.cfg.Mode = artifact.ModeLocal
	blocker := filepath.Join(f.work, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	f.cfg.WorkDir = blocker
	step := f.parse(t, stepDoc)

	err := step.ModifyOutputParameter(ctx, "big", []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParameterIO))
	assert.Empty(t, step.Outputs.Artifacts["dflow_bigpar_big"].LocalPath)
}

func TestSlicedOutputArtifact(t *testing.T) {
	ctx := context.Background()
	f := newStepFixture(t)
	for name, content := range map[string]string{"a.txt": "A", "b.txt": "B", "new0.txt": "N0", "new2.txt": "N2"} {
		require.NoError(t, os.WriteFile(filepath.Join(f.work, name), []byte(content), 0o600))
	}

	// the sliced output, as uploaded by the producers
	h, err := artifact.Upload(ctx, f.cfg, f.store, []*string{strp("a.txt"), nil, strp("b.txt")}, artifact.Archive(artifact.ArchiveNone))
	require.NoError(t, err)

	step := f.parse(t, stepDoc)
	require.NoError(t, step.ModifyOutputArtifact("out", h))

	entries, err := step.PathList("out")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[1].IsHole())

	dst := t.TempDir()
	require.NoError(t, step.DownloadSlicedOutputArtifact(ctx, "out", dst))
	data, err := os.ReadFile(filepath.Join(dst, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))

	// only two known items: two paths are required
	err = step.UploadAndModifySlicedOutputArtifact(ctx, "out", []string{"new0.txt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, slice.ErrSliceCountMismatch))

	require.NoError(t, step.UploadAndModifySlicedOutputArtifact(ctx, "out", []string{"new0.txt", "new2.txt"}))
	assert.NotEqual(t, h.Key, step.Outputs.Artifacts["out"].Key)

	paths, err := artifact.Download(ctx, f.cfg, f.store, step.Outputs.Artifacts["out"].Handle(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	require.NotNil(t, paths[2])
	assert.Equal(t, "new2.txt", filepath.Base(*paths[2]))

	err = step.DownloadSlicedOutputArtifact(ctx, "tarred", dst)
	assert.True(t, errors.Is(err, ErrNotSlicedOutput))
}

func strp(s string) *string { return &s }

func TestPathListDecodedValue(t *testing.T) {
	step := &Step{Outputs: newIO(), env: newEnv(nil)}
	step.Outputs.Parameters[PathListParameter("x")] = &Parameter{
		Name:  PathListParameter("x"),
		Value: []interface{}{map[string]interface{}{"dflow_list_item": "f", "order": float64(0)}},
	}
	entries, err := step.PathList("x")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, catalog.NewEntry("f", 0), entries[0])
}
