package workflow

import (
	"testing"

	"github.com/oneconcern/stowage/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeAccessors(t *testing.T) {
	n, err := ParseNode([]byte(`{"a": {"b": [1, "two", null]}, "s": "str"}`))
	require.NoError(t, err)
	assert.Equal(t, KindMap, n.Kind())
	assert.Equal(t, []string{"a", "s"}, n.Keys())

	two, err := n.Path("a", "b", "1")
	require.NoError(t, err)
	s, err := two.Str()
	require.NoError(t, err)
	assert.Equal(t, "two", s)

	third, err := n.Path("a", "b", "2")
	require.NoError(t, err)
	assert.True(t, third.IsNull())

	_, err = n.Get("missing")
	assert.True(t, errors.Is(err, ErrNoSuchKey))

	_, err = n.Path("s", "x")
	assert.True(t, errors.Is(err, ErrNotAMap))

	_, err = n.Index(0)
	assert.True(t, errors.Is(err, ErrNotAList))

	_, err = n.Path("a", "b", "7")
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = n.Lookup("a").Str()
	assert.True(t, errors.Is(err, ErrNotAString))

	assert.True(t, n.Lookup("a", "nope", "deeper").IsNull())
	assert.Equal(t, "default", n.Lookup("nope").StrOr("default"))
	assert.Equal(t, 3, n.Lookup("a", "b").Len())
}

func TestNodeRoundTrip(t *testing.T) {
	n, err := ParseNode([]byte(`{"a": [1, {"b": true}]}`))
	require.NoError(t, err)

	require.NoError(t, n.Set("c", "added"))
	n.Delete("a")

	data, err := n.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"c": "added"}`, string(data))

	var decoded Node
	require.NoError(t, decoded.UnmarshalJSON([]byte(`[1, 2]`)))
	assert.Equal(t, KindList, decoded.Kind())
	assert.Len(t, decoded.Items(), 2)

	require.Error(t, decoded.Set("x", 1))

	_, err = ParseNode([]byte(`{`))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

type failingCodec struct{}

func (failingCodec) Encode(interface{}) (string, error) { return "", errors.New("nope") }
func (failingCodec) Decode(string) (interface{}, error) { return nil, errors.New("nope") }

func TestTryDecode(t *testing.T) {
	v, ok := TryDecode(JSONCodec{}, `{"x": 1}`)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"x": float64(1)}, v)

	v, ok = TryDecode(failingCodec{}, "raw")
	assert.False(t, ok)
	assert.Equal(t, "raw", v)
}

func TestParseYAMLNode(t *testing.T) {
	n, err := ParseNode([]byte(`
status:
  nodes:
    wf-1:
      phase: Succeeded
      startedAt: "2026-10-17T10:00:00Z"
      outputs:
        parameters:
          - name: n
            value: "3"
`))
	require.NoError(t, err)
	assert.Equal(t, "Succeeded", n.Lookup("status", "nodes", "wf-1", "phase").StrOr(""))
	assert.Equal(t, 1, n.Lookup("status", "nodes", "wf-1", "outputs", "parameters").Len())

	_, err = ParseNode([]byte("a: [b"))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}
