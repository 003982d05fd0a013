// Copyright © 2018 One Concern

package workflow

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/ghodss/yaml"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind of node
type Kind uint8

// Node kinds
const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Node of a decoded JSON document.
//
// Accessors fail explicitly on missing keys or unexpected kinds.
type Node struct {
	kind   Kind
	scalar interface{}
	list   []*Node
	fields map[string]*Node
}

// ParseNode decodes a JSON document. YAML documents, as output by kubectl, are accepted too.
func ParseNode(data []byte) (*Node, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		converted, err := yaml.YAMLToJSON(trimmed)
		if err != nil {
			return nil, ErrInvalidDocument.Wrap(err)
		}
		data = converted
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, ErrInvalidDocument.Wrap(err)
	}
	return NewNode(v), nil
}

// NewNode builds a tree from plain values, as decoded from JSON
func NewNode(v interface{}) *Node {
	switch value := v.(type) {
	case nil:
		return &Node{kind: KindNull}
	case *Node:
		return value
	case map[string]interface{}:
		n := &Node{kind: KindMap, fields: make(map[string]*Node, len(value))}
		for k, child := range value {
			n.fields[k] = NewNode(child)
		}
		return n
	case []interface{}:
		n := &Node{kind: KindList, list: make([]*Node, 0, len(value))}
		for _, child := range value {
			n.list = append(n.list, NewNode(child))
		}
		return n
	default:
		return &Node{kind: KindScalar, scalar: value}
	}
}

// Kind of the node
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsNull tells if the node is null or missing
func (n *Node) IsNull() bool {
	return n.Kind() == KindNull
}

// Get the child of a map node
func (n *Node) Get(key string) (*Node, error) {
	if n.Kind() != KindMap {
		return nil, ErrNotAMap.Wrapf("looking up %q in a %v", key, n.Kind())
	}
	child, ok := n.fields[key]
	if !ok {
		return nil, ErrNoSuchKey.Wrapf("%q", key)
	}
	return child, nil
}

// Has tells if a map node has some key
func (n *Node) Has(key string) bool {
	_, err := n.Get(key)
	return err == nil
}

// Index the child of a list node
func (n *Node) Index(i int) (*Node, error) {
	if n.Kind() != KindList {
		return nil, ErrNotAList.Wrapf("indexing a %v", n.Kind())
	}
	if i < 0 || i >= len(n.list) {
		return nil, ErrIndexOutOfRange.Wrapf("%d of %d", i, len(n.list))
	}
	return n.list[i], nil
}

// Path follows keys through nested maps. Keys which are integers index lists.
func (n *Node) Path(keys ...string) (*Node, error) {
	current := n
	for _, key := range keys {
		var err error
		if current.Kind() == KindList {
			i, erc := strconv.Atoi(key)
			if erc != nil {
				return nil, ErrNotAMap.Wrapf("looking up %q in a list", key)
			}
			current, err = current.Index(i)
		} else {
			current, err = current.Get(key)
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Len of a list or map node
func (n *Node) Len() int {
	switch n.Kind() {
	case KindList:
		return len(n.list)
	case KindMap:
		return len(n.fields)
	default:
		return 0
	}
}

// Keys of a map node, in lexical order
func (n *Node) Keys() []string {
	if n.Kind() != KindMap {
		return nil
	}
	keys := make([]string, 0, len(n.fields))
	for k := range n.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items of a list node
func (n *Node) Items() []*Node {
	if n.Kind() != KindList {
		return nil
	}
	return append([]*Node(nil), n.list...)
}

// Scalar value of the node
func (n *Node) Scalar() interface{} {
	if n.Kind() != KindScalar {
		return nil
	}
	return n.scalar
}

// Str yields the value of a string node
func (n *Node) Str() (string, error) {
	s, ok := n.Scalar().(string)
	if !ok {
		return "", ErrNotAString.Wrapf("%v", n.Kind())
	}
	return s, nil
}

// StrOr yields the value of a string node, or a default value
func (n *Node) StrOr(def string) string {
	s, err := n.Str()
	if err != nil {
		return def
	}
	return s
}

// Lookup follows a path of keys, yielding a null node when any is missing
func (n *Node) Lookup(keys ...string) *Node {
	child, err := n.Path(keys...)
	if err != nil {
		return &Node{kind: KindNull}
	}
	return child
}

// Set a key in a map node
func (n *Node) Set(key string, v interface{}) error {
	if n.Kind() != KindMap {
		return ErrNotAMap.Wrapf("setting %q in a %v", key, n.Kind())
	}
	n.fields[key] = NewNode(v)
	return nil
}

// Delete a key from a map node
func (n *Node) Delete(key string) {
	if n.Kind() == KindMap {
		delete(n.fields, key)
	}
}

// Value converts the tree back to plain values
func (n *Node) Value() interface{} {
	switch n.Kind() {
	case KindMap:
		res := make(map[string]interface{}, len(n.fields))
		for k, child := range n.fields {
			res[k] = child.Value()
		}
		return res
	case KindList:
		res := make([]interface{}, 0, len(n.list))
		for _, child := range n.list {
			res = append(res, child.Value())
		}
		return res
	case KindScalar:
		return n.scalar
	default:
		return nil
	}
}

// MarshalJSON encodes the tree
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value())
}

// UnmarshalJSON decodes the tree
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := ParseNode(data)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}
