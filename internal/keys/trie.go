package keys

import "fmt"

// Leaf is the payload stored at a trie node that terminates a bound key
// sequence.
type Leaf struct {
	KeyStr  string
	Command string
}

type node struct {
	children map[Token]*node
	leaf     *Leaf
}

func newNode() *node {
	return &node{children: make(map[Token]*node)}
}

func (n *node) isLeaf() bool {
	return n.leaf != nil
}

// MatchKind classifies the outcome of Trie.Match.
type MatchKind int

const (
	NoMatch MatchKind = iota
	Full
	Partial
)

// MatchResult is the result of walking the trie with a token sequence.
type MatchResult struct {
	Kind    MatchKind
	Command string       // valid when Kind == Full
	Leaves  []Leaf       // valid when Kind == Partial: every leaf under the matched prefix
}

// ShadowError is returned by Insert when the new key would shadow, or be
// shadowed by, an existing binding (spec.md §3: "A node may be a leaf OR
// have children, never both").
type ShadowError struct {
	New      string
	Existing string
}

func (e *ShadowError) Error() string {
	return fmt.Sprintf("keys: %q would shadow existing binding %q", e.New, e.Existing)
}

// Trie is a prefix tree of key Tokens, implementing spec.md §3/§4.2.
type Trie struct {
	root *node
	size int
}

// NewTrie returns an empty trie.
func NewTrie() *Trie {
	return &Trie{root: newNode()}
}

// Insert binds tokens to command. keyStr is the original string form,
// stored for iteration/completion purposes. Insert rejects any sequence
// whose proper prefix is already bound, or which is itself a proper prefix
// of an existing binding, detecting both directions of shadowing.
func (t *Trie) Insert(tokens []Token, keyStr, command string) error {
	if len(tokens) == 0 {
		return fmt.Errorf("keys: cannot insert empty token sequence")
	}

	n := t.root
	for i, tok := range tokens {
		if n.isLeaf() {
			return &ShadowError{New: keyStr, Existing: n.leaf.KeyStr}
		}
		child, ok := n.children[tok]
		if !ok {
			child = newNode()
			n.children[tok] = child
		}
		n = child
		if i == len(tokens)-1 {
			if n.isLeaf() {
				return &ShadowError{New: keyStr, Existing: n.leaf.KeyStr}
			}
			if len(n.children) > 0 {
				return &ShadowError{New: keyStr, Existing: firstLeafUnder(n).KeyStr}
			}
		}
	}
	n.leaf = &Leaf{KeyStr: keyStr, Command: command}
	t.size++
	return nil
}

// Delete removes the binding at tokens, if any, pruning empty ancestor
// chains up to the first node that still has another child or a leaf
// value (spec.md §3).
func (t *Trie) Delete(tokens []Token) error {
	if len(tokens) == 0 {
		return fmt.Errorf("keys: cannot delete empty token sequence")
	}

	path := make([]*node, 0, len(tokens)+1)
	path = append(path, t.root)
	n := t.root
	for _, tok := range tokens {
		child, ok := n.children[tok]
		if !ok {
			return fmt.Errorf("keys: no binding for %q", Join(tokens))
		}
		path = append(path, child)
		n = child
	}
	if !n.isLeaf() {
		return fmt.Errorf("keys: no binding for %q", Join(tokens))
	}
	n.leaf = nil
	t.size--

	for i := len(tokens) - 1; i >= 0; i-- {
		parent := path[i]
		child := path[i+1]
		if len(child.children) == 0 && !child.isLeaf() {
			delete(parent.children, tokens[i])
		} else {
			break
		}
	}
	return nil
}

// Match walks tokens from the root and reports NoMatch, Full, or Partial
// per the algorithm in spec.md §4.2.
func (t *Trie) Match(tokens []Token) MatchResult {
	n := t.root
	for _, tok := range tokens {
		child, ok := n.children[tok]
		if !ok {
			return MatchResult{Kind: NoMatch}
		}
		n = child
	}
	if n.isLeaf() {
		return MatchResult{Kind: Full, Command: n.leaf.Command}
	}
	leaves := collectLeaves(n)
	if len(leaves) == 0 {
		return MatchResult{Kind: NoMatch}
	}
	return MatchResult{Kind: Partial, Leaves: leaves}
}

// Has reports whether tokens names an existing leaf binding.
func (t *Trie) Has(tokens []Token) bool {
	return t.Match(tokens).Kind == Full
}

// Len returns the number of bound leaves.
func (t *Trie) Len() int {
	return t.size
}

// Leaves returns every bound leaf in the trie, in no particular order.
func (t *Trie) Leaves() []Leaf {
	return collectLeaves(t.root)
}

func collectLeaves(n *node) []Leaf {
	var out []Leaf
	if n.isLeaf() {
		out = append(out, *n.leaf)
	}
	for _, child := range n.children {
		out = append(out, collectLeaves(child)...)
	}
	return out
}

func firstLeafUnder(n *node) *Leaf {
	leaves := collectLeaves(n)
	if len(leaves) == 0 {
		return &Leaf{}
	}
	return &leaves[0]
}
