// Package shortcuts builds the lookup structure that maps typed key
// sequences to workflows for the current frontmost application.
package shortcuts

import (
	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/models"
)

// MatchKind is the outcome of a lookup.
type MatchKind int

const (
	None MatchKind = iota
	Partial
	Complete
)

func (k MatchKind) String() string {
	switch k {
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	}
	return "none"
}

// Entry is one registered sequence.
type Entry struct {
	Sequence []models.KeyShortcut
	Workflow *models.Workflow
	Group    *models.Group
}

// Match is the result of looking up a candidate sequence.
type Match struct {
	Kind     MatchKind
	Workflow *models.Workflow
	Group    *models.Group
}

type node struct {
	children map[string]*node
	entry    *Entry
}

func (n *node) child(id string, create bool) *node {
	if c, ok := n.children[id]; ok || !create {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c := &node{}
	n.children[id] = c
	return c
}

// Index is an immutable trie of key sequences. Lookups cost one map access per
// key in the candidate sequence.
type Index struct {
	root      node
	control   node
	entries   []Entry
	frontmost string
}

// KeyNames rewrites configured shortcuts to the spelling the event tap
// produces for the same physical key. *keycodes.Resolver implements it.
type KeyNames interface {
	Canonical(models.KeyShortcut) (models.KeyShortcut, error)
}

// Builder rebuilds indexes and caches compiled scope rules between rebuilds.
type Builder struct {
	keys   KeyNames
	rules  *ruleCache
	logger *logrus.Entry
}

// NewBuilder creates a Builder. With nil keys, configured shortcuts are
// indexed as written.
func NewBuilder(keys KeyNames) *Builder {
	return &Builder{keys: keys, rules: newRuleCache(), logger: logging.NewLogger("shortcuts")}
}

// canonical rewrites seq through b.keys. A key the layout cannot produce
// makes the whole sequence unreachable.
func (b *Builder) canonical(seq []models.KeyShortcut) ([]models.KeyShortcut, error) {
	if b.keys == nil {
		return seq, nil
	}
	out := make([]models.KeyShortcut, len(seq))
	for i, ks := range seq {
		c, err := b.keys.Canonical(ks)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Rebuild indexes every enabled keyboard-triggered workflow of the groups in
// scope for env. Triggers are canonicalized through the builder's KeyNames
// first. Groups are visited in order and the first registration of a
// sequence wins. The groups slice must not be mutated afterwards.
//
// Workflows that can re-enable the engine are also registered in a separate
// control index regardless of group scope, so they stay reachable while the
// engine is disabled.
func (b *Builder) Rebuild(groups []models.Group, env Environment) *Index {
	ix := &Index{frontmost: env.Frontmost}

	for gi := range groups {
		group := &groups[gi]
		inScope, err := b.rules.inScope(group.Rule, env)
		if err != nil {
			b.logger.WithError(err).WithField("group", group.Name).Warn("Skipping group with broken rule")
			continue
		}
		for wi := range group.Workflows {
			wf := &group.Workflows[wi]
			if !wf.Enabled || len(wf.KeySequence()) == 0 {
				continue
			}
			seq, err := b.canonical(wf.KeySequence())
			if err != nil {
				b.logger.WithError(err).WithFields(logrus.Fields{
					"group":    group.Name,
					"workflow": wf.Name,
				}).Warn("Skipping trigger with unresolved key")
				continue
			}
			entry := Entry{Sequence: seq, Workflow: wf, Group: group}
			if wf.IsControl() {
				insert(&ix.control, entry)
			}
			if !inScope {
				continue
			}
			if insert(&ix.root, entry) {
				ix.entries = append(ix.entries, entry)
			} else {
				b.logger.WithFields(logrus.Fields{
					"group":    group.Name,
					"workflow": wf.Name,
					"sequence": models.SequenceID(seq),
				}).Debug("Sequence already bound by an earlier group")
			}
		}
	}

	b.logger.WithFields(logrus.Fields{
		"frontmost": env.Frontmost,
		"entries":   len(ix.entries),
	}).Debug("Rebuilt shortcut index")
	return ix
}

// insert registers entry unless the sequence is already taken.
func insert(root *node, entry Entry) bool {
	n := root
	for _, ks := range entry.Sequence {
		n = n.child(ks.ID(), true)
	}
	if n.entry != nil {
		return false
	}
	e := entry
	n.entry = &e
	return true
}

func lookup(root *node, seq []models.KeyShortcut) Match {
	if len(seq) == 0 {
		return Match{}
	}
	n := root
	for _, ks := range seq {
		if n = n.child(ks.ID(), false); n == nil {
			return Match{}
		}
	}
	if n.entry != nil {
		return Match{Kind: Complete, Workflow: n.entry.Workflow, Group: n.entry.Group}
	}
	if len(n.children) > 0 {
		return Match{Kind: Partial}
	}
	return Match{}
}

// Match looks a candidate sequence up. A complete match wins over a longer
// sequence sharing the same prefix.
func (ix *Index) Match(seq []models.KeyShortcut) Match {
	if ix == nil {
		return Match{}
	}
	return lookup(&ix.root, seq)
}

// MatchControl looks a candidate sequence up among the control workflows only.
func (ix *Index) MatchControl(seq []models.KeyShortcut) Match {
	if ix == nil {
		return Match{}
	}
	return lookup(&ix.control, seq)
}

// Entries returns the registered sequences in registration order.
func (ix *Index) Entries() []Entry {
	if ix == nil {
		return nil
	}
	return ix.entries
}

// Len returns the number of registered sequences.
func (ix *Index) Len() int {
	return len(ix.Entries())
}

// Frontmost returns the bundle identifier the index was built for.
func (ix *Index) Frontmost() string {
	if ix == nil {
		return ""
	}
	return ix.frontmost
}
