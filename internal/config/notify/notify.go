// Package notify delivers configuration change notifications.
//
// After a reload the previous and fresh validated values are compared leaf
// by leaf and every difference is sent to the observers subscribed to that
// path or one of its parents.
package notify

import (
	"reflect"
	"sort"
	"sync"

	"github.com/dshills/modcore/internal/config/schema"
)

// ChangeType represents the type of configuration change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeReload indicates the entire configuration was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a configuration change event.
type Change struct {
	// Path is the dot-separated path to the changed setting.
	// Empty for reload events.
	Path string

	// Type is the type of change.
	Type ChangeType

	// OldValue is the previous value (may be nil).
	OldValue any

	// NewValue is the new value.
	NewValue any

	// Source identifies where the change came from.
	Source string
}

// Observer is called when configuration changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	id       uint64
	path     string
	observer Observer
}

// Notifier manages configuration change subscriptions. Observers run
// synchronously, in subscription order, outside the notifier's lock.
type Notifier struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribePath("", observer)
}

// SubscribePath registers an observer for changes to a specific path.
// The observer is called for exact matches and for changes below it.
// For example, subscribing to "Feature" receives changes to
// "Feature.Threshold". Reload events reach every observer.
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscriber{id: id, path: path, observer: observer})

	return &Subscription{id: id, notifier: n}
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	var observers []Observer
	for _, s := range n.subs {
		if change.Path == "" || s.path == change.Path || isParentPath(s.path, change.Path) {
			observers = append(observers, s.observer)
		}
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

// NotifyReload sends a reload event.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Publish sends every change, then a reload event.
func (n *Notifier) Publish(changes []Change, source string) {
	for _, c := range changes {
		c.Source = source
		n.Notify(c)
	}
	n.NotifyReload(source)
}

// Len returns the number of subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// isParentPath checks if parent is a parent path of child.
// e.g., "Feature" is parent of "Feature.Threshold".
func isParentPath(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	if parent == "" {
		return true
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}

// Diff compares two sets of validated values and returns one ChangeSet
// per leaf whose value differs, sorted by path. A nil old set reports
// every leaf of the new one.
func Diff(old, cur *schema.Values) []Change {
	var changes []Change
	if cur == nil {
		return nil
	}
	cur.Schema().Walk(func(path string, node *schema.Node) bool {
		if path == "" || node.IsGroup() {
			return true
		}
		nv, _ := cur.Get(path)
		var ov any
		if old != nil {
			ov, _ = old.Get(path)
		}
		if !reflect.DeepEqual(ov, nv) {
			changes = append(changes, Change{Path: path, Type: ChangeSet, OldValue: ov, NewValue: nv})
		}
		return true
	})
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}
