package identity

import (
	"slices"
	"sync"

	"github.com/mmcdole/homestead/internal/domain"
)

// Channel is an in-process domain.IdentityChannel.
//
// Until the first Publish nothing is delivered (identity unknown). After that
// every new subscriber receives the current identity during Subscribe, and
// every Publish reaches all live subscribers in order.
//
// Deliveries are serialized through a FIFO and no lock is held while a
// callback runs. A Publish or Subscribe made from inside a callback, or while
// another goroutine is dispatching, is queued and delivered by the
// dispatching goroutine once the running callback returns.
type Channel struct {
	mu          sync.Mutex
	resolved    bool
	current     *domain.Identity
	subs        map[uint64]func(*domain.Identity)
	nextID      uint64
	queue       []delivery
	dispatching bool
}

// delivery is one pending callback invocation
type delivery struct {
	subID    uint64
	identity *domain.Identity
}

// NewChannel creates a channel in the unknown state
func NewChannel() *Channel {
	return &Channel{subs: make(map[uint64]func(*domain.Identity))}
}

// Subscribe implements domain.IdentityChannel
func (c *Channel) Subscribe(onChange func(*domain.Identity)) domain.Subscription {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = onChange
	if c.resolved {
		c.queue = append(c.queue, delivery{subID: id, identity: copyIdentity(c.current)})
	}
	c.mu.Unlock()

	c.dispatch()
	return &subscription{channel: c, id: id}
}

// Publish records identity (nil = signed out) and delivers it
func (c *Channel) Publish(identity *domain.Identity) {
	c.mu.Lock()
	c.resolved = true
	c.current = copyIdentity(identity)
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		c.queue = append(c.queue, delivery{subID: id, identity: copyIdentity(identity)})
	}
	c.mu.Unlock()

	c.dispatch()
}

// dispatch drains the queue unless another call is already draining it
func (c *Channel) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true

	for len(c.queue) > 0 {
		d := c.queue[0]
		c.queue = c.queue[1:]
		// Subscribers unsubscribed since queuing are skipped
		fn, ok := c.subs[d.subID]
		c.mu.Unlock()

		if ok {
			fn(d.identity)
		}

		c.mu.Lock()
	}

	c.queue = nil
	c.dispatching = false
	c.mu.Unlock()
}

// Current returns the last published identity and whether any was published
func (c *Channel) Current() (*domain.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyIdentity(c.current), c.resolved
}

// Subscribers returns the number of live subscriptions
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

type subscription struct {
	channel *Channel
	id      uint64
}

func (s *subscription) Unsubscribe() {
	s.channel.mu.Lock()
	delete(s.channel.subs, s.id)
	s.channel.mu.Unlock()
}

func copyIdentity(identity *domain.Identity) *domain.Identity {
	if identity == nil {
		return nil
	}
	cp := *identity
	return &cp
}
