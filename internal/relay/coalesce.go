package relay

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/contactform/internal/contact"
)

// Coalescer collapses concurrent sends of the same submission into one
// network call.  A submission is the same when both the key (the CSRF token
// of the rendered form) and the payload match, so a double-click that slips
// past the disabled button still produces a single request, while a
// different payload posted with the same token gets its own.
//
// The shared call runs detached from any one caller and is cancelled only
// once every caller waiting on it has gone.  Each caller still returns as
// soon as its own context ends.
type Coalescer struct {
	next  contact.Sender
	group singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared context of one in-progress call.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewCoalescer wraps next.
func NewCoalescer(next contact.Sender) *Coalescer {
	return &Coalescer{next: next, flights: make(map[string]*flight)}
}

// For returns a contact.Sender bound to key.  An empty key disables
// coalescing.
func (c *Coalescer) For(key string) contact.Sender {
	return keyedSender{c: c, key: key}
}

type keyedSender struct {
	c   *Coalescer
	key string
}

func (k keyedSender) Send(ctx context.Context, p contact.SubmissionPayload) error {
	if k.key == "" {
		return k.c.next.Send(ctx, p)
	}

	key := flightKey(k.key, p)
	fl := k.c.join(key, ctx)
	defer k.c.leave(key, fl)

	ch := k.c.group.DoChan(key, func() (any, error) {
		return nil, k.c.next.Send(fl.ctx, p)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// join registers a waiter on key, creating the shared context on first use.
func (c *Coalescer) join(key string, ctx context.Context) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl, ok := c.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: fctx, cancel: cancel}
		c.flights[key] = fl
	}
	fl.waiters++
	return fl
}

// leave drops a waiter.  The last one out cancels the shared call and makes
// the next send with this key start afresh.
func (c *Coalescer) leave(key string, fl *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	if c.flights[key] == fl {
		delete(c.flights, key)
	}
	c.group.Forget(key)
}

// flightKey binds key to the exact payload.  Fields are length-prefixed so
// no two distinct payloads share a digest input.
func flightKey(key string, p contact.SubmissionPayload) string {
	h := sha256.New()
	var n [8]byte
	for _, s := range []string{p.Name, p.Email, p.Message} {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	return key + ":" + hex.EncodeToString(h.Sum(nil))
}
