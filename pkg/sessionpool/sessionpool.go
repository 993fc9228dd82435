// Package sessionpool caches the live driver sessions liscaind's
// driver.Registry entries dial through, so a SessionFor callback reuses an
// already-connected session instead of reconnecting on every Task step.
package sessionpool

import (
	"context"
	"sync"

	"github.com/liscain-net/liscain/pkg/device"
	"github.com/liscain-net/liscain/pkg/driver/iosdriver"
	"github.com/liscain-net/liscain/pkg/driver/sonicdriver"
)

// Pool caches one live session of type S per device ID, dialing lazily via
// connect and discarding a cached session once isDead reports it unusable.
type Pool[S any] struct {
	connect func(ctx context.Context, d *device.Device) (S, error)
	isDead  func(S) bool

	mu       sync.Mutex
	sessions map[int64]S
}

// New returns a Pool that dials new sessions with connect and evicts ones
// isDead reports dead before handing them back out.
func New[S any](connect func(ctx context.Context, d *device.Device) (S, error), isDead func(S) bool) *Pool[S] {
	return &Pool[S]{
		connect:  connect,
		isDead:   isDead,
		sessions: make(map[int64]S),
	}
}

// Get returns d's cached session, dialing a new one if none is cached or
// the cached one has gone dead.
func (p *Pool[S]) Get(ctx context.Context, d *device.Device) (S, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess, ok := p.sessions[d.ID]; ok && !p.isDead(sess) {
		return sess, nil
	}

	sess, err := p.connect(ctx, d)
	if err != nil {
		var zero S
		return zero, err
	}
	p.sessions[d.ID] = sess
	return sess, nil
}

// Drop discards d's cached session without closing it; callers that need
// a clean disconnect should do so before calling Drop.
func (p *Pool[S]) Drop(d *device.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, d.ID)
}

// NewSonicPool returns a Pool of SONiC sessions, connecting over an SSH
// tunnel when sshUser/sshPass are set and reusing a cached connection as
// long as it reports itself connected.
func NewSonicPool(sshUser, sshPass string, sshPort int) *Pool[*sonicdriver.Session] {
	return New(
		func(ctx context.Context, d *device.Device) (*sonicdriver.Session, error) {
			sess := sonicdriver.NewSession(d.Identifier, d.Address, sshUser, sshPass, sshPort)
			if err := sess.Connect(ctx); err != nil {
				return nil, err
			}
			return sess, nil
		},
		func(sess *sonicdriver.Session) bool { return !sess.IsConnected() },
	)
}

// NewIOSPool returns a Pool of IOS SSH-shell sessions. A cached session is
// pinged before reuse since a Configure-triggered reload drops the
// connection without the pool ever hearing about it directly.
func NewIOSPool(username, password string) *Pool[*iosdriver.Session] {
	return New(
		func(ctx context.Context, d *device.Device) (*iosdriver.Session, error) {
			return iosdriver.Dial(d.Identifier, d.Address, username, password)
		},
		func(sess *iosdriver.Session) bool { return sess.Ping() != nil },
	)
}
