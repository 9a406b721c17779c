package bridge

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/nghyane/oc-bridge/internal/backend"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"golang.org/x/sync/singleflight"
)

// SessionCreator opens backend sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, workspace, mode string) (*backend.Session, error)
}

// SessionManager holds at most one backend session id.
//
// Concurrent Ensure calls share a single in-flight creation. Every Invalidate
// or Reset bumps a generation counter; a creation started under an older
// generation still answers its callers but is not stored.
type SessionManager struct {
	creator   SessionCreator
	workspace string

	mu  sync.Mutex
	id  string
	gen uint64

	group singleflight.Group
}

// NewSessionManager creates a manager that opens sessions in workspace.
func NewSessionManager(creator SessionCreator, workspace string) *SessionManager {
	return &SessionManager{creator: creator, workspace: workspace}
}

// Ensure returns the held session id, creating one when none is held.
func (m *SessionManager) Ensure(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.id != "" {
		id := m.id
		m.mu.Unlock()
		return id, nil
	}
	gen := m.gen
	m.mu.Unlock()

	// The flight outlives any single caller so one cancelled request does not
	// fail the others waiting on it.
	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return m.createFor(flightCtx, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrBackendUnavailable, ctx.Err())
	}
}

// createFor runs one flight for generation gen. An earlier flight of the
// same generation may have finished between the caller's check and this
// flight starting; its id is reused instead of opening a second session.
func (m *SessionManager) createFor(ctx context.Context, gen uint64) (string, error) {
	m.mu.Lock()
	if m.gen == gen && m.id != "" {
		id := m.id
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	id, err := m.create(ctx)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	if m.gen == gen {
		m.id = id
	}
	m.mu.Unlock()
	return id, nil
}

// Reset creates a new session unconditionally and replaces the held id.
// On failure no id is held afterwards.
func (m *SessionManager) Reset(ctx context.Context) (string, error) {
	id, err := m.create(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if err != nil {
		m.id = ""
		return "", err
	}
	m.id = id
	return id, nil
}

// Invalidate drops the held id without contacting the backend.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	m.gen++
	m.id = ""
	m.mu.Unlock()
}

// Active reports whether a session id is held.
func (m *SessionManager) Active() bool {
	return m.ID() != ""
}

// ID returns the held session id, or "" when none.
func (m *SessionManager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *SessionManager) create(ctx context.Context) (string, error) {
	sess, err := m.creator.CreateSession(ctx, m.workspace, backend.ModeAgent)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if sess == nil || sess.ID == "" {
		return "", fmt.Errorf("%w: backend returned no session id", ErrBackendUnavailable)
	}
	log.Debugf("backend session created: %s", sess.ID)
	return sess.ID, nil
}
