package lifecycle

import (
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Manager owns the outbound clients of an App. Close releases them last in,
// first out and is safe to call more than once.
type Manager struct {
	mu        sync.Mutex
	closed    bool
	resources []resource
}

type resource struct {
	name   string
	closer io.Closer
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a named resource. Registering after Close closes it at once.
func (m *Manager) Register(name string, closer io.Closer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return closeOne(resource{name: name, closer: closer})
	}
	m.resources = append(m.resources, resource{name: name, closer: closer})
	return nil
}

// RegisterFunc registers a cleanup function.
func (m *Manager) RegisterFunc(name string, fn func() error) error {
	return m.Register(name, closerFunc(fn))
}

// Close closes every registered resource and joins their errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for i := len(m.resources) - 1; i >= 0; i-- {
		if err := closeOne(m.resources[i]); err != nil {
			errs = append(errs, err)
		}
	}
	m.resources = nil
	return errors.Join(errs...)
}

func closeOne(res resource) error {
	if err := res.closer.Close(); err != nil {
		log.Error().
			Err(err).
			Str("resource", res.name).
			Msg("lifecycle.close_resource_failed")
		return err
	}
	log.Debug().Str("resource", res.name).Msg("lifecycle.closed")
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
