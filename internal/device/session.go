package device

import "sync"

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Session owns the current descriptor of one device.
//
// Consistency is structural rather than lock-heavy: the descriptor is
// always read or replaced as a whole unit, never mutated field-by-field,
// so concurrent readers observe either the old or the new complete
// descriptor, never a mix. The mutex only guards the pointer swap.
//
// All public methods are thread-safe.
type Session struct {
	mu   sync.RWMutex
	desc *Descriptor
}

// NewSession creates a session owning the given descriptor.
// The session takes a deep copy, so the caller keeps no shared reference.
func NewSession(desc *Descriptor) *Session {
	return &Session{desc: desc.DeepCopy()}
}

// GetID returns the current descriptor id.
// It changes only when UpdateRawData replaces the descriptor wholesale.
func (s *Session) GetID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.desc.ID
}

// GetDescription returns the summary projection of the current descriptor.
func (s *Session) GetDescription() Description {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.desc.Describe()
}

// GetData reads a datapoint or nested leaf from the current descriptor.
// See Descriptor.GetData for navigation and error semantics.
func (s *Session) GetData(managementPointID, datapointKey, subPath string) (any, error) {
	s.mu.RLock()
	desc := s.desc
	s.mu.RUnlock()

	return desc.GetData(managementPointID, datapointKey, subPath)
}

// UpdateRawData atomically replaces the entire descriptor.
//
// The previous descriptor is discarded; it is never merged with the new
// one. Callers that failed to produce a new descriptor (e.g. exhausted
// retries) simply do not call this, which leaves the previous descriptor
// authoritative and unchanged.
func (s *Session) UpdateRawData(desc *Descriptor) {
	cpy := desc.DeepCopy()

	s.mu.Lock()
	s.desc = cpy
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current descriptor.
// The copy is the caller's to keep; it shares no substructure with the
// session's tree and survives later replacements unchanged.
func (s *Session) Snapshot() *Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.desc.DeepCopy()
}

// Sessions is the thread-safe collection of device sessions, keyed by
// descriptor id. The sync loop upserts into it on every refresh; readers
// look sessions up by device id.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   Logger
}

// NewSessions creates an empty session collection.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the collection.
func (c *Sessions) SetLogger(logger Logger) {
	c.logger = logger
}

// Get retrieves the session for a device id.
// Returns ErrSessionNotFound if the device has never been fetched.
func (c *Sessions) Get(id string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Upsert replaces the descriptor of an existing session, or creates a
// new session when the device appears for the first time. It returns the
// session holding the descriptor.
func (c *Sessions) Upsert(desc *Descriptor) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[desc.ID]; ok {
		s.UpdateRawData(desc)
		c.logger.Debug("session descriptor replaced", "id", desc.ID)
		return s
	}

	s := NewSession(desc)
	c.sessions[desc.ID] = s
	c.logger.Info("session created", "id", desc.ID, "model", desc.DeviceModel)
	return s
}

// Remove discards the session for a device id, ending its descriptor's
// lifecycle. Removing an unknown id is a no-op.
func (c *Sessions) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[id]; ok {
		delete(c.sessions, id)
		c.logger.Info("session removed", "id", id)
	}
}

// IDs returns the ids of all tracked sessions.
func (c *Sessions) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of tracked sessions.
func (c *Sessions) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
