package secret

// Store abstracts a secure credentials store (e.g., OS keyring).
// Implementations should be safe to call from multiple goroutines.
type Store interface {
	Get(host, share string) (domain, user, pass string, found bool, err error)
	Set(host, share, domain, user, pass string) error
	Delete(host, share string) error
}

// Credentials is one stored login for a host/share pair.
type Credentials struct {
	Domain string
	User   string
	Pass   string
}

// memoryStore keeps credentials for the session only. It is the
// fallback when no OS keyring is available, and the store used in
// tests.
type memoryStore struct {
	creds map[string]Credentials
}

// NewMemoryStore creates a session-only store.
func NewMemoryStore() Store {
	return &memoryStore{creds: make(map[string]Credentials)}
}

func (s *memoryStore) Get(host, share string) (string, string, string, bool, error) {
	c, ok := s.creds[makeKey(host, share)]
	if !ok {
		return "", "", "", false, nil
	}
	return c.Domain, c.User, c.Pass, true, nil
}

func (s *memoryStore) Set(host, share, domain, user, pass string) error {
	s.creds[makeKey(host, share)] = Credentials{Domain: domain, User: user, Pass: pass}
	return nil
}

func (s *memoryStore) Delete(host, share string) error {
	delete(s.creds, makeKey(host, share))
	return nil
}

// Open returns the OS keyring store, falling back to a session-only
// memory store when the keyring cannot be opened.
func Open() Store {
	if s, err := NewKeyringStore(); err == nil {
		return s
	}
	return NewMemoryStore()
}
