package secret

import (
	"encoding/json"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "vdir.smb"

// keyringStore persists credentials in the OS keyring, one item per
// host/share pair with the Credentials struct JSON-encoded in the
// item data.
type keyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the OS keyring. Callers fall back to a
// memory store when this fails.
func NewKeyringStore() (Store, error) {
	r, err := keyring.Open(keyring.Config{ServiceName: serviceName})
	if err != nil {
		return nil, err
	}
	return &keyringStore{ring: r}, nil
}

func makeKey(host, share string) string { return fmt.Sprintf("%s|%s", host, share) }

func (s *keyringStore) Get(host, share string) (domain, user, pass string, found bool, err error) {
	item, err := s.ring.Get(makeKey(host, share))
	if err == keyring.ErrKeyNotFound {
		return "", "", "", false, nil
	}
	if err != nil {
		return "", "", "", false, err
	}
	var c Credentials
	if err := json.Unmarshal(item.Data, &c); err != nil {
		return "", "", "", false, fmt.Errorf("decoding keyring item %s: %w", item.Key, err)
	}
	return c.Domain, c.User, c.Pass, true, nil
}

func (s *keyringStore) Set(host, share, domain, user, pass string) error {
	data, err := json.Marshal(Credentials{Domain: domain, User: user, Pass: pass})
	if err != nil {
		return err
	}
	label := share
	if domain != "" {
		label = domain + "\\" + share
	}
	return s.ring.Set(keyring.Item{
		Key:         makeKey(host, share),
		Data:        data,
		Label:       label,
		Description: serviceName,
	})
}

func (s *keyringStore) Delete(host, share string) error {
	return s.ring.Remove(makeKey(host, share))
}
