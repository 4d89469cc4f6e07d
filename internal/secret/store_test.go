package secret

import "testing"

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Set("fileserver", "media", "WORKGROUP", "alice", "s3cret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	domain, user, pass, found, err := s.Get("fileserver", "media")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected credentials to be found")
	}
	if domain != "WORKGROUP" || user != "alice" || pass != "s3cret" {
		t.Errorf("Expected WORKGROUP/alice/s3cret, got %s/%s/%s", domain, user, pass)
	}
}

func TestMemoryStoreMissAndDelete(t *testing.T) {
	s := NewMemoryStore()

	_, _, _, found, err := s.Get("nowhere", "nothing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("Expected no credentials for unknown key")
	}

	if err := s.Set("fileserver", "media", "", "bob", "pw"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete("fileserver", "media"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, _, _, found, _ = s.Get("fileserver", "media")
	if found {
		t.Error("Expected credentials gone after delete")
	}
}

func TestKeysAreShareScoped(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Set("fileserver", "media", "", "alice", "a"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	_, _, _, found, _ := s.Get("fileserver", "backup")
	if found {
		t.Error("Expected share-scoped keys, got a cross-share hit")
	}
}
