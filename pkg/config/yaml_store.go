package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"livetunnel/pkg/logging"

	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk YAML layout.
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// YAMLStore keeps all profiles in a single YAML file. A missing file is
// the empty store; a corrupt file is a hard error so a typo cannot
// silently wipe saved profiles.
type YAMLStore struct {
	profiles []Profile
	mutex    sync.RWMutex
	filePath string
}

// NewYAMLStore loads (or initializes) the store at filePath.
func NewYAMLStore(filePath string) (*YAMLStore, error) {
	s := &YAMLStore{filePath: filePath}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *YAMLStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		logging.Debugf("profile file %s does not exist yet, starting empty", s.filePath)
		s.profiles = nil
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read profile file %s: %w", s.filePath, err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse profile file %s: %w", s.filePath, err)
	}

	seen := make(map[string]bool)
	for _, p := range pf.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile file %s: %w", s.filePath, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("profile file %s: duplicate profile name %q", s.filePath, p.Name)
		}
		seen[p.Name] = true
	}

	s.profiles = pf.Profiles
	logging.Debugf("loaded %d profile(s) from %s", len(s.profiles), s.filePath)
	return nil
}

// persist writes through a temp file and renames, so a failed write
// never leaves a truncated store behind.
func (s *YAMLStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(profileFile{Profiles: s.profiles})
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace profile file: %w", err)
	}
	return nil
}

func (s *YAMLStore) Get(name string) (Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, p := range s.profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
}

func (s *YAMLStore) Save(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	replaced := false
	for i := range s.profiles {
		if s.profiles[i].Name == p.Name {
			s.profiles[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.profiles = append(s.profiles, p)
	}

	if err := s.persist(); err != nil {
		return err
	}
	logging.Debugf("saved profile %q (%d total)", p.Name, len(s.profiles))
	return nil
}

func (s *YAMLStore) List() ([]Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Profile, len(s.profiles))
	copy(out, s.profiles)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *YAMLStore) Delete(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.profiles {
		if s.profiles[i].Name == name {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			if err := s.persist(); err != nil {
				return err
			}
			logging.Debugf("deleted profile %q", name)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
}

func (s *YAMLStore) Close() error {
	return nil
}
