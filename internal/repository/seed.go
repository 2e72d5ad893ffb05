package repository

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sumire/lmsauth/internal/domain"
)

// Seed describes fixtures loaded into a MemoryStore.
type Seed struct {
	Users []struct {
		Username string `yaml:"username"`
		Email    string `yaml:"email"`
		Name     string `yaml:"name"`
		Staff    bool   `yaml:"staff"`
		Links    []struct {
			Provider string `yaml:"provider"`
			UID      string `yaml:"uid"`
		} `yaml:"links"`
	} `yaml:"users"`
	Clients []struct {
		ClientID string `yaml:"client_id"`
		Name     string `yaml:"name"`
		Type     string `yaml:"type"`
	} `yaml:"clients"`
}

// LoadSeedFile reads a YAML seed file into s.
func (s *MemoryStore) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	return s.LoadSeed(data)
}

// LoadSeed parses YAML seed data into s.
func (s *MemoryStore) LoadSeed(data []byte) error {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	for _, c := range seed.Clients {
		ct := domain.ClientType(c.Type)
		if ct != domain.ClientPublic && ct != domain.ClientConfidential {
			return fmt.Errorf("client %s: unknown type %q", c.ClientID, c.Type)
		}
		s.AddClient(domain.Client{ClientID: c.ClientID, Name: c.Name, Type: ct})
	}

	for _, u := range seed.Users {
		user := s.AddUser(domain.User{
			Username: u.Username,
			Email:    u.Email,
			Name:     u.Name,
			IsStaff:  u.Staff,
			IsActive: true,
		})
		for _, l := range u.Links {
			if err := s.LinkIdentity(l.Provider, l.UID, user.ID); err != nil {
				return fmt.Errorf("user %s: %w", u.Username, err)
			}
		}
	}
	return nil
}
