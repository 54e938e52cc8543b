package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Fixture is a YAML file of documents to replay through the registry
type Fixture struct {
	Documents []DocumentFixture `yaml:"documents"`
}

// DocumentFixture describes one document. Body, when set, is written by
// Editor (default: the owner) after the collaborators are granted.
type DocumentFixture struct {
	Owner         string   `yaml:"owner"`
	Name          string   `yaml:"name"`
	EncryptedKey  string   `yaml:"encrypted_key"`
	Body          string   `yaml:"body,omitempty"`
	Editor        string   `yaml:"editor,omitempty"`
	Collaborators []string `yaml:"collaborators,omitempty"`
}

// Validate checks the fields the registry itself cannot (owner, hex encoding)
func (d DocumentFixture) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Owner, validation.Required),
		validation.Field(&d.EncryptedKey, validation.Required, validation.By(isKeyHandle)),
		validation.Field(&d.Body, validation.By(isCiphertext)),
	)
}

func isKeyHandle(value interface{}) error {
	_, err := models.ParseKeyHandle(value.(string))
	return err
}

func isCiphertext(value interface{}) error {
	s := value.(string)
	if s == "" {
		return nil
	}
	_, err := models.ParseCiphertext(s)
	return err
}

// LoadFixture reads and validates a fixture file
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return ParseFixture(f)
}

// ParseFixture decodes and validates a fixture
func ParseFixture(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	for i, doc := range fixture.Documents {
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("document %d (%q): %w", i+1, doc.Name, err)
		}
	}
	return &fixture, nil
}

// Seeder replays fixtures through the registry so every row goes through the
// same checks and produces the same events as a live request
type Seeder struct {
	registry services.RegistryService
	logger   *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(registry services.RegistryService, logger *slog.Logger) *Seeder {
	return &Seeder{
		registry: registry,
		logger:   logger,
	}
}

// Seed creates every document in the fixture and returns their ids in order
func (s *Seeder) Seed(ctx context.Context, fixture *Fixture) ([]uint64, error) {
	ids := make([]uint64, 0, len(fixture.Documents))
	for i, docFixture := range fixture.Documents {
		id, err := s.seedDocument(ctx, docFixture)
		if err != nil {
			return ids, fmt.Errorf("seed document %d (%q): %w", i+1, docFixture.Name, err)
		}
		ids = append(ids, id)
	}

	s.logger.Info("fixture seeded", "documents", len(ids))
	return ids, nil
}

func (s *Seeder) seedDocument(ctx context.Context, fixture DocumentFixture) (uint64, error) {
	key, err := models.ParseKeyHandle(fixture.EncryptedKey)
	if err != nil {
		return 0, err
	}
	owner := models.Principal(fixture.Owner)

	doc, err := s.registry.CreateDocument(ctx, owner, &services.CreateDocumentRequest{
		Name:         fixture.Name,
		EncryptedKey: &key,
	})
	if err != nil {
		return 0, err
	}

	for _, collaborator := range fixture.Collaborators {
		if err := s.registry.GrantDocumentAccess(ctx, owner, doc.ID, models.Principal(collaborator)); err != nil {
			return doc.ID, err
		}
	}

	if fixture.Body != "" {
		body, err := models.ParseCiphertext(fixture.Body)
		if err != nil {
			return doc.ID, err
		}
		editor := owner
		if fixture.Editor != "" {
			editor = models.Principal(fixture.Editor)
		}
		if _, err := s.registry.UpdateDocumentBody(ctx, editor, doc.ID, body); err != nil {
			return doc.ID, err
		}
	}

	return doc.ID, nil
}
