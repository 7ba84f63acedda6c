// Package seed loads the emergency contact directory from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"mutual_aid/internal/models"
)

var ErrNoContacts = errors.New("seed file contains no contacts")

// ContactWriter stores contacts, skipping ones already present.
type ContactWriter interface {
	Upsert(ctx context.Context, contacts []models.EmergencyContact) (int, error)
}

type document struct {
	Contacts []models.EmergencyContact `yaml:"contacts"`
}

var validate = validator.New()

// Parse decodes either a top-level list of contacts or a document with a
// contacts key, then validates every entry.
func Parse(data []byte) ([]models.EmergencyContact, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrNoContacts
	}

	var contacts []models.EmergencyContact
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&contacts); err != nil {
			return nil, fmt.Errorf("decode contacts: %w", err)
		}
	case yaml.MappingNode:
		var doc document
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode contacts: %w", err)
		}
		contacts = doc.Contacts
	default:
		return nil, fmt.Errorf("parse seed: unexpected %s at top level", kindName(node.Kind))
	}
	if len(contacts) == 0 {
		return nil, ErrNoContacts
	}

	for i := range contacts {
		c := &contacts[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Category = strings.ToLower(strings.TrimSpace(c.Category))
		c.MainArea = strings.TrimSpace(c.MainArea)
		c.City = strings.TrimSpace(c.City)
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("contact %d (%q): %w", i+1, c.Name, err)
		}
	}
	return contacts, nil
}

// Load reads and parses the seed file at path.
func Load(path string) ([]models.EmergencyContact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Contacts loads path and writes its contacts through w.
func Contacts(ctx context.Context, w ContactWriter, path string) (int, error) {
	contacts, err := Load(path)
	if err != nil {
		return 0, err
	}
	inserted, err := w.Upsert(ctx, contacts)
	if err != nil {
		return 0, fmt.Errorf("store contacts: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"file":     path,
		"total":    len(contacts),
		"inserted": inserted,
	}).Info("emergency contacts seeded")
	return inserted, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "node"
}
