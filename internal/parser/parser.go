package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/hogwarts-cloud/virtualize/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("empty document")

// Parse reads an infrastructure document keeping the order in which networks
// and hosts are declared.
func Parse(path string) (*models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	document, err := parseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return document, nil
}

func parseDocument(content []byte) (*models.Document, error) {
	document := new(models.Document)
	if err := yaml.Unmarshal(content, document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	if document.Networks == nil && document.Hosts == nil {
		return nil, ErrEmptyDocument
	}

	if document.Networks == nil {
		document.Networks = models.NewDefinitions()
	}

	if document.Hosts == nil {
		document.Hosts = models.NewDefinitions()
	}

	return document, nil
}
