// Package entity attaches known political entities to news items.
package entity

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/assembly-news-radar/internal/models"
)

// Annotate returns a copy of item whose Entities are every known entity
// whose name occurs in the title directly followed by the description.
// Names that are part of unrelated words still match.
func Annotate(item models.NewsItem, known []models.Entity) models.NewsItem {
	out := item.Clone()
	out.Entities = Match(item.Title+item.Description, known)
	return out
}

// Match returns the entities whose name is a substring of text, in
// directory order.
func Match(text string, known []models.Entity) []models.Entity {
	var matched []models.Entity
	for _, e := range known {
		if e.Name == "" {
			continue
		}
		if strings.Contains(text, e.Name) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Directory is the read-only entity list shared by pipeline passes. The
// list can be replaced out of band.
type Directory struct {
	mu       sync.RWMutex
	entities []models.Entity
}

// NewDirectory creates a directory holding entities.
func NewDirectory(entities []models.Entity) *Directory {
	d := &Directory{}
	d.Replace(entities)
	return d
}

// Replace swaps the entity list.
func (d *Directory) Replace(entities []models.Entity) {
	cp := make([]models.Entity, 0, len(entities))
	for _, e := range entities {
		cp = append(cp, normalize(e))
	}

	d.mu.Lock()
	d.entities = cp
	d.mu.Unlock()
}

// Snapshot returns the current list. Callers must not modify it.
func (d *Directory) Snapshot() []models.Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entities
}

// Len returns the number of entities.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entities)
}

// LoadFile reads a YAML or JSON list of {name, affiliation, district}.
func LoadFile(path string) ([]models.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity file: %w", err)
	}

	var entities []models.Entity
	if err := yaml.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decode entity file %s: %w", path, err)
	}

	out := entities[:0]
	for _, e := range entities {
		e = normalize(e)
		if e.Name == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func normalize(e models.Entity) models.Entity {
	e.Name = strings.TrimSpace(e.Name)
	e.Affiliation = strings.TrimSpace(e.Affiliation)
	e.District = strings.TrimSpace(e.District)
	if e.Affiliation == "" {
		e.Affiliation = models.Unknown
	}
	if e.District == "" {
		e.District = models.Unknown
	}
	return e
}
