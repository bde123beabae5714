// Package slug строит slug из названий и разбирает параметры пути,
// где может быть id или slug.
package slug

import (
	"strings"
	"unicode/utf8"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/google/uuid"
	gs "github.com/gosimple/slug"
)

const minNameLen = 2

func Make(name string) string {
	return gs.Make(name)
}

// FromName проверяет название и возвращает slug.
func FromName(name string) (string, error) {
	if utf8.RuneCountInString(name) < minNameLen {
		return "", errs.Invalid("name", "must be at least 2 characters")
	}
	s := Make(name)
	if s == "" {
		return "", errs.Invalid("name", "cannot be converted to a slug")
	}
	return s, nil
}

// Ref — ключ поиска из пути: id, если парсится как UUID, и всегда slug.
type Ref struct {
	ID   *uuid.UUID
	Slug string
}

func Parse(s string) Ref {
	s = strings.TrimSpace(s)
	if id, err := uuid.Parse(s); err == nil {
		return Ref{ID: &id, Slug: s}
	}
	return Ref{Slug: s}
}

func ByID(id uuid.UUID) Ref {
	return Ref{ID: &id, Slug: id.String()}
}

// IDArg — id как аргумент запроса, NULL если это не UUID.
func (r Ref) IDArg() any {
	if r.ID == nil {
		return nil
	}
	return *r.ID
}

func (r Ref) String() string {
	return r.Slug
}
