// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mail

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"solarlead/internal/models"
)

// TemplateSource looks up the database override for a template key.
// A (nil, nil) result means no override exists.
type TemplateSource interface {
	FindByKey(key string) (*models.EmailTemplate, error)
}

// compiled is a parsed subject/body pair plus the override revision it was
// built from, so a stale cache entry can be detected by UpdatedAt.
type compiled struct {
	subject   *template.Template
	body      *template.Template
	updatedAt time.Time
	fallback  bool
}

// Renderer renders notification emails. Database overrides win over the
// compiled-in fallbacks; parsed templates are cached until Invalidate
// or until the stored row's updated_at moves.
type Renderer struct {
	source TemplateSource
	from   string

	mu    sync.Mutex
	cache map[string]*compiled
}

// NewRenderer creates a renderer sending from the given address.
func NewRenderer(source TemplateSource, from string) *Renderer {
	return &Renderer{
		source: source,
		from:   from,
		cache:  make(map[string]*compiled),
	}
}

// Render produces a ready-to-queue message for a known template key.
// Unknown keys are an error: every key must carry a fallback.
func (r *Renderer) Render(key, to string, data any) (*Message, error) {
	c, err := r.compiledFor(key)
	if err != nil {
		return nil, err
	}

	var subject, body strings.Builder
	if err := c.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("render subject %q: %w", key, err)
	}
	if err := c.body.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render body %q: %w", key, err)
	}

	return &Message{
		To:        to,
		From:      r.from,
		Subject:   strings.TrimSpace(subject.String()),
		Body:      body.String(),
		Template:  key,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Invalidate drops the cached compilation for a key. Called after an admin
// edits or deletes the stored override.
func (r *Renderer) Invalidate(key string) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}

func (r *Renderer) compiledFor(key string) (*compiled, error) {
	row, err := r.source.FindByKey(key)
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[key]; ok {
		if row == nil && c.fallback {
			return c, nil
		}
		if row != nil && !c.fallback && c.updatedAt.Equal(row.UpdatedAt) {
			return c, nil
		}
	}

	var subjectSrc, bodySrc string
	c := &compiled{}
	if row != nil {
		subjectSrc, bodySrc = row.SubjectTemplate, row.BodyTemplate
		c.updatedAt = row.UpdatedAt
	} else {
		fb, ok := fallbacks[key]
		if !ok {
			return nil, fmt.Errorf("no template registered for key %q", key)
		}
		subjectSrc, bodySrc = fb.subject, fb.body
		c.fallback = true
	}

	if c.subject, err = template.New(key + ":subject").Parse(subjectSrc); err != nil {
		return nil, fmt.Errorf("parse subject %q: %w", key, err)
	}
	if c.body, err = template.New(key + ":body").Parse(bodySrc); err != nil {
		return nil, fmt.Errorf("parse body %q: %w", key, err)
	}

	r.cache[key] = c
	return c, nil
}
