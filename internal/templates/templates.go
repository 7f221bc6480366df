// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownTemplate is returned by Load for a key with no template.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrBuiltinTemplate is returned when an extra template reuses a built-in key.
	ErrBuiltinTemplate = errors.New("template key is built in")
	// ErrInvalidTemplate is returned for an extra template with a blank field.
	ErrInvalidTemplate = errors.New("invalid template")
)

// Template is a company and stock code pair.
type Template struct {
	Key     string
	Company string
	Code    string
	Builtin bool
}

var builtins = []Template{
	{Key: "茅台", Company: "贵州茅台", Code: "sh.600519", Builtin: true},
	{Key: "比亚迪", Company: "比亚迪", Code: "sz.002594", Builtin: true},
	{Key: "宁德时代", Company: "宁德时代", Code: "sz.300750", Builtin: true},
}

// Builtins returns the built-in templates.
func Builtins() []Template {
	out := make([]Template, len(builtins))
	copy(out, builtins)
	return out
}

// Loader resolves template keys. Safe for concurrent use.
type Loader struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewLoader creates a loader holding the built-ins.
func NewLoader() *Loader {
	l := &Loader{}
	l.reset()
	return l
}

func (l *Loader) reset() {
	l.templates = make(map[string]Template, len(builtins))
	for _, t := range builtins {
		l.templates[t.Key] = t
	}
}

// Add registers an extra template. Built-in keys cannot be replaced.
func (l *Loader) Add(t Template) error {
	t, err := normalize(t)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.templates[t.Key]; ok && existing.Builtin {
		return fmt.Errorf("%w: %s", ErrBuiltinTemplate, t.Key)
	}
	l.templates[t.Key] = t
	return nil
}

// SetExtras replaces every extra template, keeping the built-ins. Entries that
// cannot be added are skipped and reported in the joined error. Readers see
// either the old set or the new one.
func (l *Loader) SetExtras(extras []Template) error {
	next := make(map[string]Template, len(builtins)+len(extras))
	for _, t := range builtins {
		next[t.Key] = t
	}

	var errs []error
	for _, t := range extras {
		t, err := normalize(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if existing, ok := next[t.Key]; ok && existing.Builtin {
			errs = append(errs, fmt.Errorf("%w: %s", ErrBuiltinTemplate, t.Key))
			continue
		}
		next[t.Key] = t
	}

	l.mu.Lock()
	l.templates = next
	l.mu.Unlock()
	return errors.Join(errs...)
}

// normalize trims an extra template and checks its fields.
func normalize(t Template) (Template, error) {
	t.Key = strings.TrimSpace(t.Key)
	t.Company = strings.TrimSpace(t.Company)
	t.Code = strings.TrimSpace(t.Code)
	t.Builtin = false
	if t.Key == "" || t.Company == "" || t.Code == "" {
		return t, fmt.Errorf("%w: %q needs key, company and code", ErrInvalidTemplate, t.Key)
	}
	return t, nil
}

// Load returns the template for key.
func (l *Loader) Load(key string) (Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[strings.TrimSpace(key)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}
	return t, nil
}

// Keys returns all template keys in sorted order.
func (l *Loader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every template ordered by key.
func (l *Loader) All() []Template {
	keys := l.Keys()
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Template, 0, len(keys))
	for _, k := range keys {
		if t, ok := l.templates[k]; ok {
			out = append(out, t)
		}
	}
	return out
}
