package filedb

import (
	"encoding/json"
	"fmt"
)

// Collection is a typed view over one collection file. Matching is a linear
// scan in storage order; mutations are whole-file read-modify-write cycles
// executed under the collection lock.
type Collection[T any] struct {
	store *Store
	name  string
}

func NewCollection[T any](store *Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) load() ([]T, error) {
	raw, err := c.store.readRaw(c.name)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("collection %q: %w: %v", c.name, ErrCorrupt, err)
	}
	return records, nil
}

func (c *Collection[T]) save(records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return c.store.replace(c.name, payload)
}

// View runs fn over a snapshot of the collection under its lock.
func (c *Collection[T]) View(fn func(records []T) error) error {
	lock := c.store.lock(c.name)
	lock.Lock()
	defer lock.Unlock()
	records, err := c.load()
	if err != nil {
		return err
	}
	return fn(records)
}

// Mutate runs one full read-modify-write cycle under the collection lock.
// The file is rewritten only when fn returns nil; an error from fn aborts
// the cycle without touching the file.
func (c *Collection[T]) Mutate(fn func(records []T) ([]T, error)) error {
	lock := c.store.lock(c.name)
	lock.Lock()
	defer lock.Unlock()
	records, err := c.load()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return c.save(updated)
}

func (c *Collection[T]) All() ([]T, error) {
	var out []T
	err := c.View(func(records []T) error {
		out = records
		return nil
	})
	return out, err
}

func (c *Collection[T]) Find(match func(T) bool) ([]T, error) {
	var out []T
	err := c.View(func(records []T) error {
		for _, rec := range records {
			if match(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

// FindOne returns the first record matching in storage order.
func (c *Collection[T]) FindOne(match func(T) bool) (T, bool, error) {
	var out T
	found := false
	err := c.View(func(records []T) error {
		for _, rec := range records {
			if match(rec) {
				out = rec
				found = true
				return nil
			}
		}
		return nil
	})
	return out, found, err
}

func (c *Collection[T]) Insert(rec T) error {
	return c.Mutate(func(records []T) ([]T, error) {
		return append(records, rec), nil
	})
}

// Update applies fn to the first matching record and persists the collection.
func (c *Collection[T]) Update(match func(T) bool, apply func(*T)) (T, bool, error) {
	var out T
	found := false
	err := c.Mutate(func(records []T) ([]T, error) {
		for i := range records {
			if match(records[i]) {
				apply(&records[i])
				out = records[i]
				found = true
				return records, nil
			}
		}
		return records, nil
	})
	return out, found, err
}

// Delete removes the first matching record and persists the shortened
// collection.
func (c *Collection[T]) Delete(match func(T) bool) (T, bool, error) {
	var out T
	found := false
	err := c.Mutate(func(records []T) ([]T, error) {
		for i := range records {
			if match(records[i]) {
				out = records[i]
				found = true
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return records, nil
	})
	return out, found, err
}
