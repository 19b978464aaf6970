// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory keeps the facts a user discloses during a conversation
// (condition, age, treatments, ...) as a flat key/value map.
//
// Keys are not validated here; callers normalize them to lowercase with
// underscores. A write to an existing key overwrites it. The only removal
// is Clear.
package memory

import (
	"context"
	"maps"
	"sync"
)

// Well-known keys read when a report is generated.
const (
	KeyCondition               = "condition"
	KeyPurpose                 = "purpose"
	KeyAge                     = "age"
	KeySex                     = "sex"
	KeyLocation                = "location"
	KeyDiagnosisStatus         = "diagnosis_status"
	KeyCurrentTreatments       = "current_treatments"
	KeyTreatmentHistory        = "treatment_history"
	KeyInterventionsOfInterest = "interventions_of_interest"
)

// Store is the memory store used by one conversation session.
type Store interface {
	// Set upserts a single association.
	Set(ctx context.Context, key, value string) error
	// GetAll returns a copy of the current mapping.
	GetAll(ctx context.Context) (map[string]string, error)
	// Clear removes every association.
	Clear(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}

// MapStore is an in-process Store.
type MapStore struct {
	mu sync.Mutex
	kv map[string]string
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{kv: make(map[string]string)}
}

func (s *MapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *MapStore) GetAll(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.kv), nil
}

func (s *MapStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.kv)
	return nil
}

func (s *MapStore) Close() error { return nil }
