package catalog

import (
	"sync/atomic"

	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
)

// Snapshot is an immutable, validated view of the catalog. Readers that hold a
// snapshot never observe later updates, so an evaluation in flight works
// against one consistent set of definitions.
type Snapshot struct {
	services []*ServiceDefinition
	byID     map[id.ServiceID]*ServiceDefinition
	forms    map[id.ServiceID]*FormDefinition
}

// NewSnapshot validates definitions and builds a snapshot. Any configuration
// error aborts the whole publication; a snapshot is all-or-nothing.
func NewSnapshot(services []*ServiceDefinition, forms []*FormDefinition) (*Snapshot, error) {
	s := &Snapshot{
		byID:  make(map[id.ServiceID]*ServiceDefinition, len(services)),
		forms: make(map[id.ServiceID]*FormDefinition, len(forms)),
	}
	for _, svc := range services {
		if err := validateService(svc); err != nil {
			return nil, err
		}
		if _, dup := s.byID[svc.ID]; dup {
			return nil, configErr(string(svc.ID), "", "duplicate service id")
		}
		s.services = append(s.services, svc)
		s.byID[svc.ID] = svc
	}
	for _, form := range forms {
		if err := validateForm(form); err != nil {
			return nil, err
		}
		if _, ok := s.byID[form.ServiceID]; !ok {
			return nil, configErr(string(form.ServiceID), "", "form references unknown service")
		}
		if _, dup := s.forms[form.ServiceID]; dup {
			return nil, configErr(string(form.ServiceID), "", "duplicate form for service")
		}
		s.forms[form.ServiceID] = form
	}
	return s, nil
}

// Services returns all services in catalog insertion order. The returned slice
// must not be mutated.
func (s *Snapshot) Services() []*ServiceDefinition {
	return s.services
}

// GetService looks a service up by id.
func (s *Snapshot) GetService(serviceID id.ServiceID) (*ServiceDefinition, error) {
	if svc, ok := s.byID[serviceID]; ok {
		return svc, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByCategory returns services of one category, preserving insertion order.
func (s *Snapshot) ListByCategory(category string) []*ServiceDefinition {
	var out []*ServiceDefinition
	for _, svc := range s.services {
		if svc.Category == category {
			out = append(out, svc)
		}
	}
	return out
}

// GetForm returns the form definition for a service.
func (s *Snapshot) GetForm(serviceID id.ServiceID) (*FormDefinition, error) {
	if form, ok := s.forms[serviceID]; ok {
		return form, nil
	}
	return nil, sentinel.ErrNotFound
}

// Index holds the current snapshot. Publication swaps the pointer atomically;
// reads never lock.
type Index struct {
	current atomic.Pointer[Snapshot]
}

// NewIndex returns an index holding an empty snapshot.
func NewIndex() *Index {
	idx := &Index{}
	empty, _ := NewSnapshot(nil, nil)
	idx.current.Store(empty)
	return idx
}

// Publish atomically replaces the current snapshot.
func (i *Index) Publish(s *Snapshot) {
	i.current.Store(s)
}

// Snapshot returns the current snapshot.
func (i *Index) Snapshot() *Snapshot {
	return i.current.Load()
}
