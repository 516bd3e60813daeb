package hmi

import (
	"fmt"
	"sort"
	"strconv"
)

// Registry maps page ids and names to pages. It is filled once at startup
// and read-only afterwards.
type Registry struct {
	byID   map[PageID]Page
	byName map[string]Page
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[PageID]Page),
		byName: make(map[string]Page),
	}
}

// Register adds pages to the registry. Registering a second page under an
// id or name already taken fails.
func (r *Registry) Register(pages ...Page) error {
	for _, p := range pages {
		id := p.Identity()
		if existing, ok := r.byID[id.ID]; ok {
			return &NavError{
				Type:    ErrTypeDuplicatePage,
				Message: fmt.Sprintf("page id %d already registered as %s", id.ID, existing.Identity().Name),
				PageID:  id.ID,
			}
		}
		if existing, ok := r.byName[id.Name]; ok {
			return &NavError{
				Type:    ErrTypeDuplicatePage,
				Message: fmt.Sprintf("page name %q already registered with id %d", id.Name, existing.Identity().ID),
				PageID:  id.ID,
			}
		}
		r.byID[id.ID] = p
		r.byName[id.Name] = p
	}
	return nil
}

// Lookup returns the page registered under id
func (r *Registry) Lookup(id PageID) (Page, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, NewUnknownPageError(id)
	}
	return p, nil
}

// LookupName returns the page registered under name
func (r *Registry) LookupName(name string) (Page, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, &NavError{
			Type:    ErrTypeUnknownPage,
			Message: fmt.Sprintf("no page registered with name %q", name),
			PageID:  -1,
		}
	}
	return p, nil
}

// Resolve looks a page up by decimal id or by name
func (r *Registry) Resolve(ref string) (Page, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return r.Lookup(PageID(id))
	}
	return r.LookupName(ref)
}

// Identity returns the identity registered under id
func (r *Registry) Identity(id PageID) (PageIdentity, error) {
	p, err := r.Lookup(id)
	if err != nil {
		return PageIdentity{}, err
	}
	return p.Identity(), nil
}

// Pages returns every registered page ordered by id
func (r *Registry) Pages() []Page {
	pages := make([]Page, 0, len(r.byID))
	for _, p := range r.byID {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Identity().ID < pages[j].Identity().ID
	})
	return pages
}

// Len returns the number of registered pages
func (r *Registry) Len() int {
	return len(r.byID)
}

// Validate checks that every target declared by a Linker page, and every
// id in required, resolves to a registered page. All failures are
// returned, not just the first.
func (r *Registry) Validate(required ...PageID) []error {
	var errs []error

	for _, id := range required {
		if _, ok := r.byID[id]; !ok {
			errs = append(errs, fmt.Errorf("required page: %w", NewUnknownPageError(id)))
		}
	}

	for _, p := range r.Pages() {
		linker, ok := p.(Linker)
		if !ok {
			continue
		}
		for _, target := range linker.Targets() {
			if _, ok := r.byID[target]; !ok {
				errs = append(errs, fmt.Errorf("page %s: %w", p.Identity(), NewUnknownPageError(target)))
			}
		}
	}

	return errs
}
