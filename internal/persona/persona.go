// Package persona defines the fixed human-like identities the honeypot
// assumes and generates in-character replies. A session locks onto one
// persona for its whole lifetime so the counterparty never sees the
// identity shift mid-conversation.
package persona

// Persona is a fixed conversational identity.
type Persona struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`

	// RelevantScamTypes drive persona selection per detected scam type.
	RelevantScamTypes []string `json:"relevantScamTypes"`

	// SystemPrompt carries the core personality instructions.
	SystemPrompt string `json:"-"`
	// StyleGuide describes how the persona speaks.
	StyleGuide string `json:"-"`
	// Goal states what the persona is trying to get the scammer to reveal.
	Goal string `json:"-"`

	// FallbackLines are canned in-character replies used when no LLM
	// provider is configured or a generation attempt fails.
	FallbackLines []string `json:"-"`
}

// Store exposes persona retrieval.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	BestFor(scamType string) Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// NewLibraryStore returns a MemoryStore preloaded with the built-in library.
func NewLibraryStore() *MemoryStore {
	return NewMemoryStore(Library())
}

// List returns the personas.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// BestFor selects the persona whose relevant scam types include scamType,
// falling back to the neutral monitor persona.
func (s *MemoryStore) BestFor(scamType string) Persona {
	for _, item := range s.items {
		for _, st := range item.RelevantScamTypes {
			if st == scamType {
				return item
			}
		}
	}
	if p, ok := s.FindByID(NeutralPersonaID); ok {
		return p
	}
	return s.items[0]
}
