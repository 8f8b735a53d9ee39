package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

type rosterKey struct{ event, user uuid.UUID }

// memStore is an in-memory Store. The mutex stands in for the row-level
// atomicity the database gives MarkTicketValidated.
type memStore struct {
	mu      sync.Mutex
	events  map[uuid.UUID]*models.Event
	users   map[uuid.UUID]*models.User
	roster  map[rosterKey]bool
	tickets map[uuid.UUID]*models.Ticket

	failCreateTicket error
	createTicketErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		events:  make(map[uuid.UUID]*models.Event),
		users:   make(map[uuid.UUID]*models.User),
		roster:  make(map[rosterKey]bool),
		tickets: make(map[uuid.UUID]*models.Ticket),
	}
}

func (m *memStore) FindEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) FindUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) IsParticipant(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roster[rosterKey{eventID, userID}], nil
}

func (m *memStore) AddParticipant(_ context.Context, eventID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rosterKey{eventID, userID}
	if m.roster[k] {
		return store.ErrDuplicate
	}
	m.roster[k] = true
	return nil
}

func (m *memStore) RemoveParticipant(_ context.Context, eventID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roster, rosterKey{eventID, userID})
	for id, t := range m.tickets {
		if t.EventID == eventID && t.ParticipantID == userID {
			delete(m.tickets, id)
		}
	}
	return nil
}

func (m *memStore) CreateTicket(_ context.Context, ticket *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createTicketErrs) > 0 {
		err := m.createTicketErrs[0]
		m.createTicketErrs = m.createTicketErrs[1:]
		return err
	}
	if m.failCreateTicket != nil {
		return m.failCreateTicket
	}
	for _, t := range m.tickets {
		if t.EventID == ticket.EventID && t.ParticipantID == ticket.ParticipantID {
			return store.ErrDuplicate
		}
		if t.QRCodeToken == ticket.QRCodeToken {
			return store.ErrTokenCollision
		}
	}
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	return nil
}

func (m *memStore) FindTicket(_ context.Context, eventID, participantID uuid.UUID) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.EventID == eventID && t.ParticipantID == participantID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) FindTicketByToken(_ context.Context, token string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.QRCodeToken == token {
			cp := *t
			if e, ok := m.events[t.EventID]; ok {
				ev := *e
				cp.Event = &ev
			}
			if u, ok := m.users[t.ParticipantID]; ok {
				us := *u
				cp.Participant = &us
			}
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) MarkTicketValidated(_ context.Context, ticketID, validatorID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok || t.IsValidated {
		return false, nil
	}
	t.IsValidated = true
	by := validatorID
	t.ValidatedByID = &by
	t.ValidatedAt = &at
	return true, nil
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

func (m *memStore) rosterSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.roster)
}
