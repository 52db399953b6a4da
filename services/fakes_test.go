package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"autoactas-backend/models"
)

type fakeStore struct {
	mu sync.Mutex

	eventos    map[uuid.UUID]*models.Evento
	apoderados map[uuid.UUID][]models.Apoderado
	numeros    map[uuid.UUID]string
	logs       []models.ReminderLog

	listErr      error
	apoderadoErr error
	markErr      error
	claims       int
	releases     int
	queriedFrom  string
	queriedTo    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		eventos:    make(map[uuid.UUID]*models.Evento),
		apoderados: make(map[uuid.UUID][]models.Apoderado),
		numeros:    make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) addEvento(e models.Evento) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventos[e.ID] = &e
}

func (f *fakeStore) reminded(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventos[id].Recordatorio
}

func (f *fakeStore) ListPendingEvents(_ context.Context, fromDate, toDate string) ([]models.Evento, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queriedFrom, f.queriedTo = fromDate, toDate
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Evento
	for _, e := range f.eventos {
		if e.Recordatorio || e.ProcesoID == nil || e.Hora == nil {
			continue
		}
		if e.Fecha < fromDate || e.Fecha > toDate {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) ListApoderados(_ context.Context, procesoID uuid.UUID) ([]models.Apoderado, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.apoderadoErr != nil {
		return nil, f.apoderadoErr
	}
	var out []models.Apoderado
	for _, a := range f.apoderados[procesoID] {
		if a.Email != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ProcesoNumero(_ context.Context, procesoID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.numeros[procesoID]
	if !ok {
		return "", ErrProcesoNotFound
	}
	return n, nil
}

func (f *fakeStore) MarkReminded(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.eventos[id].Recordatorio = true
	return nil
}

func (f *fakeStore) ClaimReminder(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	e := f.eventos[id]
	if e.Recordatorio {
		return false, nil
	}
	e.Recordatorio = true
	return true, nil
}

func (f *fakeStore) ReleaseReminder(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	f.eventos[id].Recordatorio = false
	return nil
}

func (f *fakeStore) LogDelivery(_ context.Context, entry *models.ReminderLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *entry)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []EmailMessage
	// fail lists subjects whose sends are rejected.
	fail map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, msg EmailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[msg.Subject] {
		return "", errors.New("provider rejected message")
	}
	m.sent = append(m.sent, msg)
	return "msg-" + uuid.NewString(), nil
}

type fakeSMS struct {
	to  []string
	err error
}

func (s *fakeSMS) Send(_ context.Context, to, body string) (SMSResult, error) {
	if s.err != nil {
		return SMSResult{}, s.err
	}
	s.to = append(s.to, to)
	return SMSResult{Channel: "sms", SID: "SM" + to}, nil
}

func strptr(s string) *string { return &s }
