// services/reminder_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"autoactas-backend/models"
	"autoactas-backend/utils"
)

const (
	LookaheadMinutes       = 30
	WindowToleranceMinutes = 2

	placeholderProcesoNumero = "sin numero"
	isoMillisLayout          = "2006-01-02T15:04:05.000Z"
)

var (
	// ErrEventQuery wraps failures of the upcoming-events query. It aborts a run.
	ErrEventQuery = errors.New("unable to load upcoming events")
	// ErrProcesoNotFound is returned by stores when a proceso does not exist.
	ErrProcesoNotFound = errors.New("proceso not found")
)

// ReminderStore is the data the dispatcher reads and the flag it writes.
type ReminderStore interface {
	// ListPendingEvents returns unreminded events with a proceso and a time
	// of day whose date lies in [fromDate, toDate] ("2006-01-02").
	ListPendingEvents(ctx context.Context, fromDate, toDate string) ([]models.Evento, error)
	// ListApoderados returns the proceso's apoderados that have an email.
	ListApoderados(ctx context.Context, procesoID uuid.UUID) ([]models.Apoderado, error)
	ProcesoNumero(ctx context.Context, procesoID uuid.UUID) (string, error)
	MarkReminded(ctx context.Context, eventoID uuid.UUID) error
	// ClaimReminder flips the flag only if it is still false and reports
	// whether this caller flipped it.
	ClaimReminder(ctx context.Context, eventoID uuid.UUID) (bool, error)
	ReleaseReminder(ctx context.Context, eventoID uuid.UUID) error
	LogDelivery(ctx context.Context, entry *models.ReminderLog) error
}

// Mailer delivers one message to all of its addressees at once.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

// SMSSender delivers a short text to a single phone.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (SMSResult, error)
}

type EmailMessage struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []EmailAttachment
}

type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type SMSResult struct {
	Channel string
	SID     string
}

// Window is the band of start instants, both ends inclusive, that are due
// for a reminder.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowAt returns [now+28m, now+32m].
func WindowAt(now time.Time) Window {
	return Window{
		Start: now.Add((LookaheadMinutes - WindowToleranceMinutes) * time.Minute),
		End:   now.Add((LookaheadMinutes + WindowToleranceMinutes) * time.Minute),
	}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": w.Start.UTC().Format(isoMillisLayout),
		"end":   w.End.UTC().Format(isoMillisLayout),
	})
}

// Summary is what a dispatcher run reports.
type Summary struct {
	Window              Window `json:"window"`
	EventsChecked       int    `json:"eventsChecked"`
	RemindersSent       int    `json:"remindersSent"`
	SkippedNoRecipients int    `json:"skippedNoRecipients"`
}

type ReminderOptions struct {
	SMS      SMSSender
	Metrics  *Metrics
	Logger   logrus.FieldLogger
	Location *time.Location
	Now      func() time.Time
	// ClaimBeforeSend sets the flag with a conditional update before sending
	// and releases it if the send fails.
	ClaimBeforeSend bool
	AuditLog        bool
}

type ReminderService struct {
	store           ReminderStore
	mailer          Mailer
	sms             SMSSender
	metrics         *Metrics
	log             logrus.FieldLogger
	loc             *time.Location
	now             func() time.Time
	claimBeforeSend bool
	auditLog        bool
}

func NewReminderService(store ReminderStore, mailer Mailer, opts ReminderOptions) *ReminderService {
	s := &ReminderService{
		store:           store,
		mailer:          mailer,
		sms:             opts.SMS,
		metrics:         opts.Metrics,
		log:             opts.Logger,
		loc:             opts.Location,
		now:             opts.Now,
		claimBeforeSend: opts.ClaimBeforeSend,
		auditLog:        opts.AuditLog,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.loc == nil {
		s.loc = time.FixedZone("UTC-05:00", -5*60*60)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type dueEvent struct {
	evento   models.Evento
	startsAt time.Time
}

// SendDueReminders runs one pass: events starting 28 to 32 minutes from now
// get one email to all of their proceso's apoderados. Events are handled one
// at a time; a failure on one never stops the others.
func (s *ReminderService) SendDueReminders(ctx context.Context) (*Summary, error) {
	w := WindowAt(s.now())
	fromDate, toDate := utils.DateKey(w.Start, s.loc), utils.DateKey(w.End, s.loc)

	candidates, err := s.store.ListPendingEvents(ctx, fromDate, toDate)
	if err != nil {
		s.metrics.observeRun("failed")
		return nil, fmt.Errorf("%w: %w", ErrEventQuery, err)
	}

	due := s.filterDue(candidates, w)
	summary := &Summary{Window: w, EventsChecked: len(due)}

	s.log.WithFields(logrus.Fields{
		"window_start": w.Start.UTC().Format(time.RFC3339),
		"window_end":   w.End.UTC().Format(time.RFC3339),
		"candidates":   len(candidates),
		"due":          len(due),
	}).Info("Starting event reminder processing")

	for _, d := range due {
		s.remind(ctx, d, summary)
	}

	s.metrics.observeRun("ok")
	s.log.WithFields(logrus.Fields{
		"events_checked":        summary.EventsChecked,
		"reminders_sent":        summary.RemindersSent,
		"skipped_no_recipients": summary.SkippedNoRecipients,
	}).Info("Event reminder processing completed")
	return summary, nil
}

// filterDue is the precise stage: the store only matched calendar days.
func (s *ReminderService) filterDue(candidates []models.Evento, w Window) []dueEvent {
	due := make([]dueEvent, 0, len(candidates))
	for _, evento := range candidates {
		if evento.ProcesoID == nil || evento.Hora == nil || evento.Recordatorio {
			continue
		}
		startsAt, err := utils.CombineDateTime(evento.Fecha, *evento.Hora, s.loc)
		if err != nil {
			s.log.WithField("event_id", evento.ID).Warnf("Skipping event with unreadable date: %v", err)
			continue
		}
		if w.Contains(startsAt) {
			due = append(due, dueEvent{evento: evento, startsAt: startsAt})
		}
	}
	return due
}

func (s *ReminderService) remind(ctx context.Context, d dueEvent, summary *Summary) {
	evento := d.evento
	procesoID := *evento.ProcesoID
	log := s.log.WithFields(logrus.Fields{"event_id": evento.ID, "proceso_id": procesoID})

	apoderados, err := s.store.ListApoderados(ctx, procesoID)
	if err != nil {
		log.Errorf("Unable to load apoderados for proceso: %v", err)
		return
	}

	recipients := ResolveRecipients(apoderados)
	if len(recipients) == 0 {
		summary.SkippedNoRecipients++
		s.metrics.observeReminder(OutcomeSkippedNoRecipients)
		log.Info("No recipients with email, leaving event pending")
		return
	}

	numero := s.procesoNumero(ctx, procesoID, log)
	msg, err := s.buildMessage(evento, numero, d.startsAt, recipients)
	if err != nil {
		log.Errorf("Failed to render reminder: %v", err)
		return
	}

	if s.claimBeforeSend {
		claimed, err := s.store.ClaimReminder(ctx, evento.ID)
		if err != nil {
			log.Errorf("Failed to claim event for reminder: %v", err)
			return
		}
		if !claimed {
			log.Info("Event already claimed by another run")
			return
		}
	}

	messageID, err := s.mailer.Send(ctx, msg)
	if err != nil {
		log.WithField("recipients", len(recipients)).Errorf("Failed to send reminder for event: %v", err)
		s.metrics.observeReminder(OutcomeFailed)
		s.audit(ctx, evento.ID, procesoID, recipients, "email", "", err)
		if s.claimBeforeSend {
			if err := s.store.ReleaseReminder(ctx, evento.ID); err != nil {
				log.Errorf("Failed to release reminder claim, event will not be retried: %v", err)
			}
		}
		return
	}

	summary.RemindersSent++
	s.metrics.observeReminder(OutcomeSent)
	log.WithFields(logrus.Fields{"recipients": len(recipients), "message_id": messageID}).Info("Reminder sent")

	if !s.claimBeforeSend {
		if err := s.store.MarkReminded(ctx, evento.ID); err != nil {
			log.Errorf("Failed to mark event as reminded: %v", err)
		}
	}
	s.audit(ctx, evento.ID, procesoID, recipients, "email", messageID, nil)

	s.sendSMSCopies(ctx, evento, procesoID, numero, d.startsAt, apoderados, log)
}

// ResolveRecipients trims emails, drops empty ones and removes exact
// duplicates, keeping first-seen order. Case is not folded.
func ResolveRecipients(apoderados []models.Apoderado) []string {
	seen := make(map[string]struct{}, len(apoderados))
	recipients := make([]string, 0, len(apoderados))
	for _, a := range apoderados {
		if a.Email == nil {
			continue
		}
		email := strings.TrimSpace(*a.Email)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		recipients = append(recipients, email)
	}
	return recipients
}

func (s *ReminderService) procesoNumero(ctx context.Context, procesoID uuid.UUID, log logrus.FieldLogger) string {
	numero, err := s.store.ProcesoNumero(ctx, procesoID)
	if err != nil {
		if !errors.Is(err, ErrProcesoNotFound) {
			log.Warnf("Unable to load proceso number: %v", err)
		}
		return placeholderProcesoNumero
	}
	if strings.TrimSpace(numero) == "" {
		return placeholderProcesoNumero
	}
	return numero
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<p>Hola,</p>
<p>
  Te recordamos que el evento <strong>{{.Titulo}}</strong> del proceso <strong>{{.Numero}}</strong>
  inicia el {{.Fecha}}.
</p>
<p>Te esperamos 30 minutos antes para continuar con el flujo.</p>
<p>Atentamente,<br />El equipo de autoactas</p>
`))

func (s *ReminderService) buildMessage(evento models.Evento, numero string, startsAt time.Time, recipients []string) (EmailMessage, error) {
	var body bytes.Buffer
	err := reminderTemplate.Execute(&body, struct {
		Titulo, Numero, Fecha string
	}{evento.Titulo, numero, utils.HumanizeDate(startsAt, s.loc)})
	if err != nil {
		return EmailMessage{}, err
	}

	msg := EmailMessage{
		To:      recipients,
		Subject: "Recordatorio: " + evento.Titulo,
		HTML:    body.String(),
	}

	invite, err := BuildInvite(evento, numero, startsAt, s.now())
	if err != nil {
		s.log.WithField("event_id", evento.ID).Warnf("Sending reminder without calendar invite: %v", err)
		return msg, nil
	}
	msg.Attachments = []EmailAttachment{{
		Filename:    inviteFilename,
		ContentType: inviteContentType,
		Content:     invite,
	}}
	return msg, nil
}

// sendSMSCopies is best-effort and never changes the event's state.
func (s *ReminderService) sendSMSCopies(ctx context.Context, evento models.Evento, procesoID uuid.UUID, numero string, startsAt time.Time, apoderados []models.Apoderado, log logrus.FieldLogger) {
	if s.sms == nil {
		return
	}
	body := fmt.Sprintf("AutoActas: el evento %s del proceso %s inicia el %s.",
		evento.Titulo, numero, utils.HumanizeDate(startsAt, s.loc))

	sent := make(map[string]struct{})
	for _, a := range apoderados {
		if a.Telefono == nil {
			continue
		}
		phone, ok := utils.NormalizePhone(*a.Telefono)
		if !ok {
			continue
		}
		if _, dup := sent[phone]; dup {
			continue
		}
		sent[phone] = struct{}{}

		res, err := s.sms.Send(ctx, phone, body)
		if err != nil {
			log.WithField("phone", phone).Warnf("Failed to send SMS reminder: %v", err)
			s.metrics.observeReminder(OutcomeSMSFailed)
			s.audit(ctx, evento.ID, procesoID, []string{phone}, "sms", "", err)
			continue
		}
		s.metrics.observeReminder(OutcomeSMSSent)
		s.audit(ctx, evento.ID, procesoID, []string{phone}, res.Channel, res.SID, nil)
	}
}

func (s *ReminderService) audit(ctx context.Context, eventoID, procesoID uuid.UUID, recipients []string, channel, providerID string, sendErr error) {
	if !s.auditLog {
		return
	}
	entry := &models.ReminderLog{
		EventoID:   eventoID,
		ProcesoID:  procesoID,
		Recipients: strings.Join(recipients, ","),
		Status:     "sent",
		Channel:    channel,
		ProviderID: providerID,
		SentAt:     s.now(),
	}
	if sendErr != nil {
		entry.Status = "failed"
		entry.ErrorMessage = sendErr.Error()
	}
	if err := s.store.LogDelivery(ctx, entry); err != nil {
		s.log.WithField("event_id", eventoID).Warnf("Failed to log reminder delivery: %v", err)
	}
}
