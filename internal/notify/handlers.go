package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/jobs"
)

// notificationNamespace is the UUIDv5 namespace for deriving notification
// ids from job ids. The same job always yields the same notification.
var notificationNamespace = uuid.MustParse("7c9e8f2a-4b31-4f6d-9a58-1c2d3e4f5a6b")

// startTimeFormat renders tee-off times in notification bodies.
const startTimeFormat = "Mon Jan 2, 3:04 PM"

// Notifier builds and delivers notifications for every job type. The in-app
// channel is authoritative: its failure fails the job (safe to redeliver),
// while push and email failures are logged and dropped.
type Notifier struct {
	golfers  domain.GolferRepository
	teeTimes domain.TeeTimeRepository
	inApp    domain.ChannelSender
	channels []domain.ChannelSender
	clock    clockwork.Clock
}

// NewNotifier creates a notifier delivering through the in-app channel plus
// any number of best-effort channels.
func NewNotifier(golfers domain.GolferRepository, teeTimes domain.TeeTimeRepository, inApp domain.ChannelSender, channels []domain.ChannelSender, clock clockwork.Clock) *Notifier {
	return &Notifier{
		golfers:  golfers,
		teeTimes: teeTimes,
		inApp:    inApp,
		channels: channels,
		clock:    clock,
	}
}

// RegisterNotificationHandlers binds the notification-class job types.
func (n *Notifier) RegisterNotificationHandlers(w *jobs.Worker) {
	w.Register(jobs.TypeNewMatch, n.handleNewMatch)
	w.Register(jobs.TypeSlotJoined, n.teeTimeHandler("SLOT_JOINED", "New player joined",
		"%s joined your round at %s."))
	w.Register(jobs.TypeSlotLeft, n.teeTimeHandler("SLOT_LEFT", "A player left",
		"%s left your round at %s."))
	w.Register(jobs.TypeSlotFilled, n.handleSlotFilled)
	w.Register(jobs.TypeTeeTimeCancelled, n.handleTeeTimeCancelled)
	w.Register(jobs.TypeTeeTimeUpdated, n.handleTeeTimeUpdated)
	w.Register(jobs.TypeMessageReceived, n.handleMessageReceived)
	w.Register(jobs.TypeWelcome, n.handleWelcome)
}

// RegisterReminderHandlers binds the reminder-class job types.
func (n *Notifier) RegisterReminderHandlers(w *jobs.Worker) {
	w.Register(jobs.TypeTeeTimeReminder, n.handleReminder)
	w.Register(jobs.TypeWeeklyDigest, n.handleDigest)
}

func (n *Notifier) handleNewMatch(ctx context.Context, job *jobs.Job) error {
	var p jobs.NotificationPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, teeTime, err := n.load(ctx, p.GolferID, p.TeeTimeID)
	if err != nil {
		return err
	}
	if teeTime.Cancelled {
		return nil
	}

	return n.deliver(ctx, job, golfer, "NEW_MATCH", "New match found",
		fmt.Sprintf("A round at %s on %s looks like a great fit for you.",
			teeTime.CourseName, teeTime.StartTime.Format(startTimeFormat)))
}

// teeTimeHandler builds a handler for events about another golfer acting on
// the recipient's round: body is formatted with the actor's name and the
// course name.
func (n *Notifier) teeTimeHandler(kind, title, bodyFormat string) jobs.Handler {
	return func(ctx context.Context, job *jobs.Job) error {
		var p jobs.NotificationPayload
		if err := job.Unmarshal(&p); err != nil {
			return err
		}

		golfer, teeTime, err := n.load(ctx, p.GolferID, p.TeeTimeID)
		if err != nil {
			return err
		}

		actor, err := n.golfers.GetByID(ctx, p.ActorID)
		if err != nil {
			return err
		}

		return n.deliver(ctx, job, golfer, kind, title,
			fmt.Sprintf(bodyFormat, actor.DisplayName, teeTime.CourseName))
	}
}

func (n *Notifier) handleSlotFilled(ctx context.Context, job *jobs.Job) error {
	var p jobs.NotificationPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, teeTime, err := n.load(ctx, p.GolferID, p.TeeTimeID)
	if err != nil {
		return err
	}

	return n.deliver(ctx, job, golfer, "SLOT_FILLED", "Your round is full",
		fmt.Sprintf("All %d spots for %s on %s are taken. You're good to go.",
			teeTime.MaxPlayers, teeTime.CourseName, teeTime.StartTime.Format(startTimeFormat)))
}

func (n *Notifier) handleTeeTimeCancelled(ctx context.Context, job *jobs.Job) error {
	var p jobs.NotificationPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, teeTime, err := n.load(ctx, p.GolferID, p.TeeTimeID)
	if err != nil {
		return err
	}

	return n.deliver(ctx, job, golfer, "TEE_TIME_CANCELLED", "Round cancelled",
		fmt.Sprintf("Your round at %s on %s was cancelled by the host.",
			teeTime.CourseName, teeTime.StartTime.Format(startTimeFormat)))
}

func (n *Notifier) handleTeeTimeUpdated(ctx context.Context, job *jobs.Job) error {
	var p jobs.NotificationPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, teeTime, err := n.load(ctx, p.GolferID, p.TeeTimeID)
	if err != nil {
		return err
	}
	if teeTime.Cancelled {
		return nil
	}

	return n.deliver(ctx, job, golfer, "TEE_TIME_UPDATED", "Round details changed",
		fmt.Sprintf("Your round at %s now tees off on %s.",
			teeTime.CourseName, teeTime.StartTime.Format(startTimeFormat)))
}

func (n *Notifier) handleMessageReceived(ctx context.Context, job *jobs.Job) error {
	var p jobs.NotificationPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, err := n.golfers.GetByID(ctx, p.GolferID)
	if err != nil {
		return err
	}

	sender, err := n.golfers.GetByID(ctx, p.ActorID)
	if err != nil {
		return err
	}

	return n.deliver(ctx, job, golfer, "MESSAGE_RECEIVED",
		fmt.Sprintf("Message from %s", sender.DisplayName), p.Message)
}

func (n *Notifier) handleWelcome(ctx context.Context, job *jobs.Job) error {
	var p jobs.WelcomePayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, err := n.golfers.GetByID(ctx, p.GolferID)
	if err != nil {
		return err
	}

	return n.deliver(ctx, job, golfer, "WELCOME", "Welcome to the club",
		fmt.Sprintf("Hi %s! Set your home course and industry to start getting matched with rounds.",
			golfer.DisplayName))
}

func (n *Notifier) handleReminder(ctx context.Context, job *jobs.Job) error {
	var p jobs.ReminderPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, teeTime, err := n.load(ctx, p.GolferID, p.TeeTimeID)
	if err != nil {
		return err
	}
	if teeTime.Cancelled || !teeTime.StartTime.After(n.clock.Now()) {
		// Cancelled or already teed off by delivery time.
		return nil
	}

	title := "Upcoming round tomorrow"
	if p.Window == "2h" {
		title = "Your round starts soon"
	}

	return n.deliver(ctx, job, golfer, "TEE_TIME_REMINDER", title,
		fmt.Sprintf("You tee off at %s on %s.",
			teeTime.CourseName, teeTime.StartTime.Format(startTimeFormat)))
}

func (n *Notifier) handleDigest(ctx context.Context, job *jobs.Job) error {
	var p jobs.DigestPayload
	if err := job.Unmarshal(&p); err != nil {
		return err
	}

	golfer, err := n.golfers.GetByID(ctx, p.GolferID)
	if err != nil {
		return err
	}

	// Re-read current state; ids from the scheduler may have been cancelled
	// or filled since.
	var lines []string
	if upcoming := n.describeAll(ctx, p.UpcomingIDs, false); len(upcoming) > 0 {
		lines = append(lines, "Your upcoming rounds:")
		lines = append(lines, upcoming...)
	}
	if recommended := n.describeAll(ctx, p.RecommendedIDs, true); len(recommended) > 0 {
		lines = append(lines, "Open rounds you might like:")
		lines = append(lines, recommended...)
	}
	if len(lines) == 0 {
		return nil
	}

	return n.deliver(ctx, job, golfer, "WEEKLY_DIGEST", "Your week on the course",
		strings.Join(lines, "\n"))
}

// describeAll renders live tee times as digest lines, dropping stale ids.
func (n *Notifier) describeAll(ctx context.Context, ids []uuid.UUID, requireOpen bool) []string {
	var lines []string
	for _, id := range ids {
		teeTime, err := n.teeTimes.GetByID(ctx, id)
		if err != nil || teeTime.Cancelled || !teeTime.StartTime.After(n.clock.Now()) {
			continue
		}
		if requireOpen && teeTime.OpenSlots() == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s, %s",
			teeTime.CourseName, teeTime.StartTime.Format(startTimeFormat)))
	}
	return lines
}

// load fetches both sides of a golfer/tee-time notification.
func (n *Notifier) load(ctx context.Context, golferID, teeTimeID uuid.UUID) (*domain.Golfer, *domain.TeeTime, error) {
	golfer, err := n.golfers.GetByID(ctx, golferID)
	if err != nil {
		return nil, nil, err
	}
	teeTime, err := n.teeTimes.GetByID(ctx, teeTimeID)
	if err != nil {
		return nil, nil, err
	}
	return golfer, teeTime, nil
}

// deliver fans the notification out. The in-app send is synchronous and its
// error is returned; best-effort channels run concurrently and only log.
func (n *Notifier) deliver(ctx context.Context, job *jobs.Job, golfer *domain.Golfer, kind, title, body string) error {
	notification := domain.Notification{
		ID:        uuid.NewSHA1(notificationNamespace, []byte(job.ID.String())),
		GolferID:  golfer.ID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: n.clock.Now().UTC(),
	}

	var wg sync.WaitGroup
	for _, channel := range n.channels {
		wg.Add(1)
		go func(channel domain.ChannelSender) {
			defer wg.Done()
			if err := channel.Send(ctx, notification); err != nil {
				slog.WarnContext(ctx, "Notification channel send failed",
					"channel", channel.Name(), "notification_id", notification.ID, "error", err)
			}
		}(channel)
	}

	err := n.inApp.Send(ctx, notification)
	wg.Wait()
	return err
}
