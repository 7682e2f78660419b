package handlers

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/hray3182/pengingat/internal/repository"
	"github.com/hray3182/pengingat/internal/timeparse"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
)

// Handlers turns command text into reply text. It knows nothing about the
// chat transport; owner is whatever the transport uses to address a user.
type Handlers struct {
	repo     *repository.ReminderRepository
	parser   *timeparse.Parser
	clock    clock.Clock
	loc      *time.Location
	log      zerolog.Logger
	onChange func()
}

func New(repo *repository.ReminderRepository, parser *timeparse.Parser, clk clock.Clock, loc *time.Location, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:     repo,
		parser:   parser,
		clock:    clk,
		loc:      loc,
		log:      log.With().Str("component", "handlers").Logger(),
		onChange: func() {},
	}
}

// OnChange registers fn to run after a reminder is created or rescheduled.
func (h *Handlers) OnChange(fn func()) {
	if fn != nil {
		h.onChange = fn
	}
}

// HandleCommand runs the command in text for owner. ok is false when text is
// not a known command and should be ignored.
func (h *Handlers) HandleCommand(ctx context.Context, owner, text string) (reply string, ok bool) {
	name, args := splitCommand(text)
	switch name {
	case "start", "help":
		return helpText, true
	case "newreminder", "remind":
		return h.handleCreate(ctx, owner, args), true
	case "listreminder", "reminders":
		return h.handleList(ctx, owner), true
	case "editreminder":
		return h.handleEdit(ctx, owner, args), true
	case "delreminder":
		return h.handleDelete(ctx, owner, args), true
	}
	return "", false
}

// splitCommand accepts "/cmd@botname args", "/cmd args" and "cmd args".
func splitCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	name = text
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		name, args = text[:i], text[i:]
	}
	name = strings.TrimPrefix(name, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}

const helpText = `👋 I keep track of reminders for you.

📅 REMINDERS
/newreminder "Task jam HH:MM" - Create reminder
/listreminder - Show all reminders
/editreminder <num> "Task jam HH:MM" - Edit reminder
/delreminder <num> - Delete reminder
/delreminder all - Delete every reminder

⏰ Time formats
• 7, 07, 7:30, 7.30, jam 7, pukul 07.30, at 19:00
• in 2 hours, 30 menit lagi
• besok jam 9, tomorrow 14:30, next friday 10:00
• setiap 2 jam, every 30 minutes
• setiap hari jam 7, every monday at 9

Chain requests with "dan ingetin" or "and remind me":
/newreminder "Sarapan jam 7 dan ingetin makan siang jam 12"`
