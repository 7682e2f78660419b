package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hray3182/pengingat/internal/models"
	"github.com/hray3182/pengingat/internal/repository"
	"github.com/hray3182/pengingat/internal/rrule"
	"github.com/hray3182/pengingat/internal/timeparse"
)

const (
	openQuotes  = `"“”„`
	closeQuotes = `"“”`
)

var (
	quotedRe = regexp.MustCompile(`^[` + openQuotes + `]([\s\S]*)[` + closeQuotes + `]$`)
	editRe   = regexp.MustCompile(`^(\d+)\s+([` + openQuotes + `][\s\S]*[` + closeQuotes + `])$`)
	deleteRe = regexp.MustCompile(`(?i)^(\d+|all|semua)$`)
)

const (
	createUsage = "❌ Format: /newreminder \"Task jam HH:MM\"\n\nExamples:\n/newreminder \"Belajar AI jam 20:00\"\n/newreminder \"Meeting jam 14:30\""
	editUsage   = "❌ Format: /editreminder <number> \"New task jam HH:MM\"\n\nExample: /editreminder 1 \"Study jam 19:00\""
	deleteUsage = "❌ Format: /delreminder <number>\n\nExample: /delreminder 1\n/delreminder all"

	timeFormats = "Supported formats:\n• 7 or 07\n• 7:30 or 7.30\n• jam 7 or pukul 07.30\n• in 2 hours or 30 menit lagi\n• besok jam 9\n• setiap 2 jam\n• setiap hari jam 7 or every monday at 9"

	persistWarning = "\n\n⚠️ Saved for now, but writing to storage failed."
)

func unquote(args string) (string, bool) {
	m := quotedRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return "", false
	}
	text := strings.TrimSpace(m[1])
	return text, text != ""
}

func (h *Handlers) label(s models.Schedule) string {
	return rrule.HumanReadable(s, h.loc)
}

func parseErrorText(segment string, err error, multi bool) string {
	var b strings.Builder
	if errors.Is(err, timeparse.ErrAnchorRequired) {
		b.WriteString("❌ Daily and weekly reminders need a time of day")
	} else {
		b.WriteString("❌ Invalid time format")
	}
	if multi {
		fmt.Fprintf(&b, " in \"%s\"", segment)
	}
	b.WriteString(".\n\n")
	b.WriteString(timeFormats)
	return b.String()
}

func invalidPosition(err error) string {
	var perr *repository.PositionError
	if errors.As(err, &perr) {
		return fmt.Sprintf("❌ Invalid reminder number. You have %d reminder(s)", perr.Count)
	}
	return "❌ Invalid reminder number"
}

func (h *Handlers) handleCreate(ctx context.Context, owner, args string) string {
	text, ok := unquote(args)
	if !ok {
		return createUsage
	}

	now := h.clock.Now().In(h.loc)
	segments := timeparse.SplitRequests(text)
	if len(segments) == 0 {
		return createUsage
	}

	var replies []string
	created := 0
	for _, segment := range segments {
		res, err := h.parser.Parse(ctx, now, segment)
		if err != nil {
			replies = append(replies, parseErrorText(segment, err, len(segments) > 1))
			continue
		}

		reminder, err := h.repo.Create(ctx, owner, res.Schedule, res.Task)
		if err != nil && !errors.Is(err, repository.ErrPersist) {
			h.log.Error().Err(err).Str("owner", owner).Msg("failed to create reminder")
			replies = append(replies, "❌ Error creating reminder. Please try again.")
			continue
		}
		created++

		reply := fmt.Sprintf("✅ Reminder set for %s:\n%s", h.label(reminder.Schedule), reminder.TaskText)
		if err != nil {
			reply += persistWarning
		}
		replies = append(replies, reply)
	}

	if created > 0 {
		h.onChange()
	}
	return strings.Join(replies, "\n\n")
}

func (h *Handlers) handleList(ctx context.Context, owner string) string {
	reminders := h.repo.ListByOwner(ctx, owner)
	if len(reminders) == 0 {
		return "📭 No reminders set"
	}

	var sb strings.Builder
	sb.WriteString("📋 Your reminders:\n")
	for i, r := range reminders {
		fmt.Fprintf(&sb, "\n%d. %s - %s", i+1, h.label(r.Schedule), r.TaskText)
		if !r.Active {
			sb.WriteString(" (done)")
		}
	}
	return sb.String()
}

func (h *Handlers) handleEdit(ctx context.Context, owner, args string) string {
	m := editRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return editUsage
	}
	text, ok := unquote(m[2])
	if !ok {
		return editUsage
	}
	position, err := strconv.Atoi(m[1])
	if err != nil {
		return editUsage
	}

	reminder, err := h.repo.ResolvePosition(ctx, owner, position)
	if err != nil {
		return invalidPosition(err)
	}

	now := h.clock.Now().In(h.loc)
	res, err := h.parser.Parse(ctx, now, text)
	if err != nil {
		return parseErrorText(text, err, false)
	}

	reminder.TaskText = res.Task
	rescheduled := !reminder.Schedule.Equal(res.Schedule)
	if rescheduled {
		reminder.Schedule = res.Schedule
		reminder.Active = true
		// A new recurrence counts from the edit, not from creation.
		reminder.LastTriggeredAt = nil
		if res.Schedule.IsRecurring() {
			reminder.LastTriggeredAt = &now
		}
	}

	err = h.repo.Update(ctx, reminder)
	if err != nil && !errors.Is(err, repository.ErrPersist) {
		if errors.Is(err, repository.ErrNotFound) {
			return "❌ Reminder no longer exists"
		}
		h.log.Error().Err(err).Str("owner", owner).Msg("failed to update reminder")
		return "❌ Error editing reminder"
	}
	if rescheduled {
		h.onChange()
	}

	reply := fmt.Sprintf("✅ Reminder updated to %s:\n%s", h.label(reminder.Schedule), reminder.TaskText)
	if err != nil {
		reply += persistWarning
	}
	return reply
}

func (h *Handlers) handleDelete(ctx context.Context, owner, args string) string {
	m := deleteRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return deleteUsage
	}

	arg := strings.ToLower(m[1])
	if arg == "all" || arg == "semua" {
		n, err := h.repo.DeleteAllByOwner(ctx, owner)
		if n == 0 && err == nil {
			return "📭 No reminders set"
		}
		reply := fmt.Sprintf("✅ Deleted %d reminder(s)", n)
		if err != nil {
			reply += persistWarning
		}
		return reply
	}

	position, err := strconv.Atoi(arg)
	if err != nil {
		return deleteUsage
	}
	reminder, err := h.repo.ResolvePosition(ctx, owner, position)
	if err != nil {
		return invalidPosition(err)
	}

	err = h.repo.Delete(ctx, reminder.ID)
	if err != nil && !errors.Is(err, repository.ErrPersist) {
		if errors.Is(err, repository.ErrNotFound) {
			return "❌ Reminder no longer exists"
		}
		h.log.Error().Err(err).Str("owner", owner).Msg("failed to delete reminder")
		return "❌ Error deleting reminder"
	}

	reply := fmt.Sprintf("✅ Reminder deleted:\n%s", reminder.TaskText)
	if err != nil {
		reply += persistWarning
	}
	return reply
}
