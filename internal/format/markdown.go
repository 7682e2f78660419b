package format

import (
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the length of s in UTF-16 code units, the unit Telegram
// uses for entity offsets and lengths.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// **bold** and `code`. Single * and _ are left alone since task text is user
// input and often contains them.
var markupRe = regexp.MustCompile("\\*\\*(.+?)\\*\\*|`([^`]+?)`")

// ParseMarkdown strips bold and code markers from text and returns the
// matching Telegram entities in offset order.
func ParseMarkdown(text string) ParseResult {
	var (
		b        strings.Builder
		entities []tgbotapi.MessageEntity
		prev     int
	)

	for _, loc := range markupRe.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[prev:loc[0]])

		kind, inner := "bold", ""
		if loc[2] >= 0 {
			inner = text[loc[2]:loc[3]]
		} else {
			kind, inner = "code", text[loc[4]:loc[5]]
		}

		entities = append(entities, tgbotapi.MessageEntity{
			Type:   kind,
			Offset: UTF16Len(b.String()),
			Length: UTF16Len(inner),
		})
		b.WriteString(inner)
		prev = loc[1]
	}
	b.WriteString(text[prev:])

	return ParseResult{
		Text:     strings.TrimRight(b.String(), " \n"),
		Entities: entities,
	}
}
