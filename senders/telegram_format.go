package senders

import (
	"fmt"
	"strings"

	"github.com/fiffu/indexwatch/lib/models"
)

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
	"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// Inside `code` and (link) entities only these need escaping.
var (
	codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")
	linkEscaper = strings.NewReplacer(`\`, `\\`, ")", `\)`)
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatItemMarkdown(n *models.Notification) string {
	item := n.Item
	var b strings.Builder

	fmt.Fprintf(&b, "%s \\- %s by _%s_",
		escapeMarkdown(strings.Join(n.Icons(), "|")),
		escapeMarkdown(n.Title()),
		escapeMarkdown(n.Indexer),
	)

	if len(item.ExternalLinks) > 0 {
		links := make([]string, len(item.ExternalLinks))
		for i, l := range item.ExternalLinks {
			links[i] = fmt.Sprintf("[*%s*](%s)", escapeMarkdown(l.Name), linkEscaper.Replace(l.URL))
		}
		b.WriteString("\n📌 " + strings.Join(links, `\|`))
	}

	fmt.Fprintf(&b, "\n\n📤 %s 📥 %s 💾 %s 🗜 %s 🗃 %s",
		escapeMarkdown(item.Seeders),
		escapeMarkdown(item.Peers),
		escapeMarkdown(item.Grabs),
		escapeMarkdown(item.SizeGiB()),
		escapeMarkdown(item.Files),
	)

	var flags []string
	for _, f := range []string{n.DownloadFlag(), n.UploadFlag()} {
		if f != "" {
			flags = append(flags, escapeMarkdown(f))
		}
	}
	if len(flags) > 0 {
		b.WriteString("\n\n" + strings.Join(flags, "\n"))
	}

	if item.MagnetURL != "" {
		b.WriteString("\n\n`" + codeEscaper.Replace(item.MagnetURL) + "`")
	}
	return b.String()
}

func itemKeyboard(item *models.FeedItem) *inlineKeyboard {
	var row []inlineButton
	if item.CommentsURL != "" {
		row = append(row, inlineButton{Text: "🔗", URL: item.CommentsURL})
	}
	if item.Link != "" {
		icon := "💾"
		if item.MagnetURL != "" {
			icon = "🧲"
		}
		row = append(row, inlineButton{Text: icon, URL: item.Link})
	}
	if len(row) == 0 {
		return nil
	}
	return &inlineKeyboard{InlineKeyboard: [][]inlineButton{row}}
}
