package email

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/fiffu/indexwatch/lib/models"
)

var (
	//go:embed item.html
	itemHTML     string
	itemTemplate = template.Must(template.New("item.html").Parse(itemHTML))

	//go:embed alert.html
	alertHTML     string
	alertTemplate = template.Must(template.New("alert.html").Parse(alertHTML))
)

func mustFillTemplate(tmpl *template.Template, values any) string {
	buf := new(strings.Builder)
	err := tmpl.Execute(buf, values)
	if err != nil {
		return ""
	}
	return buf.String()
}

type ItemEmailFormat struct {
	*models.Notification
}

func (ef *ItemEmailFormat) Subject() string {
	return fmt.Sprintf("Indexwatch: %s by %s", ef.Title(), ef.Indexer)
}

func (ef *ItemEmailFormat) Body() string {
	return mustFillTemplate(itemTemplate, ef)
}

type AlertEmailFormat struct {
	Text string
}

func (ef *AlertEmailFormat) Subject() string {
	line, _, _ := strings.Cut(ef.Text, "\n")
	return "Indexwatch: " + line
}

func (ef *AlertEmailFormat) Body() string {
	return mustFillTemplate(alertTemplate, ef)
}
