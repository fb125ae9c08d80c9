package output

import (
	"fmt"
	"io"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/garden"
)

// WriteScheduleMarkdown writes the watering schedule as a markdown
// document: a summary, the overdue plants and a table of every plant.
func WriteScheduleMarkdown(w io.Writer, items []garden.ScheduleItem) error {
	doc := md.NewMarkdown(w)
	doc.H1("Watering Schedule").LF()

	if len(items) == 0 {
		doc.PlainText("No watered plants yet.").LF()
		return doc.Build()
	}

	var overdue []string
	for _, item := range items {
		if item.Overdue {
			overdue = append(overdue, fmt.Sprintf("%s (due %s)",
				md.Bold(item.Plant.CommonName), item.Due.Time.Format(constants.TimeFormatDate)))
		}
	}
	doc.PlainTextf("%d plants scheduled, %d overdue.", len(items), len(overdue)).LF()

	if len(overdue) > 0 {
		doc.H2("Overdue").LF()
		doc.BulletList(overdue...).LF()
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := "upcoming"
		if item.Overdue {
			status = "overdue"
		}
		rows = append(rows, []string{
			item.Plant.CommonName,
			item.Plant.ScientificName,
			strconv.Itoa(item.Plant.WateringIntervalDays),
			item.Due.Time.Format(constants.TimeFormatDate),
			status,
		})
	}
	doc.H2("All Plants").LF()
	doc.Table(md.TableSet{
		Header: []string{"Plant", "Scientific Name", "Interval (days)", "Due", "Status"},
		Rows:   rows,
	}).LF()

	return doc.Build()
}
