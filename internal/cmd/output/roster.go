package output

import (
	"strconv"
	"strings"

	"github.com/agentstation/astronauts/pkg/astronauts"
)

// AstronautsToTableData converts records to table format. Wide adds the
// skill, birth date and mission titles.
func AstronautsToTableData(records []astronauts.Astronaut, wide bool) Data {
	headers := []string{"ID", "First Name", "Last Name", "Rank", "Suit", "Helmet", "Missions", "EVAs"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignCenter, AlignCenter, AlignRight, AlignRight}
	if wide {
		headers = append(headers, "Skill", "DOB", "Mission Titles")
		align = append(align, AlignLeft, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(records))
	for _, a := range records {
		evas := 0
		titles := make([]string, 0, len(a.Missions))
		for _, m := range a.Missions {
			evas += m.ExtravehicularActivities
			titles = append(titles, m.Title)
		}

		row := []string{
			a.ID,
			a.FirstName,
			a.LastName,
			orDash(a.Rank),
			orDash(a.SuitSize),
			orDash(a.HelmetSize),
			strconv.Itoa(len(a.Missions)),
			strconv.Itoa(evas),
		}
		if wide {
			row = append(row, orDash(a.SpecialSkill), orDash(a.DOB), orDash(strings.Join(titles, ", ")))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
