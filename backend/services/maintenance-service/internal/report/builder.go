package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"elevmaint/backend/services/maintenance-service/internal/analytics"
	"elevmaint/backend/services/maintenance-service/internal/models"
)

// ErrIncompleteSession is returned for sessions that have not ended.
var ErrIncompleteSession = errors.New("report: session has not ended")

const (
	dateLayout = "Jan 2, 2006"
	timeLayout = "03:04 PM"
)

// Build renders the plain-text export of an ended session. Times are shown in loc
// (UTC when nil).
func Build(session *models.MaintenanceSession, loc *time.Location) (string, error) {
	if session == nil || session.EndTime == nil {
		return "", ErrIncompleteSession
	}
	if loc == nil {
		loc = time.UTC
	}

	start := models.FromMillis(session.StartTime).In(loc)
	end := models.FromMillis(*session.EndTime).In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "Elevator ID: %s\n", session.ElevatorID)
	fmt.Fprintf(&b, "Technician: %s\n", session.TechnicianName)
	fmt.Fprintf(&b, "Date: %s\n", start.Format(dateLayout))
	fmt.Fprintf(&b, "Start Time: %s\n", start.Format(timeLayout))
	fmt.Fprintf(&b, "End Time: %s\n", end.Format(timeLayout))
	fmt.Fprintf(&b, "Duration: %s\n", FormatDuration(session.Duration()))

	b.WriteString("\n")
	fmt.Fprintf(&b, "Issues (%d/%d resolved):\n", session.ResolvedIssues(), len(session.Issues))
	for _, issue := range session.Issues {
		mark := " "
		if issue.Resolved {
			mark = "X"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, issue.Description)
	}

	b.WriteString("\nFloors Visited:\n")
	visits := append([]models.FloorVisit(nil), session.FloorsVisited...)
	analytics.SortFloorVisits(visits)
	for _, fv := range visits {
		fmt.Fprintf(&b, "%s\n", FormatFloorVisit(fv))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// FormatDuration renders d as HH:MM:SS, truncating to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatFloorVisit renders "Floor <n>: <m>m <s>s".
func FormatFloorVisit(fv models.FloorVisit) string {
	return fmt.Sprintf("Floor %d: %dm %ds", fv.Floor, fv.TimeSpent/60, fv.TimeSpent%60)
}

// FileName suggests a download name for the export.
func FileName(session *models.MaintenanceSession) string {
	return fmt.Sprintf("maintenance-report-%s.txt", session.ID)
}
