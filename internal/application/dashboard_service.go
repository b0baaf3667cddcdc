package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// criticalListSize caps the Q1 tasks listed on the dashboard.
const criticalListSize = 3

// DashboardService summarises the caller's workload.
type DashboardService struct {
	store *Store
	now   func() time.Time
}

// NewDashboardService wires dependencies for the dashboard.
func NewDashboardService(store *Store, now func() time.Time) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{store: store, now: now}
}

// Stats computes the dashboard figures. Critical tasks are counted among the
// tasks the caller can see.
func (s *DashboardService) Stats(ctx context.Context, principal Principal) (DashboardStats, error) {
	if s == nil {
		return DashboardStats{}, fmt.Errorf("DashboardService is nil")
	}
	state := s.store.Snapshot()
	actor, err := actorFor(state, principal)
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.now().UTC()
	stats := DashboardStats{CriticalList: []governance.Task{}}

	assigned, completed := 0, 0
	for _, t := range state.Tasks {
		if t.AssignedToID != actor.ID {
			continue
		}
		assigned++
		if t.Status == governance.StatusCompleted {
			completed++
		} else {
			stats.ManifestLoad++
		}
	}
	if assigned > 0 {
		stats.CompletionRate = int(math.Round(float64(completed) / float64(assigned) * 100))
	}

	for _, t := range governance.VisibleTasks(state.Tasks, actor, state.Users) {
		if t.Priority != governance.PriorityQ1 || t.Status == governance.StatusCompleted {
			continue
		}
		stats.CriticalTasks++
		if len(stats.CriticalList) < criticalListSize {
			stats.CriticalList = append(stats.CriticalList, t)
		}
	}

	y, m, d := now.Date()
	for _, meeting := range state.Meetings {
		if !governance.IsAttendee(meeting, actor.ID) {
			continue
		}
		start, pErr := governance.ParseTimestamp(meeting.StartTime)
		if pErr != nil {
			continue
		}
		if sy, sm, sd := start.UTC().Date(); sy == y && sm == m && sd == d {
			stats.DailySchedule++
		}
		if start.After(now) {
			stats.ActiveSessions++
		}
	}

	stats.UpcomingMeeting = nextMeeting(state.Meetings, actor.ID, now)
	return stats, nil
}
