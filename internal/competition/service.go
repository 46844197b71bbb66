// Package competition runs a category's draw: groups, fixtures, results, brackets and
// court scheduling. Every mutation runs in a single repository transaction.
package competition

import (
	"context"

	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
)

type EventType string

const (
	EventGroupsChanged     EventType = "groups.changed"
	EventMatchesGenerated  EventType = "matches.generated"
	EventMatchUpdated      EventType = "match.updated"
	EventStandingsUpdated  EventType = "standings.updated"
	EventCategoryCompleted EventType = "category.completed"
)

// Event describes a committed change to a category's draw.
type Event struct {
	Type       EventType      `json:"type"`
	CategoryID int64          `json:"categoryId"`
	Matches    []models.Match `json:"matches,omitempty"`
}

// Notifier receives events after the transaction that produced them has committed.
type Notifier interface {
	Publish(event Event)
}

// Observer counts service outcomes.
type Observer interface {
	MatchesGenerated(kind string, count int)
	MatchCompleted(round models.Round, walkover bool)
	ScheduleAssigned(auto bool)
	ScheduleConflict()
}

type Options struct {
	// DurationAware treats two matches on a court as clashing when their playing
	// intervals overlap. When false only identical start times clash.
	DurationAware      bool
	DailyHours         draw.DailyHours
	QualifiersPerGroup int

	Notifier Notifier
	Observer Observer
}

type Service struct {
	repo     Repository
	opts     Options
	notifier Notifier
	observer Observer
}

func NewService(repo Repository, opts Options) *Service {
	if opts.QualifiersPerGroup < 1 {
		opts.QualifiersPerGroup = 2
	}
	if opts.DailyHours.Opens.IsZero() && opts.DailyHours.Closes.IsZero() {
		opts.DailyHours, _ = draw.ParseDailyHours("09:00", "21:00")
	}
	s := &Service{
		repo:     repo,
		opts:     opts,
		notifier: opts.Notifier,
		observer: opts.Observer,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// pending collects events and outcomes inside a transaction so they are only
// published once it commits.
type pending struct {
	events       []Event
	completed    []completion
	autoAssigned int
	generated    map[string]int
}

type completion struct {
	round    models.Round
	walkover bool
}

func (p *pending) publish(event Event) {
	p.events = append(p.events, event)
}

func (s *Service) flush(p *pending) {
	for kind, count := range p.generated {
		s.observer.MatchesGenerated(kind, count)
	}
	for _, c := range p.completed {
		s.observer.MatchCompleted(c.round, c.walkover)
	}
	for i := 0; i < p.autoAssigned; i++ {
		s.observer.ScheduleAssigned(true)
	}
	for _, event := range p.events {
		s.notifier.Publish(event)
	}
}

func (s *Service) loadCategory(ctx context.Context, repo Repository, categoryID int64) (models.Category, error) {
	if categoryID <= 0 {
		return models.Category{}, models.ErrNotFound
	}
	return repo.GetCategory(ctx, categoryID)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}

type nopObserver struct{}

func (nopObserver) MatchesGenerated(string, int)      {}
func (nopObserver) MatchCompleted(models.Round, bool) {}
func (nopObserver) ScheduleAssigned(bool)             {}
func (nopObserver) ScheduleConflict()                 {}
