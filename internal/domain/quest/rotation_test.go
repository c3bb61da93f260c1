package quest

import (
	"errors"
	"testing"
	"time"
)

func TestPeriods(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// Saturday 2024-03-09 23:30 UTC is Sunday 00:30 in Berlin.
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		typ       Type
		loc       *time.Location
		wantStart time.Time
		wantNext  time.Time
		wantCycle string
	}{
		{TypeDaily, time.UTC, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "daily-2024-03-09"},
		{TypeDaily, berlin, time.Date(2024, 3, 10, 0, 0, 0, 0, berlin), time.Date(2024, 3, 11, 0, 0, 0, 0, berlin), "daily-2024-03-10"},
		{TypeWeekly, time.UTC, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), "weekly-2024-03-04"},
		{TypeWeekly, berlin, time.Date(2024, 3, 4, 0, 0, 0, 0, berlin), time.Date(2024, 3, 11, 0, 0, 0, 0, berlin), "weekly-2024-03-04"},
		{TypeMonthly, time.UTC, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "monthly-2024-03"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.loc.String(), func(t *testing.T) {
			if got := PeriodStart(at, tt.typ, tt.loc); !got.Equal(tt.wantStart) {
				t.Errorf("PeriodStart() = %v, want %v", got, tt.wantStart)
			}
			if got := NextReset(at, tt.typ, tt.loc); !got.Equal(tt.wantNext) {
				t.Errorf("NextReset() = %v, want %v", got, tt.wantNext)
			}
			if got := CycleKey(at, tt.typ, tt.loc); got != tt.wantCycle {
				t.Errorf("CycleKey() = %q, want %q", got, tt.wantCycle)
			}
		})
	}
}

func TestSelectTemplatesIsDeterministic(t *testing.T) {
	var templates []*Quest
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		for tier := 1; tier <= 3; tier++ {
			templates = append(templates, &Quest{ID: id + string(rune('0'+tier)), Type: TypeDaily, Tier: tier, Active: true})
		}
	}
	templates = append(templates, &Quest{ID: "weekly", Type: TypeWeekly, Tier: 1, Active: true})
	templates = append(templates, &Quest{ID: "retired", Type: TypeDaily, Tier: 1, Active: false})

	first := SelectTemplates(templates, TypeDaily, "guild", "daily-2024-03-09", 1)
	second := SelectTemplates(templates, TypeDaily, "guild", "daily-2024-03-09", 1)

	if len(first) != 3 {
		t.Fatalf("selected %d templates, want one per tier", len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("selection %d differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].Tier != i+1 {
			t.Errorf("selection %d tier = %d, want %d", i, first[i].Tier, i+1)
		}
		if first[i].ID == "weekly" || first[i].ID == "retired" {
			t.Errorf("selected %s", first[i].ID)
		}
	}
}

func TestInstantiateIDsAreStable(t *testing.T) {
	tpl := chatQuest()
	tpl.ID, tpl.TemplateID, tpl.CommunityID = "chatter", "", ""
	from := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	a := Instantiate(tpl, "guild", "daily-2024-03-09", from, from.AddDate(0, 0, 1))
	b := Instantiate(tpl, "guild", "daily-2024-03-09", from, from.AddDate(0, 0, 1))
	if a.ID != b.ID || a.ID != "guild:chatter@daily-2024-03-09" {
		t.Errorf("instance ids = %q, %q", a.ID, b.ID)
	}
	if a.TemplateKey() != "chatter" {
		t.Errorf("TemplateKey() = %q", a.TemplateKey())
	}
	a.Objectives[0].Target = 999
	if tpl.Objectives[0].Target == 999 {
		t.Error("instance shares objectives with template")
	}
}

func TestCheckEligibility(t *testing.T) {
	base := func() *Quest {
		q := chatQuest()
		q.Type = TypeEvent
		return q
	}
	done := t0.Add(-2 * time.Hour)

	tests := []struct {
		name   string
		quest  func() *Quest
		elig   Eligibility
		wantOK bool
	}{
		{name: "fresh", quest: base, wantOK: true},
		{name: "level too low", quest: func() *Quest { q := base(); q.Requirements.MinLevel = 5; return q }, elig: Eligibility{Level: 4}},
		{name: "level too high", quest: func() *Quest { q := base(); q.Requirements.MaxLevel = 5; return q }, elig: Eligibility{Level: 6}},
		{name: "missing prerequisite", quest: func() *Quest { q := base(); q.Requirements.Prerequisites = []string{"intro"}; return q }},
		{name: "met prerequisite", quest: func() *Quest { q := base(); q.Requirements.Prerequisites = []string{"intro"}; return q },
			elig: Eligibility{Completed: map[string]History{"intro": {Completions: 1}}}, wantOK: true},
		{name: "not repeatable", quest: base, elig: Eligibility{Completed: map[string]History{"chatter": {Completions: 1}}}},
		{name: "repeatable on cooldown", quest: func() *Quest {
			q := base()
			q.Limitations = Limitations{Repeatable: true, CooldownHours: 3}
			return q
		}, elig: Eligibility{Completed: map[string]History{"chatter": {Completions: 1, LastCompletedAt: done}}}},
		{name: "repeatable off cooldown", quest: func() *Quest {
			q := base()
			q.Limitations = Limitations{Repeatable: true, CooldownHours: 1}
			return q
		}, elig: Eligibility{Completed: map[string]History{"chatter": {Completions: 1, LastCompletedAt: done}}}, wantOK: true},
		{name: "max completions", quest: func() *Quest {
			q := base()
			q.Limitations = Limitations{Repeatable: true, MaxCompletions: 2}
			return q
		}, elig: Eligibility{Completed: map[string]History{"chatter": {Completions: 2}}}},
		{name: "already open", quest: base, elig: Eligibility{Open: map[string]bool{"chatter": true}}},
		{name: "rotating open elsewhere", quest: chatQuest, elig: Eligibility{Open: map[string]bool{"chatter": true}}, wantOK: true},
		{name: "rotating instance open", quest: chatQuest, elig: Eligibility{Open: map[string]bool{"guild:chatter@daily-2024-03-09": true}}},
		{name: "closed quest", quest: func() *Quest { q := base(); q.Active = false; return q }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEligibility(tt.quest(), tt.elig, t0)
			if tt.wantOK && err != nil {
				t.Errorf("CheckEligibility() = %v, want nil", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrNotEligible) {
				t.Errorf("CheckEligibility() = %v, want ErrNotEligible", err)
			}
		})
	}
}

func TestBuildEligibilityOpenKeys(t *testing.T) {
	yesterday := chatQuest()
	yesterday.ID = "guild:chatter@daily-2024-03-08"
	yesterday.Cycle = "daily-2024-03-08"
	today := chatQuest()
	today.Cycle = "daily-2024-03-09"

	event := chatQuest()
	event.ID = "guild:launch"
	event.TemplateID = "launch"
	event.Type = TypeEvent

	done := t0.Add(-time.Hour)
	records := []*Progress{
		{QuestID: yesterday.ID, TemplateID: "chatter", QuestType: TypeDaily, Status: StatusCompleted, CompletedAt: &done},
		{QuestID: event.ID, TemplateID: "launch", QuestType: TypeEvent, Status: StatusActive},
	}
	e := BuildEligibility(1, records)

	// An unclaimed completion of yesterday's cycle must not block today's instance.
	if err := CheckEligibility(today, e, t0); err != nil {
		t.Errorf("CheckEligibility(today) = %v, want nil", err)
	}
	if err := CheckEligibility(yesterday, e, t0); !errors.Is(err, ErrNotEligible) {
		t.Errorf("CheckEligibility(yesterday) = %v, want ErrNotEligible", err)
	}
	if err := CheckEligibility(event, e, t0); !errors.Is(err, ErrNotEligible) {
		t.Errorf("CheckEligibility(event) = %v, want ErrNotEligible", err)
	}
	if got := e.Completed["chatter"].Completions; got != 1 {
		t.Errorf("Completed[chatter] = %d, want 1", got)
	}
}

func TestInWindow(t *testing.T) {
	q := chatQuest()
	q.Requirements.Hours = &HourWindow{Start: 22, End: 2}
	q.Requirements.Weekdays = []time.Weekday{time.Saturday}

	if !q.InWindow(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC), time.UTC) {
		t.Error("23:00 Saturday should be inside")
	}
	if q.InWindow(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), time.UTC) {
		t.Error("noon should be outside")
	}
	if q.InWindow(time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC), time.UTC) {
		t.Error("Sunday should be outside")
	}
}
