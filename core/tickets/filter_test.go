package tickets

import (
	"encoding/json"
	"strings"
	"testing"

	"ticket-desk/core/store"
)

func dueOn(s string) *store.Date {
	d, err := store.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func filterFixture() []store.Ticket {
	return []store.Ticket{
		{ID: 1, ItemName: "Laptop", Status: store.StatusNew, Owner: "Ann Lee", Priority: store.PriorityHigh, Group: store.GroupNewRequest, Note: "16GB"},
		{ID: 2, ItemName: "Desk", Status: store.StatusInProgress, Owner: "Bob", Priority: store.PriorityLow, Group: store.GroupUnderDevelopment},
		{ID: 3, ItemName: "Chair", Status: store.StatusDone, Owner: "ann", Priority: store.PriorityMedium, Group: store.GroupCompleted, Note: "ergonomic"},
	}
}

func ids(items []store.Ticket) []int64 {
	out := make([]int64, 0, len(items))
	for _, t := range items {
		out = append(out, t.ID)
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	cases := []struct {
		name string
		f    Filter
		want []int64
	}{
		{"empty", Filter{}, []int64{1, 2, 3}},
		{"status", Filter{Status: store.StatusInProgress}, []int64{2}},
		{"priority", Filter{Priority: store.PriorityHigh}, []int64{1}},
		{"group", Filter{Group: store.GroupCompleted}, []int64{3}},
		{"term matches note", Filter{Term: "ERGO"}, []int64{3}},
		{"term matches status", Filter{Term: "progress"}, []int64{2}},
		{"owner substring", Filter{Owner: "ANN"}, []int64{1, 3}},
		{"combined", Filter{Owner: "ann", Status: store.StatusNew}, []int64{1}},
		{"no match", Filter{Term: "zzz"}, []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Apply(filterFixture(), tc.f))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			}
		})
	}
}

func TestParseFilterNormalizesEnums(t *testing.T) {
	f := ParseFilter("in_progress", "high", "completed", " lap ", "")
	if f.Status != store.StatusInProgress || f.Priority != store.PriorityHigh || f.Group != store.GroupCompleted || f.Term != "lap" {
		t.Fatalf("unexpected filter %+v", f)
	}
	odd := ParseFilter("Archived", "", "", "", "")
	if len(Apply(filterFixture(), odd)) != 0 {
		t.Fatalf("unknown status should match nothing")
	}
}

func TestIsOverdue(t *testing.T) {
	today := store.NewDate(2024, 5, 10)
	cases := []struct {
		name string
		t    store.Ticket
		want bool
	}{
		{"no due date", store.Ticket{Status: store.StatusNew}, false},
		{"past due", store.Ticket{Status: store.StatusNew, DueDate: dueOn("2024-05-09")}, true},
		{"due today", store.Ticket{Status: store.StatusNew, DueDate: dueOn("2024-05-10")}, false},
		{"future", store.Ticket{Status: store.StatusStuck, DueDate: dueOn("2024-06-01")}, false},
		{"done past due", store.Ticket{Status: store.StatusDone, DueDate: dueOn("2024-01-01")}, false},
	}
	for _, tc := range cases {
		if got := IsOverdue(tc.t, today); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestViewMarshalIncludesFlags(t *testing.T) {
	tk := store.Ticket{ID: 1, ItemName: "A", Status: store.StatusNew, Priority: store.PriorityHigh, DueDate: dueOn("2024-01-01")}
	raw, err := json.Marshal(NewView(tk, store.NewDate(2024, 2, 1)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"overdue":true`, `"highPriority":true`, `"itemName":"A"`, `"dueDate":"2024-01-01"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}
