package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/store"
	"tableflip.dev/planner/pkg/tree"
)

// ReportItem is a task in a completion report. Ancestors of completed tasks
// are included for context with Completed unset.
type ReportItem struct {
	Task        *model.Task `json:"task"`
	Depth       int         `json:"depth"`
	Completed   bool        `json:"completed"`
	CompletedAt time.Time   `json:"completedAt,omitempty"`
}

// ReportSection groups report items by project. An empty ProjectID is the
// inbox.
type ReportSection struct {
	ProjectID string       `json:"project,omitempty"`
	Name      string       `json:"name"`
	Items     []ReportItem `json:"items"`
}

// ReportResult is a completed-tasks report for a time window.
type ReportResult struct {
	Since    time.Time       `json:"since"`
	Until    time.Time       `json:"until"`
	Sections []ReportSection `json:"sections"`
	Total    int             `json:"total"`
}

// Report returns the owner's tasks completed between since and until,
// archived ones included, grouped by project.
func (s *Service) Report(ctx context.Context, owner string, since, until time.Time) (ReportResult, error) {
	const op = "report"
	if since.After(until) {
		since, until = until, since
	}
	res := ReportResult{Since: since, Until: until}
	err := s.run(ctx, owner, op, func(r store.Repository) error {
		tasks, err := r.Tasks().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		projects, err := r.Projects().FindByOwner(ctx, owner)
		if err != nil {
			return storageErr(op, err)
		}
		names := map[string]string{"": "Inbox"}
		for _, p := range projects {
			names[p.ID] = p.Name
		}

		idx := tree.New(tasks)
		picked := make(map[string]*ReportItem)
		for _, t := range tasks {
			if !t.Completed || t.CompletedAt == nil {
				continue
			}
			at := t.CompletedAt.Time
			if at.Before(since) || at.After(until) {
				continue
			}
			picked[t.ID] = &ReportItem{Task: t, Completed: true, CompletedAt: at}
			res.Total++
			for _, a := range idx.Ancestors(t.ID) {
				if _, ok := picked[a.ID]; !ok {
					picked[a.ID] = &ReportItem{Task: a}
				}
			}
		}
		if len(picked) == 0 {
			return nil
		}

		byProject := make(map[string][]*model.Task)
		for _, item := range picked {
			byProject[item.Task.ProjectID] = append(byProject[item.Task.ProjectID], item.Task)
		}
		ids := make([]string, 0, len(byProject))
		for id := range byProject {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if names[ids[i]] != names[ids[j]] {
				return names[ids[i]] < names[ids[j]]
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids {
			section := ReportSection{ProjectID: id, Name: names[id]}
			for _, o := range outline(byProject[id]) {
				item := *picked[o.Node.ID]
				item.Depth = o.Depth
				section.Items = append(section.Items, item)
			}
			res.Sections = append(res.Sections, section)
		}
		return nil
	})
	return res, err
}
