package app

import (
	"context"
	"testing"
	"time"
)

func TestReport(t *testing.T) {
	early := clock.Add(-72 * time.Hour)
	parent := tsk("parent", "p", "", 1)
	child := tsk("child", "p", "parent", 1)
	child.SetCompleted(true, clock.Add(-time.Hour))
	old := tsk("old", "p", "", 2)
	old.SetCompleted(true, early)
	inbox := tsk("inbox", "", "", 1)
	inbox.SetCompleted(true, clock)
	inbox.Archived = true
	svc, _ := newService(t, proj("p", "", 1), parent, child, old, inbox, tsk("open", "", "", 2))

	res, err := svc.Report(context.Background(), owner, clock, clock.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Since.Before(res.Until) {
		t.Fatalf("window not normalized: %v..%v", res.Since, res.Until)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}
	if len(res.Sections) != 2 || res.Sections[0].Name != "Inbox" || res.Sections[1].Name != "p" {
		t.Fatalf("sections = %+v", res.Sections)
	}
	items := res.Sections[1].Items
	if len(items) != 2 {
		t.Fatalf("project items = %+v", items)
	}
	if items[0].Task.ID != "parent" || items[0].Completed || items[0].Depth != 0 {
		t.Errorf("context item = %+v", items[0])
	}
	if items[1].Task.ID != "child" || !items[1].Completed || items[1].Depth != 1 {
		t.Errorf("completed item = %+v", items[1])
	}
}

func TestReportEmpty(t *testing.T) {
	svc, _ := newService(t, tsk("open", "", "", 1))
	res, err := svc.Report(context.Background(), owner, clock.Add(-time.Hour), clock)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 || len(res.Sections) != 0 {
		t.Fatalf("report = %+v", res)
	}
}
