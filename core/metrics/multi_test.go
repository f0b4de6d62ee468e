package metrics

import "testing"

type recordSink struct {
	runs      int
	schedules int
}

func (r *recordSink) RecordRun(RunEvent) error {
	r.runs++
	return nil
}

func (r *recordSink) RecordSchedule(string, string, []SchedulePoint) error {
	r.schedules++
	return nil
}

type runOnlySink struct{ runs int }

func (r *runOnlySink) RecordRun(RunEvent) error {
	r.runs++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRun(RunEvent{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordSchedule("run-1", "exact", nil); err != nil {
		t.Fatalf("record schedule: %v", err)
	}
	if s1.runs != 1 || s2.runs != 1 || s1.schedules != 1 || s2.schedules != 1 {
		t.Fatalf("events not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkSkipsUnsupportedRecorders(t *testing.T) {
	s := &runOnlySink{}
	m := NewMultiSink(s)
	if err := m.RecordSchedule("run-1", "exact", nil); err != nil {
		t.Fatalf("record schedule: %v", err)
	}
	if s.runs != 0 {
		t.Fatalf("unexpected run records: %d", s.runs)
	}
}
