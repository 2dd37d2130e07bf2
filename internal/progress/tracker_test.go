package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTrackerStagesAreMonotonic(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Create("job-1", Meta{OwnerID: "owner"})

	stages := []Stage{
		StageLoadingScene,
		StagePreparingPrompt,
		StageLoadingSourceImage,
		StageCallingModel,
		StageProcessingResult,
		StageSavingImages,
	}
	last := 0
	for _, s := range stages {
		e, ok := tr.Advance("job-1", s)
		if !ok {
			t.Fatalf("Advance(%s) reported missing entry", s)
		}
		if e.Percent < last {
			t.Fatalf("percent went from %d to %d at %s", last, e.Percent, s)
		}
		want, _ := Checkpoint(s)
		if e.Percent != want {
			t.Fatalf("percent at %s = %d, want %d", s, e.Percent, want)
		}
		last = e.Percent
	}

	e, _ := tr.Update("job-1", Update{Stage: StageLoadingScene, Percent: 10})
	if e.Percent != 80 {
		t.Fatalf("percent decreased to %d", e.Percent)
	}

	e, _ = tr.Complete("job-1")
	if e.Percent != 100 || e.Stage != StageCompleted {
		t.Fatalf("unexpected completed entry: %+v", e)
	}
}

func TestTrackerTerminalStageIsFinal(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Create("job-1", Meta{})
	tr.Advance("job-1", StageSavingImages)
	tr.Complete("job-1")

	e, ok := tr.Fail("job-1", "publish panicked")
	if !ok {
		t.Fatalf("Fail reported missing entry")
	}
	if e.Stage != StageCompleted || e.Percent != 100 || e.LastError != "" {
		t.Fatalf("completed entry changed: %+v", e)
	}

	tr.Create("job-2", Meta{})
	tr.Advance("job-2", StageCallingModel)
	tr.Fail("job-2", "timeout")
	e, _ = tr.Complete("job-2")
	if e.Stage != StageFailed || e.Percent != 40 || e.LastError != "timeout" {
		t.Fatalf("failed entry changed: %+v", e)
	}
}

func TestTrackerUpdateMissingIsNoop(t *testing.T) {
	tr := NewTracker(time.Minute)
	if _, ok := tr.Advance("missing", StageCallingModel); ok {
		t.Fatalf("expected no entry")
	}
	if tr.Len() != 0 {
		t.Fatalf("update created an entry")
	}
}

func TestTrackerFailKeepsPercent(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Create("job-1", Meta{})
	tr.Advance("job-1", StageCallingModel)

	e, ok := tr.Fail("job-1", "gemini quota or rate limit exceeded")
	if !ok {
		t.Fatalf("Fail reported missing entry")
	}
	if e.Stage != StageFailed || e.Percent != 40 || e.LastError == "" {
		t.Fatalf("unexpected failed entry: %+v", e)
	}
}

func TestTrackerTerminalEntriesExpire(t *testing.T) {
	tr := NewTracker(20 * time.Millisecond)
	tr.Create("job-1", Meta{})
	tr.Create("job-2", Meta{})
	tr.Complete("job-1")

	time.Sleep(50 * time.Millisecond)
	if _, ok := tr.Get("job-1"); ok {
		t.Fatalf("terminal entry should have expired")
	}
	if _, ok := tr.Get("job-2"); !ok {
		t.Fatalf("running entry must not expire")
	}
}

func TestEstimatedRemaining(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{Stage: StageCallingModel, StartedAt: start, EstimatedTotal: 30 * time.Second}
	if got := e.EstimatedRemaining(start.Add(10 * time.Second)); got != 20*time.Second {
		t.Fatalf("remaining = %s, want 20s", got)
	}
	if got := e.EstimatedRemaining(start.Add(time.Minute)); got != 0 {
		t.Fatalf("remaining = %s, want 0", got)
	}
}

func TestTrackerConcurrentUpdates(t *testing.T) {
	tr := NewTracker(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("job-%d", i)
		tr.Create(id, Meta{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range []Stage{StageLoadingScene, StageCallingModel, StageSavingImages} {
				tr.Advance(id, s)
			}
			tr.Complete(id)
		}()
	}
	wg.Wait()
	for i := 0; i < 20; i++ {
		e, ok := tr.Get(fmt.Sprintf("job-%d", i))
		if !ok || e.Percent != 100 {
			t.Fatalf("job-%d: %+v ok=%v", i, e, ok)
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		stage  Stage
		locale string
		want   string
	}{
		{StageCallingModel, "en", "Calling AI model"},
		{StageCallingModel, "id", "Memanggil model AI"},
		{StageCompleted, "zh", "处理完成"},
		{StageFailed, "de", "Failed"},
		{Stage("custom"), "en", "custom"},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage)+"/"+tt.locale, func(t *testing.T) {
			if got := Label(tt.stage, tt.locale); got != tt.want {
				t.Fatalf("Label = %q, want %q", got, tt.want)
			}
		})
	}
}
