package player

import (
	"testing"
	"time"
)

func TestProgress_Percent(t *testing.T) {
	p := Progress{
		Position: 50 * time.Second,
		Duration: 200 * time.Second,
		Finite:   true,
	}

	if got := p.Percent(); got != 25 {
		t.Errorf("Percent() = %v, want 25", got)
	}
}

func TestProgress_Percent_ZeroDuration(t *testing.T) {
	p := Progress{Position: 0, Duration: 0, Finite: true}

	if got := p.Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100", got)
	}
}

func TestProgress_Percent_NonFinite(t *testing.T) {
	p := nonFiniteProgress(3 * time.Hour)

	if p.Finite {
		t.Error("nonFiniteProgress should not be finite")
	}
	if got := p.Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100 for endless streams", got)
	}
}

func TestDefaultProgress(t *testing.T) {
	p := DefaultProgress()

	if p.Position != 0 {
		t.Errorf("Position = %v, want 0", p.Position)
	}
	if p.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", p.Duration)
	}
	if !p.Finite {
		t.Error("default progress should be finite")
	}
}
