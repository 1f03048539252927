package clock

import "testing"

func TestClock_AdvanceToMonotonic(t *testing.T) {
	c := New(1000, NewConstant(0))

	if !c.AdvanceTo(2000) {
		t.Fatal("expected forward advance to succeed")
	}
	if c.Now() != 2000 {
		t.Fatalf("expected 2000, got %d", c.Now())
	}
	if c.AdvanceTo(1500) {
		t.Fatal("expected backward advance to fail")
	}
	if c.Now() != 2000 {
		t.Fatalf("expected clock to stay at 2000, got %d", c.Now())
	}
}

func TestClock_TickAdvancesByOneMicrosecond(t *testing.T) {
	c := New(100, nil)
	if got := c.Tick(); got != 101 {
		t.Fatalf("expected 101, got %d", got)
	}
	if c.Now() != 101 {
		t.Fatalf("expected Now()==101, got %d", c.Now())
	}
}

func TestConstantLatency_AlwaysSameValue(t *testing.T) {
	m := NewConstant(500)
	for i := 0; i < 5; i++ {
		if got := m.Sample(); got != 500 {
			t.Fatalf("expected constant latency 500, got %d", got)
		}
	}
}

func TestUniformLatency_WithinBounds(t *testing.T) {
	m := NewUniform(42, 100, 200)
	for i := 0; i < 100; i++ {
		v := m.Sample()
		if v < 100 || v > 200 {
			t.Fatalf("sample %d out of bounds [100,200]", v)
		}
	}
}

func TestUniformLatency_DeterministicGivenSeed(t *testing.T) {
	a := NewUniform(7, 0, 1000)
	b := NewUniform(7, 0, 1000)
	for i := 0; i < 20; i++ {
		av, bv := a.Sample(), b.Sample()
		if av != bv {
			t.Fatalf("sample %d diverged: %d != %d", i, av, bv)
		}
	}
}

func TestSineLatency_WithinBounds(t *testing.T) {
	m := NewSine(10, 50, 0.3)
	for i := 0; i < 50; i++ {
		v := m.Sample()
		if v < 10 || v > 50 {
			t.Fatalf("sine sample %d out of bounds [10,50]", v)
		}
	}
}

func TestNormalLatency_ClampedToBounds(t *testing.T) {
	m := NewNormal(1, 0, 100)
	for i := 0; i < 200; i++ {
		v := m.Sample()
		if v < 0 || v > 100 {
			t.Fatalf("normal sample %d out of bounds [0,100]", v)
		}
	}
}

func TestPoissonLatency_ClampedToBounds(t *testing.T) {
	m := NewPoisson(1, 0, 100)
	for i := 0; i < 200; i++ {
		v := m.Sample()
		if v < 0 || v > 100 {
			t.Fatalf("poisson sample %d out of bounds [0,100]", v)
		}
	}
}

func TestClock_EffectiveTimestampAddsLatency(t *testing.T) {
	c := New(1_000_000, NewConstant(250))
	if got := c.EffectiveTimestamp(); got != 1_000_250 {
		t.Fatalf("expected 1000250, got %d", got)
	}
}
