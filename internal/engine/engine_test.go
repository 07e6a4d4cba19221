package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/logger"
	"pair-scalper/internal/store"
	"pair-scalper/internal/types"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

type fakeSource struct {
	sets  map[string]types.SignalSet
	errs  map[string]error
	calls []string
}

func (f *fakeSource) Collect(ctx context.Context, pair string) (types.SignalSet, error) {
	f.calls = append(f.calls, pair)
	if err, ok := f.errs[pair]; ok {
		return types.SignalSet{}, err
	}
	return f.sets[pair], nil
}

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Signals.Theta = 4
	cfg.Signals.MinMediumRatioA = 1.0005
	cfg.Signals.MinMediumRatioB = 1.001
	cfg.Signals.MinHitProb = 0.004
	return cfg
}

func goodSet() types.SignalSet {
	return types.SignalSet{
		TrendSupport:   4,
		TickSlope:      0.5,
		BelowMean:      true,
		MediumRatioA:   1.002,
		MediumRatioB:   1.003,
		HitProbability: 1,
	}
}

func candidates(pairs ...string) []types.Candidate {
	out := make([]types.Candidate, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, types.Candidate{Pair: p, Price: float64(i + 1)})
	}
	return out
}

func TestEvaluateQualifies(t *testing.T) {
	src := &fakeSource{sets: map[string]types.SignalSet{"AAAUSDT": goodSet()}}
	eng := New(testConfig(), src, nil)

	v, err := eng.Evaluate(context.Background(), candidates("AAAUSDT"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !v.Qualified {
		t.Fatal("Expected candidate to qualify")
	}
	if v.Candidate.Pair != "AAAUSDT" {
		t.Errorf("Expected AAAUSDT, got %s", v.Candidate.Pair)
	}
}

func TestEvaluateEachConditionGates(t *testing.T) {
	mutations := map[string]func(*types.SignalSet){
		"trend":  func(s *types.SignalSet) { s.TrendSupport = 3 },
		"slope":  func(s *types.SignalSet) { s.TickSlope = 0 },
		"mean":   func(s *types.SignalSet) { s.BelowMean = false },
		"ratioA": func(s *types.SignalSet) { s.MediumRatioA = 1.0005 },
		"ratioB": func(s *types.SignalSet) { s.MediumRatioB = 1.001 },
		"hit":    func(s *types.SignalSet) { s.HitProbability = 0.003 },
	}

	for name, mutate := range mutations {
		set := goodSet()
		mutate(&set)
		src := &fakeSource{sets: map[string]types.SignalSet{"AAAUSDT": set}}
		eng := New(testConfig(), src, nil)

		v, err := eng.Evaluate(context.Background(), candidates("AAAUSDT"))
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", name, err)
		}
		if v.Qualified {
			t.Errorf("%s: expected failing condition to block the verdict", name)
		}
	}
}

func TestEvaluateShortCircuits(t *testing.T) {
	src := &fakeSource{sets: map[string]types.SignalSet{
		"AAAUSDT": goodSet(),
		"BBBUSDT": goodSet(),
	}}
	eng := New(testConfig(), src, nil)

	v, err := eng.Evaluate(context.Background(), candidates("AAAUSDT", "BBBUSDT"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if v.Candidate.Pair != "AAAUSDT" {
		t.Errorf("Expected first candidate to win, got %s", v.Candidate.Pair)
	}
	if len(src.calls) != 1 {
		t.Errorf("Expected exactly 1 signal fetch, got %d", len(src.calls))
	}
}

func TestEvaluateSkipsUnavailable(t *testing.T) {
	src := &fakeSource{
		sets: map[string]types.SignalSet{"BBBUSDT": goodSet()},
		errs: map[string]error{"AAAUSDT": fmt.Errorf("%w: AAAUSDT trend frame", interfaces.ErrUnavailable)},
	}
	eng := New(testConfig(), src, nil)

	v, err := eng.Evaluate(context.Background(), candidates("AAAUSDT", "BBBUSDT"))
	if err != nil {
		t.Fatalf("Expected skip, got error %v", err)
	}
	if !v.Qualified || v.Candidate.Pair != "BBBUSDT" {
		t.Errorf("Expected BBBUSDT after skipping AAAUSDT, got %+v", v)
	}
}

func TestEvaluateExhaustedIsNotAnError(t *testing.T) {
	src := &fakeSource{
		errs: map[string]error{"AAAUSDT": fmt.Errorf("%w: flaky feed", interfaces.ErrUnavailable)},
	}
	eng := New(testConfig(), src, nil)

	v, err := eng.Evaluate(context.Background(), candidates("AAAUSDT"))
	if err != nil {
		t.Fatalf("Expected no error on exhausted scan, got %v", err)
	}
	if v.Qualified {
		t.Error("Expected no opportunity")
	}
}

func TestEvaluateAbortsOnHardError(t *testing.T) {
	boom := errors.New("venue down")
	src := &fakeSource{errs: map[string]error{"AAAUSDT": boom}}
	eng := New(testConfig(), src, nil)

	_, err := eng.Evaluate(context.Background(), candidates("AAAUSDT", "BBBUSDT"))
	if !errors.Is(err, boom) {
		t.Fatalf("Expected hard error to abort the scan, got %v", err)
	}
	if len(src.calls) != 1 {
		t.Errorf("Expected scan to stop at the failing candidate, got %d fetches", len(src.calls))
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	src := &fakeSource{sets: map[string]types.SignalSet{"AAAUSDT": goodSet()}}
	eng := New(testConfig(), src, nil)

	v1, _ := eng.Evaluate(context.Background(), candidates("AAAUSDT"))
	v2, _ := eng.Evaluate(context.Background(), candidates("AAAUSDT"))
	if v1 != v2 {
		t.Errorf("Expected identical verdicts, got %+v and %+v", v1, v2)
	}
}

func TestAuditorSeesEveryEvaluatedCandidate(t *testing.T) {
	bad := goodSet()
	bad.TrendSupport = 0
	src := &fakeSource{sets: map[string]types.SignalSet{
		"AAAUSDT": bad,
		"BBBUSDT": goodSet(),
	}}

	var observed []string
	var verdicts []bool
	audit := interfaces.AuditFunc(func(pair string, s types.SignalSet, qualified bool) {
		observed = append(observed, pair)
		verdicts = append(verdicts, qualified)
	})
	eng := New(testConfig(), src, audit)

	_, err := eng.Evaluate(context.Background(), candidates("AAAUSDT", "BBBUSDT"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(observed) != 2 {
		t.Fatalf("Expected 2 audited candidates, got %d", len(observed))
	}
	if verdicts[0] || !verdicts[1] {
		t.Errorf("Expected verdicts [false true], got %v", verdicts)
	}
}
