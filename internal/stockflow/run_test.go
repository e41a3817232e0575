package stockflow

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestRunDecayScenario(t *testing.T) {
	m := decayModel(t)

	traj, err := m.Run(3)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(traj) != 3 {
		t.Fatalf("expected 3 records, got %d", len(traj))
	}

	want := []struct{ a, b, flow float64 }{
		{90, 10, 10},
		{81, 19, 9},
		{72.9, 27.1, 8.1},
	}
	for i, w := range want {
		assertNear(t, "A", traj[i].States[0], w.a)
		assertNear(t, "B", traj[i].States[1], w.b)
		assertNear(t, "flow", traj[i].Flows[0], w.flow)
	}

	if m.Value(0) != 100 || m.Value(1) != 0 {
		t.Errorf("baseline not restored: %v", m.Values())
	}
}

func TestRunBaselineRestored(t *testing.T) {
	for _, steps := range []int{0, 1, 5, 50} {
		m := decayModel(t)
		m.On(EveryStep, func(m *Model, step int) error {
			return m.SetValue(1, -1000)
		})

		if _, err := m.Run(steps); err != nil {
			t.Fatalf("steps=%d: %v", steps, err)
		}
		if m.Value(0) != 100 || m.Value(1) != 0 {
			t.Errorf("steps=%d: baseline not restored: %v", steps, m.Values())
		}
	}
}

func TestRunCallbackScenario(t *testing.T) {
	m := decayModel(t)
	m.On(AtStep(1), func(m *Model, step int) error {
		return m.SetValue(0, 0)
	})

	traj, err := m.Run(4)
	if err != nil {
		t.Fatal(err)
	}

	assertNear(t, "A after step 1", traj[1].States[0], 81)
	for k := 2; k < 4; k++ {
		assertNear(t, "A", traj[k].States[0], 0)
		assertNear(t, "B", traj[k].States[1], 19)
		assertNear(t, "flow", traj[k].Flows[0], 0)
	}
	if m.Value(0) != 100 {
		t.Errorf("A not restored, got %v", m.Value(0))
	}
}

func TestRunCallbackOrder(t *testing.T) {
	m := decayModel(t)
	var calls []string
	record := func(tag string) Callback {
		return func(m *Model, step int) error {
			calls = append(calls, tag)
			return nil
		}
	}
	m.On(EveryStep, record("every-1"))
	m.On(AtStep(0), record("step-1"))
	m.On(EveryStep, record("every-2"))
	m.On(AtStep(0), record("step-2"))

	if _, err := m.Run(2); err != nil {
		t.Fatal(err)
	}

	want := []string{"step-1", "step-2", "every-1", "every-2", "every-1", "every-2"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRunCallbackSeesPostStepValues(t *testing.T) {
	m := decayModel(t)
	var seen float64
	m.On(AtStep(0), func(m *Model, step int) error {
		seen = m.Value(0)
		return m.SetValue(0, 5)
	})

	traj, err := m.Run(1)
	if err != nil {
		t.Fatal(err)
	}
	assertNear(t, "value seen by callback", seen, 90)
	assertNear(t, "logged record", traj[0].States[0], 90)
}

func TestRunParameterCallbackDoesNotLeak(t *testing.T) {
	m := New("param")
	a := m.AddState("A", 100, "")
	b := m.AddState("B", 0, "")
	m.AddTransition(a, b, func(args ...float64) (float64, error) { return args[0] * args[1], nil },
		StateRef(a), ParamRef("rate"))
	m.SetParameter("rate", 0.1)
	m.On(AtStep(0), func(m *Model, step int) error {
		m.SetParameter("rate", 0)
		return nil
	})

	first, err := m.Run(3)
	if err != nil {
		t.Fatal(err)
	}
	assertNear(t, "flow after policy change", first[1].Flows[0], 0)

	if v, _ := m.Parameter("rate"); v != 0.1 {
		t.Errorf("parameter not restored: %v", v)
	}

	second, err := m.Run(3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("re-run after parameter callback differs")
	}
}

func TestRunDeterministic(t *testing.T) {
	m := decayModel(t)
	first, err := m.Run(20)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Run(20)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("runs differ")
	}
}

func TestRunLogOverwritten(t *testing.T) {
	m := decayModel(t)
	if _, err := m.Run(10); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Run(2); err != nil {
		t.Fatal(err)
	}
	if len(m.Log()) != 2 {
		t.Errorf("log has %d records, want 2", len(m.Log()))
	}
}

func TestRunNegativeSteps(t *testing.T) {
	m := decayModel(t)
	if _, err := m.Run(-1); !errors.Is(err, ErrNegativeSteps) {
		t.Errorf("expected ErrNegativeSteps, got %v", err)
	}
}

func TestRunEmptyModel(t *testing.T) {
	m := New("empty")
	table, err := m.RunTable(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 0 || len(table.Rows) != 3 {
		t.Fatalf("unexpected table: %+v", table)
	}
	for _, row := range table.Rows {
		if len(row) != 0 {
			t.Errorf("expected empty row, got %v", row)
		}
	}
}

func TestRunStepErrorCarriesStep(t *testing.T) {
	m := New("fail")
	a := m.AddState("A", 1, "")
	calls := 0
	m.AddTransition(a, a, func(args ...float64) (float64, error) {
		calls++
		if calls == 3 {
			return 0, errBoom
		}
		return 0, nil
	})

	traj, err := m.Run(5)
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if se.Step != 2 || !errors.Is(err, errBoom) {
		t.Errorf("step = %d, err = %v", se.Step, err)
	}
	if len(traj) != 2 {
		t.Errorf("partial log has %d records, want 2", len(traj))
	}
}

func TestRunCallbackError(t *testing.T) {
	m := decayModel(t)
	m.On(AtStep(1), func(m *Model, step int) error {
		m.SetValue(0, 42)
		return errBoom
	})

	_, err := m.Run(5)
	var ce *CallbackError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CallbackError, got %v", err)
	}
	if ce.Step != 1 || ce.Key.Every() || ce.Key.Step() != 1 || !errors.Is(err, errBoom) {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "callback @1") {
		t.Errorf("message = %q", err.Error())
	}
	if m.Value(0) != 100 {
		t.Errorf("baseline not restored after failure: %v", m.Value(0))
	}
}

func TestRunTable(t *testing.T) {
	m := decayModel(t)
	table, err := m.RunTable(2)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(table.Columns, []string{"A", "B", "A to B"}) {
		t.Errorf("columns = %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d", len(table.Rows))
	}
	assertNear(t, "row 1 flow", table.Rows[1][2], 9)

	col := table.Column(table.ColumnIndex("B"))
	assertNear(t, "B[0]", col[0], 10)
	assertNear(t, "B[1]", col[1], 19)
	if table.ColumnIndex("missing") != -1 {
		t.Error("missing column found")
	}
}

func TestRunLogsWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := New("logged", WithLogger(logger))
	m.AddState("A", 1, "")
	m.On(EveryStep, func(*Model, int) error { return nil })
	if _, err := m.Run(1); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, msg := range []string{"run started", "callback", "run finished"} {
		if !strings.Contains(out, msg) {
			t.Errorf("log missing %q:\n%s", msg, out)
		}
	}
}

func TestScheduledSteps(t *testing.T) {
	m := decayModel(t)
	m.On(AtStep(30), func(*Model, int) error { return nil })
	m.On(EveryStep, func(*Model, int) error { return nil })
	m.On(AtStep(10), func(*Model, int) error { return nil })
	m.On(AtStep(10), func(*Model, int) error { return nil })

	if got := m.ScheduledSteps(); !reflect.DeepEqual(got, []int{10, 30}) {
		t.Errorf("ScheduledSteps() = %v", got)
	}
}

func TestRunRuleWithTooFewDependencies(t *testing.T) {
	m := New("short")
	a := m.AddState("A", 100, "")
	b := m.AddState("B", 0, "")
	rule := func(args ...float64) (float64, error) { return 0.1 * args[0], nil }
	if _, err := m.AddTransition(a, b, rule); err != nil {
		t.Fatal(err)
	}

	_, err := m.Run(1)
	if !errors.Is(err, ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 0 || se.Transition != 0 {
		t.Errorf("expected step 0 transition 0, got %v", err)
	}
	assertNear(t, "A restored", m.Value(a), 100)
}

func TestCallbackKey(t *testing.T) {
	if !EveryStep.Every() || EveryStep.String() != "every" {
		t.Errorf("EveryStep = %v", EveryStep)
	}
	k := AtStep(7)
	if k.Every() || k.Step() != 7 || k.String() != "@7" {
		t.Errorf("AtStep(7) = %v", k)
	}
	if AtStep(0) == EveryStep {
		t.Error("AtStep(0) must differ from EveryStep")
	}
}

func TestParameterNamesSorted(t *testing.T) {
	p := Parameters{"gamma": 0.1, "beta": 0.3, "n": 1000}
	if got := p.Names(); !reflect.DeepEqual(got, []string{"beta", "gamma", "n"}) {
		t.Errorf("Names() = %v", got)
	}
	if len(Parameters(nil).Names()) != 0 {
		t.Error("nil parameters should have no names")
	}
}
