package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"radgrid/core"
	"radgrid/simulation"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// --- run ---

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "run", "--format", "json", "--steps", "10", "--layers", "4", "--bands", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var view resultView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if view.Dims != [2]int{4, 5} || view.Steps != 10 || len(view.State) != 4 {
		t.Fatalf("unexpected result %+v", view)
	}

	want, err := simulation.RunModel(0.1, 10, 300, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	if view.Fingerprint != want.Fingerprint() {
		t.Fatalf("CLI run differs from RunModel")
	}
}

func TestRunCSV(t *testing.T) {
	out, err := execute(t, "run", "-f", "csv", "-n", "3", "--layers", "3", "--bands", "4", "-b", "10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 13 {
		t.Fatalf("expected header + 12 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "layer,band,value,boundary" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][2] != "10" || rows[1][3] != "true" {
		t.Fatalf("corner row = %v", rows[1])
	}
}

func TestRunTable(t *testing.T) {
	out, err := execute(t, "run", "--layers", "3", "--bands", "3", "--steps", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"radgrid 3x3", "fingerprint", "300.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRunConfigAndOverrides(t *testing.T) {
	cfg := writeFile(t, "settings.yaml", `
run:
  dt: 0.2
  nsteps: 4
  boundaryValue: 50
  dimA: 5
  dimB: 6
solver:
  layerCoefficient: 0.1
  bandCoefficient: 0.2
  stability: off
`)
	outFile := filepath.Join(t.TempDir(), "state.json")
	if _, err := execute(t, "run", "--config", cfg, "--steps", "8", "--format", "json", "--out", outFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	var view resultView
	if err := json.Unmarshal(b, &view); err != nil {
		t.Fatal(err)
	}
	if view.Steps != 8 || view.Dims != [2]int{5, 6} || view.BoundaryValue != 50 {
		t.Fatalf("flags did not override config: %+v", view)
	}
}

func TestRunInvalidInput(t *testing.T) {
	_, err := execute(t, "run", "--layers", "0")
	if !errors.Is(err, core.ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}

	if _, err := execute(t, "run", "--stability", "sometimes"); err == nil {
		t.Fatal("expected unknown stability policy to fail")
	}
	if _, err := execute(t, "run", "--format", "xml", "--steps", "1"); err == nil {
		t.Fatal("expected unknown format to fail")
	}
}

func TestRunTrace(t *testing.T) {
	out, err := execute(t, "run", "--format", "json", "--trace", "--steps", "6", "--layers", "4", "--bands", "4")
	if err != nil {
		t.Fatal(err)
	}
	var view resultView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Trace) != 6 || view.Trace[5].Step != 6 {
		t.Fatalf("expected six trace entries, got %d", len(view.Trace))
	}
}

// --- sweep ---

func TestSweep(t *testing.T) {
	cfg := writeFile(t, "sweep.yaml", `
sweep:
  cases:
    - {name: a, dt: 0.1, nsteps: 5, boundaryValue: 300, dimA: 4, dimB: 4}
    - {name: b, dt: 0.1, nsteps: 5, boundaryValue: 100, dimA: 6, dimB: 3}
`)
	out, err := execute(t, "sweep", "--config", cfg, "--format", "json", "-p", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var views []struct {
		Name   string      `json:"name"`
		Result *resultView `json:"result"`
		Error  string      `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(views) != 2 || views[0].Name != "a" || views[1].Name != "b" {
		t.Fatalf("unexpected sweep output %+v", views)
	}
	if views[1].Result == nil || views[1].Result.Dims != [2]int{6, 3} {
		t.Fatalf("case b result = %+v", views[1].Result)
	}
}

func TestSweepFailures(t *testing.T) {
	if _, err := execute(t, "sweep"); err == nil {
		t.Fatal("expected missing config to fail")
	}

	cfg := writeFile(t, "sweep.yaml", `
sweep:
  cases:
    - {name: good, dt: 0.1, nsteps: 5, boundaryValue: 1, dimA: 3, dimB: 3}
    - {name: bad, dt: 0.1, nsteps: 5, boundaryValue: 1, dimA: -3, dimB: 3}
`)
	out, err := execute(t, "sweep", "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected one failed case, got %v", err)
	}
	if !strings.Contains(out, "good") || !strings.Contains(out, "bad") {
		t.Fatalf("table should list both cases:\n%s", out)
	}
	for _, want := range []string{"CASE", "FINGERPRINT", "STATUS", "│", "invalid dimension"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// top border, header, separator, two rows, bottom border
	if len(lines) != 6 {
		t.Fatalf("expected a six-line table, got %d:\n%s", len(lines), out)
	}
}

// --- defects ---

func TestDefectsCSV(t *testing.T) {
	cfg := writeFile(t, "config.json", `{
  "total_time_seconds": 10,
  "dt_seconds": 1,
  "temperature_kelvin": 600,
  "K_0_exp": -6,
  "C_s_exp": 8,
  "sample_interval": 2
}`)
	out, err := execute(t, "defects", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "t, Ci, Cv, sink_diff" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	// samples at t = 0, 2, 4, 6, 8
	if len(lines) != 6 {
		t.Fatalf("expected 5 samples, got %d:\n%s", len(lines)-1, out)
	}
	if !strings.HasPrefix(lines[2], "2, ") {
		t.Fatalf("second sample = %q", lines[2])
	}
}

func TestDefectsJSON(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "total_time_seconds: 3\ndt_seconds: 1\nsample_interval: 0\n")
	out, err := execute(t, "defects", cfg, "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Steps   int `json:"steps"`
		Samples []struct {
			T float64 `json:"t"`
		} `json:"samples"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatal(err)
	}
	if body.Steps != 3 || len(body.Samples) != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDefectsMissingConfig(t *testing.T) {
	if _, err := execute(t, "defects", filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected missing config to fail")
	}
}

// --- version ---

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "radgrid "+Version) {
		t.Fatalf("unexpected version output %q", out)
	}
}
