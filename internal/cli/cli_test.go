package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowspace/internal/config"
	"github.com/matzehuels/flowspace/pkg/frame"
)

const testDoc = "# Orders\n\n" +
	"```flowchart\n" +
	"name: Orders\n" +
	"vertices: [{id: cart}, {id: pay}, {id: ship}]\n" +
	"edges: [{start: cart, end: pay}, {start: pay, end: ship}]\n" +
	"subgraphs: [{id: backend, title: Backend, members: [pay, ship]}]\n" +
	"```\n\n" +
	"```flowchart\n" +
	"vertices: [{id: a}]\n" +
	"edges: [{start: a, end: ghost}]\n" +
	"```\n"

// testCLI isolates config and cache directories and writes testDoc.
func testCLI(t *testing.T) (*CLI, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	doc := filepath.Join(dir, "design.md")
	if err := os.WriteFile(doc, []byte(testDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(io.Discard, log.InfoLevel), doc
}

func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSimulateCommand(t *testing.T) {
	c, doc := testCLI(t)
	out := filepath.Join(filepath.Dir(doc), "orders.frame.json")

	if _, err := execute(t, c, "simulate", doc, "--ticks", "30", "-o", out); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	f, err := frame.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if f.Tick != 30 {
		t.Errorf("Tick = %d, want 30", f.Tick)
	}
	if len(f.Flowcharts) != 1 || f.Flowcharts[0].Name != "Orders" {
		t.Errorf("flowcharts = %+v, want only Orders", f.Flowcharts)
	}

	// The settled frame is cached.
	entries, err := os.ReadDir(filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName))
	if err != nil || len(entries) == 0 {
		t.Errorf("cache dir empty after simulate: %v", err)
	}
}

func TestSimulateStdout(t *testing.T) {
	c, doc := testCLI(t)
	stdout, err := execute(t, c, "simulate", doc, "--ticks", "5", "--no-cache", "-o", "-")
	if err != nil {
		t.Fatal(err)
	}
	f, err := frame.Unmarshal([]byte(stdout))
	if err != nil {
		t.Fatalf("stdout is not a frame: %v", err)
	}
	if f.Tick != 5 {
		t.Errorf("Tick = %d, want 5", f.Tick)
	}
}

func TestRenderCommand(t *testing.T) {
	c, doc := testCLI(t)
	dir := filepath.Dir(doc)
	framePath := filepath.Join(dir, "orders.frame.json")
	if _, err := execute(t, c, "simulate", doc, "--ticks", "10", "-o", framePath); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out", "orders.dot")
	if _, err := execute(t, c, "render", framePath, "-f", "dot", "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cart") {
		t.Errorf("dot output missing node cart:\n%s", data)
	}

	if _, err := execute(t, c, "render", framePath, "-f", "pdf"); err == nil {
		t.Error("render -f pdf should fail")
	}
	if _, err := execute(t, c, "render", framePath, "--flowchart", "nope", "-f", "dot"); err == nil {
		t.Error("unknown flowchart should fail")
	}
}

func TestInspectCommand(t *testing.T) {
	c, doc := testCLI(t)
	out, err := execute(t, c, "inspect", doc, "--edges")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Orders", "Backend", "cart", "ship"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestMissingDocument(t *testing.T) {
	c, doc := testCLI(t)
	if _, err := execute(t, c, "simulate", doc+".missing"); err == nil {
		t.Error("simulate of a missing file should fail")
	}
}

func TestConfigCommands(t *testing.T) {
	c, _ := testCLI(t)

	path, err := execute(t, c, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(path) != config.Path() {
		t.Errorf("config path = %q, want %q", path, config.Path())
	}

	if _, err := execute(t, c, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(config.Path()); err != nil {
		t.Fatalf("config init wrote nothing: %v", err)
	}

	shown, err := execute(t, c, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[simulation]", "[cache]", "flowspace"} {
		if !strings.Contains(shown, want) {
			t.Errorf("config show missing %q", want)
		}
	}
}

func TestConfigRejectsUnknownKey(t *testing.T) {
	c, _ := testCLI(t)
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.Path(), []byte("[simulation]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, c, "config", "show"); err == nil {
		t.Error("unknown config key should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	c, doc := testCLI(t)
	if _, err := execute(t, c, "simulate", doc, "--ticks", "5", "-o", filepath.Join(t.TempDir(), "f.json")); err != nil {
		t.Fatal(err)
	}

	dir, err := execute(t, c, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	dir = strings.TrimSpace(dir)
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); dir != want {
		t.Errorf("cache path = %q, want %q", dir, want)
	}

	if _, err := execute(t, c, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestCompletionCommand(t *testing.T) {
	c, _ := testCLI(t)
	out, err := execute(t, c, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "flowspace") {
		t.Error("bash completion should mention the command name")
	}
	if _, err := execute(t, c, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}
