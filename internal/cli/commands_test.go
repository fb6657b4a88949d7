package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"baan/internal/atomicfile"
	"baan/internal/config"
	"baan/internal/discovery"
	"baan/internal/logging"
	"baan/internal/process"
)

type testEnv struct {
	env      *Env
	home     string
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	launched []process.Config
	logs     *logging.TestLogManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.HomeDir = home
	cfg.Editor = "vi -n"
	cfg.Markers = []string{".git", "baan-test-Cargo.toml"}

	te := &testEnv{
		home:   home,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		logs:   logging.NewTestLogManager(),
	}
	te.env = &Env{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "baan", "config.yaml"),
		Logs:       te.logs,
		Stdout:     te.stdout,
		Stderr:     te.stderr,
		Getwd:      func() (string, error) { return "/", nil },
		Launch: func(_ context.Context, pc process.Config, _ *logging.ScopedLogger) (int, error) {
			te.launched = append(te.launched, pc)
			return 0, nil
		},
		Now: func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.Local) },
	}
	return te
}

func (te *testEnv) run(t *testing.T, args ...string) (int, error) {
	t.Helper()
	te.stdout.Reset()
	te.stderr.Reset()
	return BuildApp("test", te.env).Execute(args)
}

func gitProject(t *testing.T, name, head string) string {
	t.Helper()
	project := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(project, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ".git", "HEAD"), []byte(head), 0644); err != nil {
		t.Fatal(err)
	}
	return project
}

func TestOpen_GitProjectLaunchesEditor(t *testing.T) {
	te := newTestEnv(t)
	project := gitProject(t, "widget", "ref: refs/heads/feature-x\n")

	code, err := te.run(t, "open", "--dir", filepath.Join(project))
	if err != nil || code != 0 {
		t.Fatalf("open = %d, %v", code, err)
	}

	want := filepath.Join(te.home, "widget", "feature-x.md")
	if len(te.launched) != 1 {
		t.Fatalf("editor launched %d times, want 1", len(te.launched))
	}
	pc := te.launched[0]
	if pc.Binary != "vi" || strings.Join(pc.Args, " ") != "-n "+want || pc.Dir != te.home {
		t.Errorf("launch config = %+v", pc)
	}
	if data, _ := os.ReadFile(want); string(data) != "# TODO\n- [ ] \n" {
		t.Errorf("note content = %q", data)
	}
}

func TestOpen_IsDefaultCommand(t *testing.T) {
	te := newTestEnv(t)
	te.env.Getwd = func() (string, error) { return gitProject(t, "widget", "ref: refs/heads/main\n"), nil }

	if _, err := te.run(t); err != nil {
		t.Fatalf("bare run error = %v", err)
	}
	if len(te.launched) != 1 || !strings.HasSuffix(te.launched[0].Args[1], filepath.Join("widget", "main.md")) {
		t.Errorf("launched = %+v", te.launched)
	}
}

func TestOpen_PassesEditorExitStatus(t *testing.T) {
	te := newTestEnv(t)
	te.env.Launch = func(context.Context, process.Config, *logging.ScopedLogger) (int, error) {
		return 5, nil
	}

	code, err := te.run(t, "open", "-d", t.TempDir())
	if err != nil {
		t.Fatalf("open error = %v", err)
	}
	if code != 5 {
		t.Errorf("open = %d, want editor status 5", code)
	}
}

func TestOpen_EditorStatusNeverLooksLikeWriteFailure(t *testing.T) {
	te := newTestEnv(t)
	te.env.Launch = func(context.Context, process.Config, *logging.ScopedLogger) (int, error) {
		return atomicfile.ExitCodeWriteFailure, nil
	}

	code, err := te.run(t, "open", "-d", t.TempDir())
	if err != nil {
		t.Fatalf("open error = %v", err)
	}
	if code != 1 {
		t.Errorf("open = %d, want 1", code)
	}
	if !te.logs.HasMessage("process", "editor exit status collides with reserved status, reporting 1") {
		t.Error("remapped status was not logged")
	}
}

func TestOpen_PrintBuildSystemNote(t *testing.T) {
	te := newTestEnv(t)
	project := filepath.Join(t.TempDir(), "crate")
	if err := os.MkdirAll(filepath.Join(project, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "baan-test-Cargo.toml"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := te.run(t, "open", "--print", "--dir", filepath.Join(project, "src")); err != nil {
		t.Fatalf("open error = %v", err)
	}
	if len(te.launched) != 0 {
		t.Error("--print must not launch the editor")
	}
	want := filepath.Join(te.home, "crate", "braindump.md")
	if got := strings.TrimSpace(te.stdout.String()); got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

func TestOpen_NoMarkerFallsBackToHome(t *testing.T) {
	te := newTestEnv(t)
	te.env.Config.MaxDepth = 2
	start := filepath.Join(t.TempDir(), "a", "b", "c", "d")
	if err := os.MkdirAll(start, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := te.run(t, "open", "-p", "-d", start); err != nil {
		t.Fatalf("open error = %v", err)
	}
	if got := strings.TrimSpace(te.stdout.String()); got != filepath.Join(te.home, "braindump.md") {
		t.Errorf("printed %q", got)
	}
}

func TestOpen_HomeMissing(t *testing.T) {
	te := newTestEnv(t)
	te.env.Config.HomeDir = filepath.Join(te.home, "missing")

	code, err := te.run(t, "open", "-p", "-d", t.TempDir())
	if !errors.Is(err, discovery.ErrHomeDirectoryMissing) {
		t.Fatalf("open error = %v, want ErrHomeDirectoryMissing", err)
	}
	if code != 1 || ExitCode(err) != 1 {
		t.Errorf("exit = %d / %d, want 1", code, ExitCode(err))
	}
	if _, statErr := os.Stat(te.env.Config.HomeDir); !os.IsNotExist(statErr) {
		t.Error("home directory must not be created")
	}
}

func TestOpen_NoEditor(t *testing.T) {
	te := newTestEnv(t)
	te.env.Config.Editor = ""
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")

	if _, err := te.run(t, "open", "-d", t.TempDir()); err == nil {
		t.Fatal("open without editor should fail")
	}
}

func TestOpen_BadFlag(t *testing.T) {
	te := newTestEnv(t)
	if code, err := te.run(t, "open", "--bogus"); err == nil || code != 1 {
		t.Errorf("open --bogus = %d, %v", code, err)
	}
	if code, err := te.run(t, "daily", "extra"); err == nil || code != 1 {
		t.Errorf("daily extra = %d, %v", code, err)
	}
}

func TestDaily_Idempotent(t *testing.T) {
	te := newTestEnv(t)
	want := filepath.Join(te.home, "daily", "07-03-25.md")

	for i := 0; i < 2; i++ {
		if _, err := te.run(t, "daily", "--print"); err != nil {
			t.Fatalf("daily #%d error = %v", i, err)
		}
		if got := strings.TrimSpace(te.stdout.String()); got != want {
			t.Errorf("daily #%d printed %q, want %q", i, got, want)
		}
		if i == 0 {
			if err := os.WriteFile(want, []byte("today"), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	if data, _ := os.ReadFile(want); string(data) != "today" {
		t.Errorf("daily note overwritten: %q", data)
	}
}

func TestNew_ArchivesAndRecreates(t *testing.T) {
	te := newTestEnv(t)
	project := gitProject(t, "widget", "ref: refs/heads/main\n")
	note := filepath.Join(te.home, "widget", "main.md")

	if _, err := te.run(t, "open", "-p", "-d", project); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(note, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := te.run(t, "new", "-p", "-d", project); err != nil {
		t.Fatalf("new error = %v", err)
	}
	archive := filepath.Join(te.home, "widget", "main-2025-03-07.archive.md")
	if data, _ := os.ReadFile(archive); string(data) != "old" {
		t.Errorf("archive content = %q", data)
	}
	if !strings.Contains(te.stderr.String(), archive) {
		t.Errorf("archive path not reported, stderr = %q", te.stderr.String())
	}
	if data, _ := os.ReadFile(note); string(data) != "# TODO\n- [ ] \n" {
		t.Errorf("fresh note content = %q", data)
	}
}

func TestWhere_ReportsWithoutCreating(t *testing.T) {
	te := newTestEnv(t)
	project := gitProject(t, "widget", "abcdef1234567890\n")

	if _, err := te.run(t, "where", "--plain", "--dir", project); err != nil {
		t.Fatalf("where error = %v", err)
	}
	out := te.stdout.String()
	canonicalProject, _ := filepath.EvalSymlinks(project)
	note := filepath.Join(te.home, "widget", "HEAD:abcdef12.md")
	for _, want := range []string{"Project", "widget", "git", canonicalProject, note, "Exists", "no"} {
		if !strings.Contains(out, want) {
			t.Errorf("where output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("--plain output should not contain escape sequences")
	}
	if _, err := os.Stat(filepath.Join(te.home, "widget")); !os.IsNotExist(err) {
		t.Error("where must not create anything")
	}
}

func TestConfigInit(t *testing.T) {
	te := newTestEnv(t)

	if _, err := te.run(t, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	cfg, err := config.LoadFrom(te.env.ConfigPath)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.MaxDepth != config.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d", cfg.MaxDepth)
	}

	if err := os.WriteFile(te.env.ConfigPath, []byte("editor: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := te.run(t, "config", "init"); err != nil {
		t.Fatalf("second config init error = %v", err)
	}
	if data, _ := os.ReadFile(te.env.ConfigPath); string(data) != "editor: mine\n" {
		t.Error("config init must not overwrite an existing file")
	}
	if !strings.Contains(te.stderr.String(), "already exists") {
		t.Errorf("stderr = %q", te.stderr.String())
	}
}

func TestConfigInit_TempInUse(t *testing.T) {
	te := newTestEnv(t)
	if err := os.MkdirAll(filepath.Dir(te.env.ConfigPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(atomicfile.TempPath(te.env.ConfigPath), nil, 0644); err != nil {
		t.Fatal(err)
	}

	code, err := te.run(t, "config", "init")
	if err == nil || code != 1 {
		t.Fatalf("config init = %d, %v; want 1 with error", code, err)
	}
	if strings.Contains(te.stdout.String(), "wrote") {
		t.Errorf("stdout = %q, should not claim a write", te.stdout.String())
	}
}

func TestConfigShowAndPath(t *testing.T) {
	te := newTestEnv(t)

	if _, err := te.run(t, "config"); err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(te.stdout.String(), "home_dir: "+te.home) {
		t.Errorf("config show output = %q", te.stdout.String())
	}

	if _, err := te.run(t, "config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(te.stdout.String()) != te.env.ConfigPath {
		t.Errorf("config path printed %q", te.stdout.String())
	}
}

func TestVersion(t *testing.T) {
	te := newTestEnv(t)
	if _, err := te.run(t, "version"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(te.stdout.String()) != "test" {
		t.Errorf("version printed %q", te.stdout.String())
	}
}

func TestExitCode(t *testing.T) {
	wf := &atomicfile.WriteFailureError{Path: "/n/a.md", TempPath: "/n/a.tmp", Err: errors.New("EIO")}
	if got := ExitCode(fmt.Errorf("open: %w", wf)); got != atomicfile.ExitCodeWriteFailure {
		t.Errorf("ExitCode(write failure) = %d, want %d", got, atomicfile.ExitCodeWriteFailure)
	}
	if got := ExitCode(errors.New("boom")); got != 1 {
		t.Errorf("ExitCode(other) = %d, want 1", got)
	}
}

func TestPlain_StripsStyling(t *testing.T) {
	styled := NewStyles("latte").ErrorStyle().Render("error")
	if Plain(styled) != "error" {
		t.Errorf("Plain(%q) = %q", styled, Plain(styled))
	}
}

func TestReport_RendersEveryField(t *testing.T) {
	out := Plain(NewStyles("mocha").Report([]Field{
		{Label: "Project", Value: "widget", Accent: true},
		{Label: "Root", Value: "-", Muted: true},
	}))

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Report lines = %q", lines)
	}
	for i, want := range []string{"Project  widget", "Root     -"} {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}
