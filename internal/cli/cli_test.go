package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datafields/pkg/datafields"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

// testEnv runs fieldctl commands in process against temporary directories.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "fieldctl %s", strings.Join(args, " "))
	return out
}

func (e *testEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), out)
}

// seed stores asset 7, document 42 referencing it and document 43.
func (e *testEnv) seed() {
	e.t.Helper()
	e.mustRun("element", "add", "asset", "7", "/img/logo.png")
	e.mustRun("element", "add", "document", "42", "/en/home", "--ref", "asset:7")
	e.mustRun("element", "add", "document", "43", "/en/start")
}

func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.t.TempDir(), name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type linkOutput struct {
	RecordID string `json:"record_id"`
	Value    struct {
		Text         string `json:"text"`
		Path         string `json:"path"`
		LinkType     string `json:"linktype"`
		InternalType string `json:"internalType"`
		Internal     int64  `json:"internal"`
		Direct       string `json:"direct"`
	} `json:"value"`
	HTML string `json:"html"`
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "fieldctl v"+datafields.Version)
	assert.Contains(t, out, datafields.ModulePath)
}

func TestInitCreatesDirectories(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("init")
	assert.Contains(t, out, "Initialized storage")

	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "elements.jsonl"))
	assert.FileExists(t, filepath.Join(e.dataDir, "record_links.jsonl"))

	// Running init again keeps the existing configuration.
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte("backend: sqlite\nblob_format: cbor\n"), 0o644))
	var got map[string]string
	e.runJSON(&got, "init")
	assert.Equal(t, "cbor", got["blob_format"])
}

func TestElementCommands(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	var recs []types.ElementRecord
	e.runJSON(&recs, "element", "list")
	require.Len(t, recs, 3)
	assert.Equal(t, types.ElementTypeAsset, recs[0].Type)

	e.runJSON(&recs, "element", "list", "--type", "document")
	assert.Len(t, recs, 2)

	var rec types.ElementRecord
	e.runJSON(&rec, "element", "get", "document", "42")
	assert.Equal(t, "/en/home", rec.Path)
	assert.Equal(t, []types.Dependency{{ID: 7, Type: types.ElementTypeAsset}}, rec.Refs)

	assert.Contains(t, e.mustRun("element", "list"), "/img/logo.png")

	e.mustRun("element", "delete", "asset", "7")
	_, err := e.run("element", "get", "asset", "7")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestElementCommandsRejectBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown type", []string{"element", "add", "page", "1", "/p"}, types.ErrInternalTypeUnknown},
		{"zero id", []string{"element", "add", "asset", "0", "/p"}, types.ErrInvalidID},
		{"bad ref", []string{"element", "add", "asset", "1", "/p", "--ref", "asset"}, types.ErrInvalidData},
		{"bad list type", []string{"element", "list", "--type", "page"}, types.ErrInternalTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			_, err := e.run(tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLinkSetGetDeps(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--text", "Home", "--internal", "document:42")

	var got linkOutput
	e.runJSON(&got, "link", "get", "--record", "r1", "--field", "cta")
	assert.Equal(t, "Home", got.Value.Text)
	assert.Equal(t, "/en/home", got.Value.Path)
	assert.Equal(t, "internal", got.Value.LinkType)
	assert.Equal(t, int64(42), got.Value.Internal)
	assert.Equal(t, `<a href="/en/home">Home</a>`, got.HTML)

	var deps struct {
		Dependencies []types.Dependency `json:"dependencies"`
		CacheTags    []string           `json:"cache_tags"`
	}
	e.runJSON(&deps, "link", "deps", "--record", "r1", "--field", "cta")
	assert.Equal(t, []types.Dependency{{ID: 42, Type: types.ElementTypeDocument}}, deps.Dependencies)
	assert.Equal(t, []string{"asset_7", "document_42"}, deps.CacheTags)

	assert.Contains(t, e.mustRun("link", "get", "--record", "r1", "--field", "cta"), "/en/home")
}

func TestLinkSetValidates(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	_, err := e.run("link", "set", "--record", "r1", "--field", "cta", "--text", "Gone", "--internal", "document:404")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = e.run("link", "set", "--record", "r1", "--field", "cta", "--direct", "https://x.test", "--internal", "document:42")
	assert.Error(t, err)

	_, err = e.run("link", "set", "--record", "r1", "--field", "cta", "--form", "{")
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = e.run("link", "set", "--record", "r1", "--text", "no field")
	assert.Error(t, err)
}

func TestLinkSetGeneratesRecordIDAndClears(t *testing.T) {
	e := newTestEnv(t)

	var owner map[string]string
	e.runJSON(&owner, "link", "set", "--field", "cta", "--text", "Docs", "--direct", "https://docs.test", "--target", "_blank")
	require.NotEmpty(t, owner["record_id"])

	var got linkOutput
	e.runJSON(&got, "link", "get", "--record", owner["record_id"], "--field", "cta")
	assert.Equal(t, "https://docs.test", got.Value.Path)
	assert.Equal(t, `<a href="https://docs.test" target="_blank">Docs</a>`, got.HTML)

	out := e.mustRun("link", "set", "--record", owner["record_id"], "--field", "cta")
	assert.Contains(t, out, "Cleared")
	_, err := e.run("link", "get", "--record", owner["record_id"], "--field", "cta")
	assert.ErrorIs(t, err, types.ErrNotFound)

	out = e.mustRun("link", "set", "--record", "r2", "--field", "cta", "--form", `{"path":"/x"}`)
	assert.Contains(t, out, "Cleared")
	_, err = e.run("link", "get", "--record", "r2", "--field", "cta")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLinkFormFlagsOverrideForm(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("link", "set", "--record", "r1", "--field", "cta",
		"--form", `{"text":"From form","direct":"https://a.test","linktype":"direct","unknown":"ignored"}`,
		"--text", "From flag")

	var got linkOutput
	e.runJSON(&got, "link", "get", "--record", "r1", "--field", "cta")
	assert.Equal(t, "From flag", got.Value.Text)
	assert.Equal(t, "https://a.test", got.Value.Direct)
}

func TestLinkListSearchDelete(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--text", "Home", "--internal", "document:42")
	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--language", "de", "--text", "Startseite", "--internal", "document:42")
	e.mustRun("link", "set", "--record", "r2", "--field", "more", "--text", "Docs", "--direct", "https://docs.test")

	var all []map[string]any
	e.runJSON(&all, "link", "list")
	assert.Len(t, all, 3)
	e.runJSON(&all, "link", "list", "--record", "r1")
	assert.Len(t, all, 2)

	var found []map[string]string
	e.runJSON(&found, "link", "search", "Startseite")
	require.Len(t, found, 1)
	assert.Equal(t, "de", found[0]["language"])

	_, err := e.run("link", "search", "")
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	e.mustRun("link", "delete", "--record", "r1", "--field", "cta", "--language", "de")
	e.runJSON(&found, "link", "search", "Startseite")
	assert.Empty(t, found)

	assert.Contains(t, e.mustRun("link", "search", "nothing-matches"), "No entries found.")
}

func TestLinkDiff(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--text", "Home", "--internal", "document:42")

	out := e.mustRun("link", "diff", "--record", "r1", "--field", "cta", "--text", "Start", "--internal", "document:42")
	assert.Equal(t, `<a href="/en/home">[-Home-]{+Start+}</a>`+"\n", out)

	var got struct {
		Before  string              `json:"before"`
		After   string              `json:"after"`
		Changes []map[string]string `json:"changes"`
	}
	e.runJSON(&got, "link", "diff", "--record", "r1", "--field", "cta", "--text", "Start", "--internal", "document:42")
	assert.Equal(t, "Home", got.Before)
	assert.Equal(t, "Start", got.After)
	assert.NotEmpty(t, got.Changes)

	// A field with no stored value diffs against nothing.
	out = e.mustRun("link", "diff", "--record", "r9", "--field", "cta", "--text", "New", "--direct", "https://n.test")
	assert.Equal(t, `{+<a href="https://n.test">New</a>+}`+"\n", out)
}

func TestCSVRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--text", "Home", "--internal", "document:42")
	e.mustRun("link", "set", "--record", "r2", "--field", "cta", "--text", "Docs", "--direct", "https://docs.test")

	file := filepath.Join(t.TempDir(), "links.csv")
	e.mustRun("csv", "export", "--out", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "record_id,field_name,language,value", lines[0])

	e.mustRun("link", "delete", "--record", "r1", "--field", "cta")
	out := e.mustRun("csv", "import", file)
	assert.Contains(t, out, "Imported 2 values")

	var got linkOutput
	e.runJSON(&got, "link", "get", "--record", "r1", "--field", "cta")
	assert.Equal(t, int64(42), got.Value.Internal)
	assert.Equal(t, "/en/home", got.Value.Path)
}

func TestCSVImportErrors(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run("csv", "import", e.writeFile("bad.csv", "r1,cta,,not base64!\n"))
	assert.ErrorIs(t, err, types.ErrTransport)

	_, err = e.run("csv", "import", e.writeFile("short.csv", "r1,cta\n"))
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = e.run("csv", "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	// A cell holding no link clears the field.
	out := e.mustRun("csv", "import", e.writeFile("empty.csv", "record_id,field_name,language,value\nr1,cta,,\n"))
	assert.Contains(t, out, "Imported 1 values")
}

func TestWebserviceExportImport(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--text", "Home", "--internal", "document:42", "--title", "Go home")

	out := e.mustRun("ws", "export")
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)

	var row webserviceRow
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, "r1", row.RecordID)
	assert.Equal(t, "Go home", row.Value["title"])

	e.mustRun("link", "delete", "--record", "r1", "--field", "cta")
	file := e.writeFile("export.jsonl", out)
	assert.Contains(t, e.mustRun("ws", "import", file), "Imported 1 values")

	var got linkOutput
	e.runJSON(&got, "link", "get", "--record", "r1", "--field", "cta")
	assert.Equal(t, int64(42), got.Value.Internal)
}

func TestWebserviceImportMapping(t *testing.T) {
	const line = `{"record_id":"r9","field_name":"cta","language":"","value":{"text":"Home","linktype":"internal","internalType":"document","internal":%d}}` + "\n"

	t.Run("mapped id", func(t *testing.T) {
		e := newTestEnv(t)
		e.seed()
		mapping := e.writeFile("ids.yaml", "ids:\n  document:\n    5: 42\n")
		e.mustRun("ws", "import", e.writeFile("in.jsonl", fmt.Sprintf(line, 5)), "--mapping", mapping)

		var got linkOutput
		e.runJSON(&got, "link", "get", "--record", "r9", "--field", "cta")
		assert.Equal(t, int64(42), got.Value.Internal)
	})

	t.Run("strict unknown element", func(t *testing.T) {
		e := newTestEnv(t)
		e.seed()
		_, err := e.run("ws", "import", e.writeFile("in.jsonl", fmt.Sprintf(line, 404)))
		assert.ErrorIs(t, err, types.ErrTransport)
		assert.ErrorIs(t, err, types.ErrUnknownElement)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("tolerated unknown element", func(t *testing.T) {
		e := newTestEnv(t)
		e.seed()
		var report struct {
			Imported int `json:"imported"`
			Failures []struct {
				Scope     string `json:"scope"`
				RelatedID string `json:"related_id"`
				Type      string `json:"type"`
				ID        int64  `json:"id"`
			} `json:"failures"`
		}
		e.runJSON(&report, "ws", "import", e.writeFile("in.jsonl", "\n"+fmt.Sprintf(line, 404)), "--ignore-mapping-failures")
		assert.Equal(t, 1, report.Imported)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "object", report.Failures[0].Scope)
		assert.Equal(t, "r9", report.Failures[0].RelatedID)
		assert.Equal(t, int64(404), report.Failures[0].ID)

		_, err := e.run("link", "get", "--record", "r9", "--field", "cta")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("flag overrides mapping file", func(t *testing.T) {
		e := newTestEnv(t)
		e.seed()
		mapping := e.writeFile("ids.yaml", "ignore_failures: true\nids: {}\n")
		_, err := e.run("ws", "import", e.writeFile("in.jsonl", fmt.Sprintf(line, 404)),
			"--mapping", mapping, "--ignore-mapping-failures=false")
		assert.ErrorIs(t, err, types.ErrUnknownElement)
	})

	t.Run("malformed line", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := e.run("ws", "import", e.writeFile("in.jsonl", "[1,2]\n"))
		assert.ErrorIs(t, err, types.ErrInvalidData)
	})
}

func TestRemap(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	e.mustRun("link", "set", "--record", "r1", "--field", "cta", "--text", "Home", "--internal", "document:42")
	e.mustRun("link", "set", "--record", "r2", "--field", "cta", "--text", "Logo", "--internal", "asset:7")
	mapping := e.writeFile("ids.yaml", "ids:\n  document:\n    42: 43\n")

	var changes []map[string]string
	e.runJSON(&changes, "remap", "--mapping", mapping, "--dry-run")
	require.Len(t, changes, 1)
	assert.Equal(t, "document_42", changes[0]["from"])
	assert.Equal(t, "document_43", changes[0]["to"])

	var got linkOutput
	e.runJSON(&got, "link", "get", "--record", "r1", "--field", "cta")
	assert.Equal(t, int64(42), got.Value.Internal, "dry run stores nothing")

	assert.Contains(t, e.mustRun("remap", "--mapping", mapping), "Remapped 1 values")
	e.runJSON(&got, "link", "get", "--record", "r1", "--field", "cta")
	assert.Equal(t, int64(43), got.Value.Internal)
	assert.Equal(t, "/en/start", got.Value.Path)

	_, err := e.run("remap")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"user", types.ErrNotFound, exitUserError},
		{"system", sysError(errors.New("disk full")), exitSysError},
		{"wrapped system", fmt.Errorf("save: %w", sysError(errors.New("disk full"))), exitSysError},
		{"detached", fmt.Errorf("load: %w", types.ErrDetached), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
	assert.NoError(t, sysError(nil))
}
