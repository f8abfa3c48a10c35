package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/crdt/internal/config"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/shared"
	"github.com/zeusync/crdt/internal/core/version"
)

const todoScenario = `
name: todo
client: alice
roots:
  items: array
  meta: map
steps:
  - op: push
    target: items
    values: [a, b, c]
  - op: snapshot
    snapshot: s1
  - op: transact
    steps:
      - op: delete
        target: items
        index: 1
        count: 1
      - op: set
        target: meta
        key: title
        value: groceries
  - op: set
    target: meta
    key: nested
    new: array
    values: [1, 2]
  - op: push
    target: meta/nested
    values: [3]
  - op: insert
    target: items
    index: 9
    values: [x]
    expect_error: true
  - op: read_at
    target: items
    snapshot: s1
  - op: read_at
    target: meta
    snapshot: s1
    key: title
`

func newTestRunner() *Runner {
	return NewRunner(config.Default(), log.Nop())
}

func TestRun(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(todoScenario))
	require.NoError(t, err)

	res, err := newTestRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	require.Equal(t, "todo", res.Name)
	require.Equal(t, map[string]any{
		"items": []any{"a", "c"},
		"meta": map[string]any{
			"title":  "groceries",
			"nested": []any{1, 2, 3},
		},
	}, res.State)
	require.Equal(t, version.StateVector{shared.ClientIDFromName("alice"): 8}, res.StateVector)

	require.Equal(t, []any{"a", "b", "c"}, res.Reads["items@s1"])
	require.Contains(t, res.Reads, "meta@s1/title")
	require.Nil(t, res.Reads["meta@s1/title"])

	require.Len(t, res.Failures, 1)
	require.Contains(t, res.Failures[0], shared.ErrIndexOutOfRange.Error())

	require.Contains(t, res.Snapshots, "s1")
	require.NotEmpty(t, res.Snapshots["s1"])

	require.Len(t, res.Events, 5)
	require.Equal(t, EventRecord{Root: "items", Path: []any{}, Delta: []shared.Delta{{Insert: []any{"a", "b", "c"}}}}, res.Events[0])
	require.Equal(t, "items", res.Events[1].Root)
	require.Equal(t, []shared.Delta{{Retain: 1}, {Delete: 1}}, res.Events[1].Delta)
	require.Equal(t, map[string]KeyRecord{"title": {Action: shared.ActionAdd}}, res.Events[2].Keys)
	require.Equal(t, map[string]KeyRecord{"nested": {Action: shared.ActionAdd}}, res.Events[3].Keys)
	require.Equal(t, EventRecord{
		Root:  "meta",
		Path:  []any{"nested"},
		Delta: []shared.Delta{{Retain: 2}, {Insert: []any{3}}},
	}, res.Events[4])

	require.Len(t, res.Chains["items"], 3)
}

func TestRunFailures(t *testing.T) {
	run := func(doc string) error {
		sc, err := LoadScenario(strings.NewReader(doc))
		require.NoError(t, err)
		_, err = newTestRunner().Run(context.Background(), sc)
		return err
	}

	t.Run("unknown op", func(t *testing.T) {
		err := run("roots: {m: map}\nsteps:\n  - op: frobnicate\n    target: m\n")
		require.ErrorIs(t, err, ErrUnknownOp)
	})

	t.Run("unknown target", func(t *testing.T) {
		err := run("roots: {m: map}\nsteps:\n  - op: set\n    target: m/missing\n    key: k\n    value: 1\n")
		require.ErrorIs(t, err, ErrUnknownTarget)
	})

	t.Run("wrong container kind", func(t *testing.T) {
		err := run("roots: {m: map}\nsteps:\n  - op: push\n    target: m\n    values: [1]\n")
		require.ErrorIs(t, err, ErrUnknownTarget)
	})

	t.Run("unknown snapshot", func(t *testing.T) {
		err := run("roots: {a: array}\nsteps:\n  - op: read_at\n    target: a\n    snapshot: nope\n")
		require.ErrorIs(t, err, ErrUnknownSnapshot)
	})

	t.Run("expected failure that succeeds", func(t *testing.T) {
		err := run("roots: {a: array}\nsteps:\n  - op: push\n    target: a\n    values: [1]\n    expect_error: true\n")
		require.ErrorIs(t, err, ErrExpectedFailure)
	})

	t.Run("bad root kind", func(t *testing.T) {
		err := run("roots: {a: set}\nsteps: []\n")
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadScenario(strings.NewReader("name: x\nbogus: 1\n"))
		require.Error(t, err)
	})
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()
	var scenarios []*Scenario
	for _, name := range []string{"one", "two", "three"} {
		path := filepath.Join(dir, name+".yaml")
		body := "roots: {list: array}\nsteps:\n  - op: push\n    target: list\n    values: [" + name + "]\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		sc, err := LoadScenarioFile(path)
		require.NoError(t, err)
		require.Equal(t, path, sc.Name)
		scenarios = append(scenarios, sc)
	}

	results, err := newTestRunner().RunAll(context.Background(), scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, name := range []string{"one", "two", "three"} {
		require.Equal(t, scenarios[i].Name, results[i].Name)
		require.Equal(t, []any{name}, results[i].State["list"])
	}
}
