package replay

import (
	"context"
	"encoding/hex"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/zeusync/crdt/internal/config"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/shared"
	"github.com/zeusync/crdt/internal/core/version"
	"github.com/zeusync/crdt/internal/injector"
	"github.com/zeusync/crdt/pkg/concurrent"
	"github.com/zeusync/crdt/pkg/sequence"
)

// EventRecord is the printable form of one event seen by a root's deep
// listener. Path is relative to the root.
type EventRecord struct {
	Root  string               `json:"root"`
	Path  []any                `json:"path"`
	Keys  map[string]KeyRecord `json:"keys,omitempty"`
	Delta []shared.Delta       `json:"delta,omitempty"`
}

type KeyRecord struct {
	Action   shared.Action `json:"action"`
	OldValue any           `json:"old_value,omitempty"`
}

// Result is the outcome of one replayed scenario.
type Result struct {
	Name        string              `json:"name"`
	State       map[string]any      `json:"state"`
	StateVector version.StateVector `json:"state_vector"`
	Snapshots   map[string]string   `json:"snapshots,omitempty"`
	Reads       map[string]any      `json:"reads,omitempty"`
	Failures    []string            `json:"failures,omitempty"`
	Events      []EventRecord       `json:"events,omitempty"`

	// Chains holds the raw item chain of every root.
	Chains map[string][]shared.ItemInfo `json:"-"`
}

// Runner replays scenarios into documents built from a base config.
type Runner struct {
	cfg    *config.Config
	logger log.Log
}

func NewRunner(cfg *config.Config, logger log.Log) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// RunAll replays every scenario in its own document, at most workers at a
// time, and returns the results in input order.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario, workers int) ([]*Result, error) {
	return concurrent.ParallelMap(ctx, sequence.From(scenarios), workers, r.Run)
}

func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	cfg := *r.cfg
	cfg.Roots = make(map[string]string, len(r.cfg.Roots)+len(sc.Roots))
	maps.Copy(cfg.Roots, r.cfg.Roots)
	maps.Copy(cfg.Roots, sc.Roots)
	if sc.Client != "" {
		cfg.ClientName = sc.Client
		cfg.ClientID = 0
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}

	logger := r.logger.With(log.String("scenario", sc.Name))
	doc, err := injector.ProvideDoc(&cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}

	s := newSession(doc)
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := s.run(step)
		if step.ExpectError {
			if err == nil {
				return nil, fmt.Errorf("%s: step %d (%s): %w", sc.Name, i, step.Op, ErrExpectedFailure)
			}
			s.result.Failures = append(s.result.Failures, fmt.Sprintf("step %d (%s): %v", i, step.Op, err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: step %d (%s): %w", sc.Name, i, step.Op, err)
		}
	}

	res := s.result
	res.Name = sc.Name
	res.State = exportValue(doc.JSON()).(map[string]any)
	res.StateVector = doc.StateVector()
	for name, t := range s.roots {
		res.Chains[name] = chainOf(t)
	}

	logger.Info("scenario replayed",
		log.Int("steps", len(sc.Steps)),
		log.Int("events", len(res.Events)),
		log.Int("expected_failures", len(res.Failures)))
	return res, nil
}

type session struct {
	doc       *shared.Doc
	roots     map[string]shared.Type
	snapshots map[string]*version.Snapshot
	result    *Result
}

// newSession captures the roots up front: transaction functions must not
// call back into locking Doc methods.
func newSession(doc *shared.Doc) *session {
	s := &session{
		doc:       doc,
		roots:     make(map[string]shared.Type),
		snapshots: make(map[string]*version.Snapshot),
		result: &Result{
			Snapshots: make(map[string]string),
			Reads:     make(map[string]any),
			Chains:    make(map[string][]shared.ItemInfo),
		},
	}
	for _, name := range doc.Roots() {
		t, _ := doc.Get(name)
		s.roots[name] = t
		t.ObserveDeep(func(events []*shared.Event) {
			for _, ev := range events {
				s.result.Events = append(s.result.Events, record(name, ev))
			}
		})
	}
	return s
}

func (s *session) run(step Step) error {
	switch step.Op {
	case OpSnapshot:
		if step.Snapshot == "" {
			return fmt.Errorf("%w: snapshot needs a name", ErrUnknownSnapshot)
		}
		snap := s.doc.Snapshot()
		data, err := snap.Serialize()
		if err != nil {
			return err
		}
		s.snapshots[step.Snapshot] = snap
		s.result.Snapshots[step.Snapshot] = hex.EncodeToString(data)
		return nil
	case OpReadAt:
		return s.readAt(step)
	case OpTransact:
		return s.doc.Transact(func(tx *shared.Transaction) error {
			for _, nested := range step.Steps {
				if err := s.apply(tx, nested); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return s.doc.Transact(func(tx *shared.Transaction) error {
			return s.apply(tx, step)
		})
	}
}

func (s *session) readAt(step Step) error {
	snap, ok := s.snapshots[step.Snapshot]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSnapshot, step.Snapshot)
	}
	t, err := s.resolve(step.Target)
	if err != nil {
		return err
	}

	label := step.Target + "@" + step.Snapshot
	switch c := t.(type) {
	case *shared.Array:
		s.result.Reads[label] = exportValue(c.ToSliceAt(snap))
	case *shared.Map:
		if step.Key == "" {
			s.result.Reads[label] = exportValue(c.ToMapAt(snap))
			break
		}
		v, _ := c.GetAt(step.Key, snap)
		s.result.Reads[label+"/"+step.Key] = exportValue(v)
	}
	return nil
}

func (s *session) apply(tx *shared.Transaction, step Step) error {
	t, err := s.resolve(step.Target)
	if err != nil {
		return err
	}

	switch step.Op {
	case OpInsert, OpPush, OpDelete:
		arr, ok := t.(*shared.Array)
		if !ok {
			return fmt.Errorf("%w: %q is not an array", ErrUnknownTarget, step.Target)
		}
		if step.Op == OpDelete {
			return arr.Delete(tx, step.Index, step.Count)
		}
		values, err := step.values()
		if err != nil {
			return err
		}
		if step.Op == OpPush {
			return arr.Push(tx, values...)
		}
		return arr.Insert(tx, step.Index, values...)

	case OpSet, OpDeleteKey, OpClear:
		m, ok := t.(*shared.Map)
		if !ok {
			return fmt.Errorf("%w: %q is not a map", ErrUnknownTarget, step.Target)
		}
		switch step.Op {
		case OpDeleteKey:
			return m.Delete(tx, step.Key)
		case OpClear:
			return m.Clear(tx)
		}
		value, err := step.value()
		if err != nil {
			return err
		}
		return m.Set(tx, step.Key, value)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
}

// resolve walks a target path from its root through nested containers.
func (s *session) resolve(target string) (shared.Type, error) {
	parts := strings.Split(target, "/")
	t, ok := s.roots[parts[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	for _, seg := range parts[1:] {
		var v any
		switch c := t.(type) {
		case *shared.Map:
			v, _ = c.Get(seg)
		case *shared.Array:
			if i, err := strconv.Atoi(seg); err == nil {
				v, _ = c.Get(i)
			}
		}
		next, ok := v.(shared.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
		}
		t = next
	}
	return t, nil
}

func (st Step) values() ([]any, error) {
	if st.New == "" {
		return st.Values, nil
	}
	c, err := st.container()
	if err != nil {
		return nil, err
	}
	return []any{c}, nil
}

func (st Step) value() (any, error) {
	if st.New == "" {
		return st.Value, nil
	}
	return st.container()
}

// container builds the detached container a step embeds.
func (st Step) container() (shared.Type, error) {
	switch st.New {
	case config.RootArray:
		a := shared.NewArray()
		if err := a.Push(nil, st.Values...); err != nil {
			return nil, err
		}
		return a, nil
	case config.RootMap:
		m := shared.NewMap()
		fields, _ := st.Value.(map[string]any)
		for k, v := range fields {
			if err := m.Set(nil, k, v); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: new %q", ErrUnknownOp, st.New)
	}
}

func record(root string, ev *shared.Event) EventRecord {
	rec := EventRecord{Root: root, Path: ev.Path()}
	if len(ev.Keys) > 0 {
		rec.Keys = make(map[string]KeyRecord, len(ev.Keys))
		for k, change := range ev.Keys {
			rec.Keys[k] = KeyRecord{Action: change.Action, OldValue: exportValue(change.OldValue)}
		}
	}
	for _, d := range ev.Delta {
		if d.Insert != nil {
			d.Insert = exportValue(d.Insert).([]any)
		}
		rec.Delta = append(rec.Delta, d)
	}
	return rec
}

// exportValue replaces shared types with their JSON rendering, recursively.
func exportValue(v any) any {
	switch val := v.(type) {
	case shared.Type:
		return val.JSON()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = exportValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = exportValue(e)
		}
		return out
	default:
		return v
	}
}

func chainOf(t shared.Type) []shared.ItemInfo {
	switch c := t.(type) {
	case *shared.Array:
		return c.Chain()
	case *shared.Map:
		return c.Chain()
	default:
		return nil
	}
}
