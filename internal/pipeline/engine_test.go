package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/pipeline"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/internal/store"
	"github.com/parlorgames/byline/pkg/invoke"
)

// scriptBackend routes scripted responses by the request's schema name; the
// advisory stage carries no schema and routes under "". Responses dequeue
// until one remains, which then repeats.
type scriptBackend struct {
	mu        sync.Mutex
	responses map[string][]string
	calls     map[string]int
}

func newScriptBackend() *scriptBackend {
	return &scriptBackend{
		responses: make(map[string][]string),
		calls:     make(map[string]int),
	}
}

func (b *scriptBackend) script(schema string, responses ...string) {
	b.responses[schema] = responses
}

func (b *scriptBackend) callCount(schema string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[schema]
}

func (b *scriptBackend) Name() string { return "script" }

func (b *scriptBackend) Invoke(ctx context.Context, req invoke.Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[req.Schema]++
	queue := b.responses[req.Schema]
	if len(queue) == 0 {
		return "", fmt.Errorf("%w: no scripted response for schema %q", invoke.ErrInvocationFailed, req.Schema)
	}
	resp := queue[0]
	if len(queue) > 1 {
		b.responses[req.Schema] = queue[1:]
	}
	return resp, nil
}

func (b *scriptBackend) Probe(ctx context.Context) error { return nil }

// staticPrompts serves the hardcoded stage defaults without a database.
type staticPrompts struct{ prompts.System }

func (staticPrompts) Instructions(ctx context.Context, stage prompts.Stage) (string, error) {
	return prompts.Instructions(stage)
}

func (staticPrompts) Spec(ctx context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

type fakeSource struct {
	bundle *evidence.Bundle
	err    error
}

func (f *fakeSource) Fetch(ctx context.Context, theme string) (*evidence.Bundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

type fakeRender struct {
	html string
	err  error
}

func (f *fakeRender) Render(ctx context.Context, doc state.ContentDocument) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

type fakeRecorder struct {
	records  int
	lastDoc  state.ContentDocument
	lastHTML string
	err      error
}

func (f *fakeRecorder) Record(ctx context.Context, sessionID uuid.UUID, doc state.ContentDocument, rendered string) error {
	if f.err != nil {
		return f.err
	}
	f.records++
	f.lastDoc = doc
	f.lastHTML = rendered
	return nil
}

func newTestRuntime(t *testing.T, script *scriptBackend, src evidence.Source, rnd *fakeRender, rec *fakeRecorder) *pipeline.Runtime {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	invokeCfg := &invoke.Config{Mode: invoke.ModeCLI, Command: "model"}
	if err := invokeCfg.Finalize(nil); err != nil {
		t.Fatalf("finalize invoke config: %v", err)
	}

	validator, err := schemas.New()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}

	cfg := &pipeline.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize pipeline config: %v", err)
	}

	return &pipeline.Runtime{
		Invoker:   invoke.NewWithBackend(script, invokeCfg, logger),
		Validator: validator,
		Prompts:   staticPrompts{},
		Source:    src,
		Render:    rnd,
		Store:     store.NewMemory(),
		Artifacts: rec,
		Logger:    logger,
		Config:    cfg,
	}
}

func sampleBundle() *evidence.Bundle {
	return &evidence.Bundle{
		Roster: evidence.Roster{
			Host: "Marguerite",
			Players: []evidence.Player{
				{Name: "Ada", Character: "Lady Blackwood"},
				{Name: "Felix", Character: "Dr. Hargreave"},
			},
		},
		Items: []evidence.Item{
			{
				ID:        "ev-001",
				Kind:      "letter",
				Title:     "The Inheritance Letter",
				Narrative: "A letter contesting the Blackwood estate.",
				Layer:     evidence.LayerExposed,
			},
			{
				ID:        "ev-002",
				Kind:      "ledger",
				Title:     "The Night Ledger",
				Narrative: "The ledger shows a withdrawal of four hundred pounds signed in a hurried hand late that evening.",
				Layer:     evidence.LayerBuried,
			},
			{
				ID:        "ev-003",
				Kind:      "note",
				Title:     "Emphasis Note",
				Narrative: "Keep attention on the conservatory.",
				Layer:     evidence.LayerDirector,
			},
		},
	}
}

const (
	parsedInputDoc = `{
		"title": "The Blackwood Affair",
		"setting": "Blackwood Manor, 1894",
		"summary": "An inheritance dispute turns deadly during a storm.",
		"players": ["Ada", "Felix"],
		"key_events": ["The will is read", "The lights fail"]
	}`

	annotationBatchDoc = `{
		"annotations": [
			{"evidence_id": "ev-001", "summary": "Establishes the inheritance dispute.", "relevance": "central", "mentions": ["Ada"]},
			{"evidence_id": "ev-002", "summary": "Shows money moved the night of the storm.", "relevance": "central", "mentions": ["Felix"]},
			{"evidence_id": "ev-003", "summary": "Production emphasis on the conservatory.", "relevance": "background", "mentions": []}
		]
	}`

	arcAnalysisDoc = `{
		"arcs": [
			{
				"title": "The Contested Will",
				"players": ["Ada", "Felix"],
				"summary": "The estate fight that shaped the evening.",
				"evidence_refs": ["ev-001", "ev-002"],
				"beats": ["The reading", "The quarrel"]
			}
		],
		"lead": "The Contested Will"
	}`

	badLeadArcDoc = `{
		"arcs": [
			{
				"title": "The Contested Will",
				"players": ["Ada", "Felix"],
				"summary": "The estate fight that shaped the evening.",
				"evidence_refs": ["ev-001"],
				"beats": ["The reading"]
			}
		],
		"lead": "The Missing Arc"
	}`

	outlineDoc = `{
		"headline": "The Blackwood Affair",
		"angle": "Follow the money.",
		"sections": [
			{"id": "opening", "heading": "A Storm Over Blackwood", "purpose": "Set the scene.", "arc_refs": ["The Contested Will"], "evidence_refs": ["ev-001"]},
			{"id": "the-money", "heading": "Follow the Money", "purpose": "Trace the withdrawal.", "arc_refs": ["The Contested Will"], "evidence_refs": ["ev-002"]}
		]
	}`

	articleDoc = `{
		"headline": "The Blackwood Affair",
		"byline": "The Gazette Desk",
		"lede": "When the lights failed at Blackwood Manor, a fortune changed hands.",
		"sections": [
			{"section_id": "opening", "heading": "A Storm Over Blackwood", "body": "The storm broke just as the will was read."},
			{"section_id": "the-money", "heading": "Follow the Money", "body": "Money left the estate accounts that night, and nobody at the table would say whose hand signed for it."}
		]
	}`

	advisorySatisfied = `{"satisfied": true, "concerns": []}`
)

// scriptHappyPath loads one valid response for every model stage.
func scriptHappyPath(script *scriptBackend) {
	script.script(string(schemas.ParsedInput), parsedInputDoc)
	script.script(string(schemas.AnnotationBatch), annotationBatchDoc)
	script.script(string(schemas.ArcAnalysis), arcAnalysisDoc)
	script.script(string(schemas.Outline), outlineDoc)
	script.script(string(schemas.Article), articleDoc)
	script.script("", advisorySatisfied)
}

// driveToCompletion alternates engine runs with approvals until the session
// stops pending anything.
func driveToCompletion(t *testing.T, rt *pipeline.Runtime, id uuid.UUID, s state.State) state.State {
	t.Helper()

	for range 20 {
		var err error
		s, err = pipeline.Run(context.Background(), rt, id, s)
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		checkpoint, ok := s.PendingApproval()
		if !ok {
			return s
		}

		upd, err := pipeline.Approve(s, state.Approval{Type: checkpoint, ApprovedBy: "edna"})
		if err != nil {
			t.Fatalf("approve %s: %v", checkpoint, err)
		}
		s = state.Apply(s, upd)
	}

	t.Fatal("session never settled")
	return s
}

func TestRunSuspendsAtFirstCheckpoint(t *testing.T) {
	script := newScriptBackend()
	scriptHappyPath(script)
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})

	s := state.Default()
	s.Theme = "blackwood"
	s.RawInput = "Rain hammered the manor while the will was read."

	id := uuid.New()
	out, err := pipeline.Run(context.Background(), rt, id, s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !out.AwaitingApproval {
		t.Fatal("expected the session to suspend")
	}
	if out.Approval != state.ApprovalInputReview {
		t.Errorf("pending approval = %s, want %s", out.Approval, state.ApprovalInputReview)
	}
	if out.Phase != state.PhaseAcquireData {
		t.Errorf("phase = %s, want %s", out.Phase, state.PhaseAcquireData)
	}
	if out.ParsedInput == nil || out.ParsedInput.Title != "The Blackwood Affair" {
		t.Errorf("parsed input = %+v, want title The Blackwood Affair", out.ParsedInput)
	}

	persisted, err := rt.Store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load persisted state: %v", err)
	}
	if persisted.Phase != out.Phase || !persisted.AwaitingApproval {
		t.Errorf("persisted state out of step: phase %s awaiting %t", persisted.Phase, persisted.AwaitingApproval)
	}
	if persisted.CreatedAt.IsZero() || persisted.UpdatedAt.IsZero() {
		t.Error("expected persistence timestamps to be set")
	}
}

func TestRunFullSession(t *testing.T) {
	script := newScriptBackend()
	scriptHappyPath(script)
	render := &fakeRender{html: "<article>The Blackwood Affair</article>"}
	recorder := &fakeRecorder{}
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, render, recorder)

	s := state.Default()
	s.Theme = "blackwood"
	s.RawInput = "Rain hammered the manor while the will was read."

	out := driveToCompletion(t, rt, uuid.New(), s)

	if out.Phase != state.PhaseComplete {
		t.Fatalf("phase = %s, want %s", out.Phase, state.PhaseComplete)
	}
	if out.FinalDocument != render.html {
		t.Errorf("final document = %q, want the rendered output", out.FinalDocument)
	}
	if len(out.Errors) != 0 {
		t.Errorf("errors = %+v, want none", out.Errors)
	}

	wantHistory := state.ApprovalTypes()
	if len(out.History) != len(wantHistory) {
		t.Fatalf("history length = %d, want %d", len(out.History), len(wantHistory))
	}
	for i, entry := range out.History {
		if entry.Checkpoint != wantHistory[i] {
			t.Errorf("history[%d] = %s, want %s", i, entry.Checkpoint, wantHistory[i])
		}
		if entry.At.IsZero() {
			t.Errorf("history[%d] has no timestamp", i)
		}
	}

	if len(out.Annotations) != 3 {
		t.Errorf("annotations = %d, want 3", len(out.Annotations))
	}
	if len(out.PhotoAnalyses) != 0 {
		t.Errorf("photo analyses = %d, want none without attachments", len(out.PhotoAnalyses))
	}
	if out.ContentDoc == nil {
		t.Fatal("expected an assembled content document")
	}
	if got := len(out.ContentDoc.Sidebar); got != 3 {
		t.Errorf("sidebar widgets = %d, want roster, evidence, and timeline", got)
	}

	for _, stage := range []string{"arcs", "arcs_advisory", "outline", "outline_advisory", "article", "article_advisory", "content", "render"} {
		found := false
		for _, vr := range out.ValidationResults {
			if vr.Stage == stage && vr.Valid {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no passing validation result for stage %s", stage)
		}
	}

	if recorder.records != 1 {
		t.Errorf("artifact records = %d, want 1", recorder.records)
	}
	if recorder.lastHTML != render.html {
		t.Errorf("recorded html = %q, want the rendered output", recorder.lastHTML)
	}
	if recorder.lastDoc.Headline != "The Blackwood Affair" {
		t.Errorf("recorded headline = %q", recorder.lastDoc.Headline)
	}
}

// arcStage returns a state positioned at arc analysis with everything the
// writing stages need already approved.
func arcStage(bundle *evidence.Bundle) state.State {
	s := state.Default()
	s.Theme = "blackwood"
	s.RawInput = "Rain hammered the manor."
	s.Phase = state.PhaseAnalyzeArcs
	s.ParsedInput = &state.ParsedInput{
		Title:     "The Blackwood Affair",
		Setting:   "Blackwood Manor, 1894",
		Summary:   "An inheritance dispute turns deadly.",
		Players:   []string{"Ada", "Felix"},
		KeyEvents: []string{"The will is read"},
	}
	s.Roster = &bundle.Roster
	s.Evidence = bundle.Items
	s.Annotations = map[string]state.Annotation{
		"ev-001": {EvidenceID: "ev-001", Summary: "Establishes the dispute.", Relevance: "central", Mentions: []string{"Ada"}},
		"ev-002": {EvidenceID: "ev-002", Summary: "Money moved that night.", Relevance: "central", Mentions: []string{"Felix"}},
		"ev-003": {EvidenceID: "ev-003", Summary: "Emphasis note.", Relevance: "background", Mentions: []string{}},
	}
	return s
}

func TestRevisionLoopRecovers(t *testing.T) {
	script := newScriptBackend()
	script.script(string(schemas.ArcAnalysis), badLeadArcDoc, arcAnalysisDoc)
	script.script("", advisorySatisfied)
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})

	out, err := pipeline.Run(context.Background(), rt, uuid.New(), arcStage(sampleBundle()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Approval != state.ApprovalArcReview || !out.AwaitingApproval {
		t.Fatalf("expected suspension at %s, got phase %s awaiting %t", state.ApprovalArcReview, out.Phase, out.AwaitingApproval)
	}
	if out.ArcRevisions != 1 {
		t.Errorf("arc revisions = %d, want 1", out.ArcRevisions)
	}
	if got := script.callCount(string(schemas.ArcAnalysis)); got != 2 {
		t.Errorf("arc generations = %d, want 2", got)
	}

	if len(out.ValidationResults) != 3 {
		t.Fatalf("validation results = %d, want failed arcs, passing arcs, passing advisory", len(out.ValidationResults))
	}
	first := out.ValidationResults[0]
	if first.Stage != "arcs" || first.Valid {
		t.Errorf("first result = %+v, want a failed arcs entry", first)
	}
	if len(first.Errors) == 0 || !strings.Contains(first.Errors[0], "lead arc") {
		t.Errorf("first failure = %v, want a lead arc complaint", first.Errors)
	}
}

func TestRevisionCapTerminates(t *testing.T) {
	script := newScriptBackend()
	script.script(string(schemas.ArcAnalysis), badLeadArcDoc)
	script.script("", advisorySatisfied)
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})

	id := uuid.New()
	out, err := pipeline.Run(context.Background(), rt, id, arcStage(sampleBundle()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Phase != state.PhaseError {
		t.Fatalf("phase = %s, want %s", out.Phase, state.PhaseError)
	}
	if out.ArcRevisions != pipeline.ArcRevisionCap {
		t.Errorf("arc revisions = %d, want the cap %d", out.ArcRevisions, pipeline.ArcRevisionCap)
	}
	if got := script.callCount(string(schemas.ArcAnalysis)); got != pipeline.ArcRevisionCap+1 {
		t.Errorf("arc generations = %d, want draft plus %d revisions", got, pipeline.ArcRevisionCap)
	}
	if got := script.callCount(""); got != 0 {
		t.Errorf("advisory calls = %d, want none after structural failures", got)
	}

	if len(out.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", out.Errors)
	}
	entry := out.Errors[0]
	if entry.Kind != state.ErrorKindRevisionCap {
		t.Errorf("error kind = %s, want %s", entry.Kind, state.ErrorKindRevisionCap)
	}
	if entry.Phase != state.PhaseReviseArcs {
		t.Errorf("error phase = %s, want %s", entry.Phase, state.PhaseReviseArcs)
	}

	persisted, err := rt.Store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load persisted state: %v", err)
	}
	if persisted.Phase != state.PhaseError {
		t.Errorf("persisted phase = %s, want %s", persisted.Phase, state.PhaseError)
	}
}

func TestStepLimitTerminates(t *testing.T) {
	script := newScriptBackend()
	script.script(string(schemas.ArcAnalysis), badLeadArcDoc)
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})
	rt.Config.MaxSteps = 2

	out, err := pipeline.Run(context.Background(), rt, uuid.New(), arcStage(sampleBundle()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Phase != state.PhaseError {
		t.Fatalf("phase = %s, want %s", out.Phase, state.PhaseError)
	}
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0].Message, "step limit") {
		t.Errorf("errors = %+v, want a step limit entry", out.Errors)
	}
}

func TestNodeFailureRecordsError(t *testing.T) {
	script := newScriptBackend()
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})

	s := state.Default()
	s.Theme = "blackwood"
	// RawInput deliberately empty.

	out, err := pipeline.Run(context.Background(), rt, uuid.New(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Phase != state.PhaseError {
		t.Fatalf("phase = %s, want %s", out.Phase, state.PhaseError)
	}
	if len(out.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", out.Errors)
	}
	entry := out.Errors[0]
	if entry.Kind != state.ErrorKindNodeFailure {
		t.Errorf("error kind = %s, want %s", entry.Kind, state.ErrorKindNodeFailure)
	}
	if entry.Phase != state.PhaseParseInput {
		t.Errorf("error phase = %s, want %s", entry.Phase, state.PhaseParseInput)
	}
	if !strings.Contains(entry.Message, "session input missing") {
		t.Errorf("error message = %q", entry.Message)
	}
}

func TestErrorListAppends(t *testing.T) {
	script := newScriptBackend()
	script.script(string(schemas.ArcAnalysis), badLeadArcDoc)
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})

	out, err := pipeline.Run(context.Background(), rt, uuid.New(), arcStage(sampleBundle()))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(out.Errors) != 1 {
		t.Fatalf("errors after first failure = %d, want 1", len(out.Errors))
	}

	// Re-enter the graph the way a rollback would and fail again.
	out.Phase = state.PhaseAnalyzeArcs
	out.ArcRevisions = 0
	out, err = pipeline.Run(context.Background(), rt, uuid.New(), out)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(out.Errors) != 2 {
		t.Fatalf("errors after second failure = %d, want the list to append", len(out.Errors))
	}
}

func TestUnknownPhase(t *testing.T) {
	script := newScriptBackend()
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{html: "<article/>"}, &fakeRecorder{})

	s := state.Default()
	s.Phase = state.Phase("intermission")

	out, err := pipeline.Run(context.Background(), rt, uuid.New(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Phase != state.PhaseError {
		t.Fatalf("phase = %s, want %s", out.Phase, state.PhaseError)
	}
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0].Message, "no node registered") {
		t.Errorf("errors = %+v, want an unknown phase entry", out.Errors)
	}
}

func TestApprove(t *testing.T) {
	s := state.Default()
	s.Phase = state.PhaseDraftOutline
	s.AwaitingApproval = true
	s.Approval = state.ApprovalArcReview

	t.Run("mismatch rejected", func(t *testing.T) {
		_, err := pipeline.Approve(s, state.Approval{Type: state.ApprovalOutlineReview, ApprovedBy: "edna"})
		if !errors.Is(err, pipeline.ErrApprovalMismatch) {
			t.Fatalf("err = %v, want ErrApprovalMismatch", err)
		}
	})

	t.Run("matching approval advances once", func(t *testing.T) {
		upd, err := pipeline.Approve(s, state.Approval{Type: state.ApprovalArcReview, ApprovedBy: "edna", Note: "solid arcs"})
		if err != nil {
			t.Fatalf("approve: %v", err)
		}

		next := state.Apply(s, upd)
		if next.AwaitingApproval {
			t.Error("expected the pending flag to clear")
		}
		granted, ok := next.Approvals[state.ApprovalArcReview]
		if !ok {
			t.Fatal("approval payload was not recorded")
		}
		if granted.ApprovedBy != "edna" || granted.Note != "solid arcs" {
			t.Errorf("recorded approval = %+v", granted)
		}
		if granted.At.IsZero() {
			t.Error("approval timestamp was not defaulted")
		}
		if len(next.History) != 1 || next.History[0].Checkpoint != state.ApprovalArcReview {
			t.Errorf("history = %+v, want the arc checkpoint", next.History)
		}

		if _, err := pipeline.Approve(next, state.Approval{Type: state.ApprovalArcReview, ApprovedBy: "edna"}); !errors.Is(err, pipeline.ErrNoPending) {
			t.Fatalf("second approve err = %v, want ErrNoPending", err)
		}
	})

	t.Run("nothing pending", func(t *testing.T) {
		idle := state.Default()
		_, err := pipeline.Approve(idle, state.Approval{Type: state.ApprovalInputReview, ApprovedBy: "edna"})
		if !errors.Is(err, pipeline.ErrNoPending) {
			t.Fatalf("err = %v, want ErrNoPending", err)
		}
	})
}

func TestRenderFailureFailsSession(t *testing.T) {
	script := newScriptBackend()
	scriptHappyPath(script)
	rt := newTestRuntime(t, script, &fakeSource{bundle: sampleBundle()}, &fakeRender{err: errors.New("renderer offline")}, &fakeRecorder{})

	s := state.Default()
	s.Theme = "blackwood"
	s.RawInput = "Rain hammered the manor."

	id := uuid.New()
	for range 20 {
		var err error
		s, err = pipeline.Run(context.Background(), rt, id, s)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if s.Phase == state.PhaseError {
			break
		}

		checkpoint, ok := s.PendingApproval()
		if !ok {
			t.Fatalf("session settled at %s without erroring", s.Phase)
		}
		upd, err := pipeline.Approve(s, state.Approval{Type: checkpoint, ApprovedBy: "edna"})
		if err != nil {
			t.Fatalf("approve %s: %v", checkpoint, err)
		}
		s = state.Apply(s, upd)
	}

	if s.Phase != state.PhaseError {
		t.Fatalf("phase = %s, want %s", s.Phase, state.PhaseError)
	}
	if len(s.Errors) != 1 || s.Errors[0].Phase != state.PhaseRender {
		t.Fatalf("errors = %+v, want one render failure", s.Errors)
	}
	if s.ContentDoc == nil {
		t.Error("content document should survive a render failure")
	}
}
