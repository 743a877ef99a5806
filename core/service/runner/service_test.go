package runner

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"newsroom/core/domain"
	"newsroom/core/port/in"
	"newsroom/core/port/out"
)

func noopLogger() zerolog.Logger { return zerolog.New(io.Discard) }

type fakePipelineRepo struct {
	pipelines map[int64]domain.Pipeline
	classes   map[int64]domain.PipelineClass
	filters   map[int64]domain.PipelineFilters
	writers   map[int64]domain.PipelineWriter
	emails    map[int64]domain.PipelineDeliveryEmail
	chats     map[int64]domain.PipelineDeliveryChat
}

func (r *fakePipelineRepo) GetByID(ctx context.Context, id int64) (*domain.Pipeline, error) {
	p := r.pipelines[id]
	return &p, nil
}
func (r *fakePipelineRepo) GetByName(ctx context.Context, name string) (*domain.Pipeline, error) {
	for _, p := range r.pipelines {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, nil
}
func (r *fakePipelineRepo) List(ctx context.Context) ([]domain.Pipeline, error) {
	var out []domain.Pipeline
	for _, p := range r.pipelines {
		out = append(out, p)
	}
	return out, nil
}
func (r *fakePipelineRepo) GetClass(ctx context.Context, classID int64) (*domain.PipelineClass, error) {
	c := r.classes[classID]
	return &c, nil
}
func (r *fakePipelineRepo) GetFilters(ctx context.Context, pipelineID int64) (*domain.PipelineFilters, error) {
	f := r.filters[pipelineID]
	return &f, nil
}
func (r *fakePipelineRepo) GetWriter(ctx context.Context, pipelineID int64) (*domain.PipelineWriter, error) {
	w := r.writers[pipelineID]
	return &w, nil
}
func (r *fakePipelineRepo) GetDeliveryEmail(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryEmail, error) {
	if e, ok := r.emails[pipelineID]; ok {
		return &e, nil
	}
	return nil, nil
}
func (r *fakePipelineRepo) GetDeliveryChat(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryChat, error) {
	if c, ok := r.chats[pipelineID]; ok {
		return &c, nil
	}
	return nil, nil
}

type fakeSourceRepo struct{ sources []domain.Source }

func (f *fakeSourceRepo) List(ctx context.Context) ([]domain.Source, error) { return f.sources, nil }
func (f *fakeSourceRepo) ListEnabled(ctx context.Context) ([]domain.Source, error) {
	return f.sources, nil
}
func (f *fakeSourceRepo) GetByKey(ctx context.Context, key string) (*domain.Source, error) {
	return nil, nil
}

type fakeSourceRunRepo struct{}

func (fakeSourceRunRepo) GetLastRun(ctx context.Context, sourceID int64) (time.Time, error) {
	return time.Time{}, nil
}
func (fakeSourceRunRepo) MarkRun(ctx context.Context, sourceID int64, at time.Time) error { return nil }

type fakeCollector struct{}

func (fakeCollector) CollectSource(ctx context.Context, sourceKey string) (int, error) { return 0, nil }
func (fakeCollector) CollectDue(ctx context.Context, keys []string, now time.Time) (int, error) {
	return 0, nil
}

type fakeEvaluator struct{ lastReq in.EvaluateRequest }

func (f *fakeEvaluator) Evaluate(ctx context.Context, req in.EvaluateRequest) (int, error) {
	f.lastReq = req
	return 0, nil
}

type fakeComposer struct{}

func (fakeComposer) Compose(ctx context.Context, req in.ComposeRequest) (*in.Digest, error) {
	return &in.Digest{}, nil
}

type fakeDeliverer struct{ called bool }

func (f *fakeDeliverer) Deliver(ctx context.Context, req in.DeliverRequest) error {
	f.called = true
	return nil
}

func newTestRunner(repo *fakePipelineRepo, sources out.SourceRepository, ev *fakeEvaluator, del *fakeDeliverer) *Service {
	return New(repo, sources, fakeSourceRunRepo{}, fakeCollector{}, ev, fakeComposer{}, del, Config{}, noopLogger())
}

func TestRunner_WeekdayGateSkips(t *testing.T) {
	repo := &fakePipelineRepo{
		pipelines: map[int64]domain.Pipeline{
			1: {ID: 1, Name: "p1", Enabled: true, Weekdays: []int{}}, // never runs
		},
	}
	svc := newTestRunner(repo, &fakeSourceRepo{}, &fakeEvaluator{}, &fakeDeliverer{})
	outcomes, err := svc.Run(context.Background(), in.RunRequest{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].State != "Skipped(weekday)" {
		t.Fatalf("expected Skipped(weekday), got %+v", outcomes)
	}
}

func TestRunner_IgnoreWeekdayBypassesGate(t *testing.T) {
	repo := &fakePipelineRepo{
		pipelines: map[int64]domain.Pipeline{
			1: {ID: 1, Name: "p1", Enabled: true, Weekdays: []int{}},
		},
		classes: map[int64]domain.PipelineClass{
			0: {Writers: []string{domain.WriterTypeEmail}, Evaluators: []string{"default"}, Categories: []string{"tech"}},
		},
		filters: map[int64]domain.PipelineFilters{1: {AllCategories: true}},
		writers: map[int64]domain.PipelineWriter{1: {Type: domain.WriterTypeEmail}},
		emails:  map[int64]domain.PipelineDeliveryEmail{1: {Email: "a@b.com"}},
	}
	del := &fakeDeliverer{}
	svc := newTestRunner(repo, &fakeSourceRepo{}, &fakeEvaluator{}, del)
	outcomes, err := svc.Run(context.Background(), in.RunRequest{ID: 1, IgnoreWeekday: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].State != "Done" {
		t.Fatalf("expected Done, got %+v", outcomes)
	}
	if !del.called {
		t.Fatal("expected deliverer to be invoked")
	}
}

func TestRunner_ClassValidationAbortsOnDisallowedWriter(t *testing.T) {
	repo := &fakePipelineRepo{
		pipelines: map[int64]domain.Pipeline{
			1: {ID: 1, Name: "p1", Enabled: true},
		},
		classes: map[int64]domain.PipelineClass{
			0: {Writers: []string{domain.WriterTypeChat}, Evaluators: []string{"default"}, Categories: []string{"tech"}},
		},
		filters: map[int64]domain.PipelineFilters{1: {AllCategories: true}},
		writers: map[int64]domain.PipelineWriter{1: {Type: domain.WriterTypeEmail}}, // not in class's allow-list
	}
	svc := newTestRunner(repo, &fakeSourceRepo{}, &fakeEvaluator{}, &fakeDeliverer{})
	outcomes, err := svc.Run(context.Background(), in.RunRequest{ID: 1, IgnoreWeekday: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].State != "Aborted(class)" {
		t.Fatalf("expected Aborted(class), got %+v", outcomes)
	}
}

func TestRunner_EvaluateRequestLeavesCategoriesNil(t *testing.T) {
	// Regression: ANDing a separate category filter on top of the already
	// source-resolved collect plan would re-exclude include_src sources
	// outside the explicit category set.
	repo := &fakePipelineRepo{
		pipelines: map[int64]domain.Pipeline{
			1: {ID: 1, Name: "p1", Enabled: true},
		},
		classes: map[int64]domain.PipelineClass{
			0: {Writers: []string{domain.WriterTypeEmail}, Evaluators: []string{"default"}, Categories: []string{"tech", "game"}},
		},
		filters: map[int64]domain.PipelineFilters{1: {AllCategories: false, Categories: []string{"tech"}, AllSrc: false, IncludeSrc: []string{"listpage.game_x"}}},
		writers: map[int64]domain.PipelineWriter{1: {Type: domain.WriterTypeEmail}},
		emails:  map[int64]domain.PipelineDeliveryEmail{1: {Email: "a@b.com"}},
	}
	ev := &fakeEvaluator{}
	svc := newTestRunner(repo, &fakeSourceRepo{}, ev, &fakeDeliverer{})
	if _, err := svc.Run(context.Background(), in.RunRequest{ID: 1, IgnoreWeekday: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.lastReq.Categories != nil {
		t.Fatalf("expected Evaluate's Categories to be left nil, got %v", ev.lastReq.Categories)
	}
}

func TestRunner_DebugOnlySkipsNonDebugPipelines(t *testing.T) {
	repo := &fakePipelineRepo{
		pipelines: map[int64]domain.Pipeline{
			1: {ID: 1, Name: "p1", Enabled: true, DebugEnabled: false},
		},
	}
	svc := newTestRunner(repo, &fakeSourceRepo{}, &fakeEvaluator{}, &fakeDeliverer{})
	outcomes, err := svc.Run(context.Background(), in.RunRequest{ID: 1, DebugOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || !strings.HasPrefix(outcomes[0].State, "Skipped") {
		t.Fatalf("expected a Skipped state, got %+v", outcomes)
	}
}

func TestCollectPlan_SourceAllowedFiltering(t *testing.T) {
	repo := &fakeSourceRepo{sources: []domain.Source{
		{Key: "feed.a", CategoryKey: "tech", Enabled: true},
		{Key: "listpage.b", CategoryKey: "humanities", Enabled: true},
	}}
	svc := New(&fakePipelineRepo{}, repo, fakeSourceRunRepo{}, fakeCollector{}, &fakeEvaluator{}, fakeComposer{}, &fakeDeliverer{}, Config{}, noopLogger())

	class := domain.PipelineClass{Categories: []string{"tech"}}
	filters := domain.PipelineFilters{AllCategories: true}
	keys, err := svc.collectPlan(context.Background(), class, filters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "feed.a" {
		t.Fatalf("expected only feed.a (humanities is outside the class allow-list), got %v", keys)
	}
}
