package domain

import "testing"

func classFixture() PipelineClass {
	return PipelineClass{
		ID:         1,
		Key:        "standard",
		Categories: []string{"tech", "game"},
		Evaluators: []string{"default"},
		Writers:    []string{WriterTypeEmail, WriterTypeChat},
	}
}

func TestSourceAllowed_ClassCategoryDominates(t *testing.T) {
	class := classFixture()
	filters := PipelineFilters{AllCategories: true}
	// "humanities" is outside the class allow-list entirely, so nothing
	// inside PipelineFilters can resurrect it (§9 Open Question (i)).
	if class.SourceAllowed(filters, "humanities", "anything") {
		t.Fatal("a category outside the class allow-list must never be allowed")
	}
}

func TestSourceAllowed_AllCategoriesShortCircuits(t *testing.T) {
	class := classFixture()
	filters := PipelineFilters{AllCategories: true}
	if !class.SourceAllowed(filters, "tech", "feed.some_source") {
		t.Fatal("all_categories=true should allow every class-allowed category")
	}
}

func TestSourceAllowed_ExplicitCategoryOrIncludeSrcAreIndependentlyRelaxable(t *testing.T) {
	class := classFixture()
	// Pipeline only wants "tech" explicitly, but also special-cases one
	// "game" source via include_src (§8 scenario 2).
	filters := PipelineFilters{
		AllCategories: false,
		Categories:    []string{"tech"},
		AllSrc:        false,
		IncludeSrc:    []string{"listpage.youxituoluo"},
	}

	if !class.SourceAllowed(filters, "tech", "feed.jiqizhixin") {
		t.Fatal("a tech source should be allowed via the explicit category set")
	}
	if !class.SourceAllowed(filters, "game", "listpage.youxituoluo") {
		t.Fatal("an include_src game source should survive even though game is outside the explicit category set")
	}
	if class.SourceAllowed(filters, "game", "listpage.infzm") {
		t.Fatal("a game source NOT in include_src and outside the explicit category set must be excluded")
	}
}

func TestSourceAllowed_AllSrcTrueDoesNotOverrideExplicitCategories(t *testing.T) {
	class := classFixture()
	filters := PipelineFilters{
		AllCategories: false,
		Categories:    []string{"tech"},
		AllSrc:        true,
		IncludeSrc:    nil,
	}
	if class.SourceAllowed(filters, "game", "listpage.infzm") {
		t.Fatal("all_src without all_categories must not pull in categories outside the explicit set")
	}
}

func TestPipelineWriter_LimitFor(t *testing.T) {
	w := PipelineWriter{LimitPerCategory: map[string]int{"tech": 3, "default": 7}}
	if got := w.LimitFor("tech"); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := w.LimitFor("game"); got != 7 {
		t.Fatalf("got %d, want 7 (falls back to 'default' entry)", got)
	}

	bare := PipelineWriter{}
	if got := bare.LimitFor("tech"); got != DefaultLimitPerCategory {
		t.Fatalf("got %d, want %d", got, DefaultLimitPerCategory)
	}
}
