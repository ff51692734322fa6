package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	"github.com/yungbote/learn2go-backend/internal/data/repos/testutil"
	"github.com/yungbote/learn2go-backend/internal/learning/game"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	lessons, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(lessons) < 4 {
		t.Fatalf("expected a starter catalog, got %d lessons", len(lessons))
	}
	kinds := map[game.Kind]bool{}
	for _, l := range lessons {
		kinds[game.KindFor(l)] = true
	}
	for _, k := range []game.Kind{game.KindSignMatch, game.KindTrafficLight, game.KindStreetCrossing, game.KindBikeRoute} {
		if !kinds[k] {
			t.Fatalf("no starter lesson plays %s", k)
		}
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "lessons:\n  - slug: a\n    locale: en\n    title: A\n    colour: red\n",
		"no questions":  "lessons:\n  - slug: a\n    locale: en\n    title: A\n",
		"bad index": `lessons:
  - slug: a
    locale: en
    title: A
    questions:
      - prompt: p
        options: [x, y]
        correct_index: 2
`,
		"duplicate": `lessons:
  - {slug: a, locale: en, title: A, questions: [{prompt: p, options: [x, y], correct_index: 0}]}
  - {slug: a, locale: en, title: B, questions: [{prompt: p, options: [x, y], correct_index: 0}]}
`,
		"missing title": "lessons:\n  - slug: a\n    locale: en\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestEnsureCatalogSeedsOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewLessonRepo(db, log)

	n, err := EnsureCatalog(ctx, repo, log)
	if err != nil {
		t.Fatalf("EnsureCatalog: %v", err)
	}
	want, _ := Default()
	if n != len(want) {
		t.Fatalf("seeded: want=%d got=%d", len(want), n)
	}
	again, err := EnsureCatalog(ctx, repo, log)
	if err != nil || again != 0 {
		t.Fatalf("second EnsureCatalog: n=%d err=%v", again, err)
	}

	en, err := repo.ListCatalog(ctx, nil, repos.CatalogFilter{Locale: "en", IncludeQuestions: true})
	if err != nil {
		t.Fatalf("ListCatalog: %v", err)
	}
	if len(en) == 0 || !strings.Contains(strings.ToLower(en[0].Title), "sign") || len(en[0].Questions) != 3 {
		t.Fatalf("first english lesson: %+v", en[0])
	}
}
