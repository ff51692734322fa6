// Package seed loads the starter lesson catalog on first boot.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	types "github.com/yungbote/learn2go-backend/internal/domain"
	domainlearning "github.com/yungbote/learn2go-backend/internal/domain/learning"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type questionDoc struct {
	Prompt       string   `yaml:"prompt"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
	Explanation  string   `yaml:"explanation"`
}

type lessonDoc struct {
	Slug        string        `yaml:"slug"`
	Locale      string        `yaml:"locale"`
	Region      string        `yaml:"region"`
	Position    int           `yaml:"position"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Body        string        `yaml:"body"`
	Category    string        `yaml:"category"`
	Tags        []string      `yaml:"tags"`
	Difficulty  int           `yaml:"difficulty"`
	Draft       bool          `yaml:"draft"`
	Questions   []questionDoc `yaml:"questions"`
}

type catalogDoc struct {
	Lessons []lessonDoc `yaml:"lessons"`
}

// Parse decodes a YAML catalog and validates every lesson and question.
func Parse(raw []byte) ([]*types.Lesson, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]*types.Lesson, 0, len(doc.Lessons))
	seen := make(map[string]bool, len(doc.Lessons))
	for i, ld := range doc.Lessons {
		if ld.Slug == "" || ld.Locale == "" || ld.Title == "" {
			return nil, fmt.Errorf("lesson %d: slug, locale and title are required", i)
		}
		key := ld.Slug + "|" + ld.Locale + "|" + ld.Region
		if seen[key] {
			return nil, fmt.Errorf("lesson %d: duplicate slug %q for %s/%s", i, ld.Slug, ld.Locale, ld.Region)
		}
		seen[key] = true
		if len(ld.Questions) == 0 {
			return nil, fmt.Errorf("lesson %q: no quiz questions", ld.Slug)
		}
		difficulty := ld.Difficulty
		if difficulty <= 0 {
			difficulty = 1
		}
		l := &types.Lesson{
			Slug:        ld.Slug,
			Locale:      ld.Locale,
			Region:      ld.Region,
			Position:    ld.Position,
			Title:       ld.Title,
			Description: ld.Description,
			Body:        strings.TrimSpace(ld.Body),
			Category:    ld.Category,
			Tags:        ld.Tags,
			Difficulty:  difficulty,
			Published:   !ld.Draft,
		}
		for j, qd := range ld.Questions {
			q := types.QuizQuestion{
				Index:        j,
				Prompt:       qd.Prompt,
				Options:      qd.Options,
				CorrectIndex: qd.CorrectIndex,
				Explanation:  qd.Explanation,
			}
			if !q.Valid() {
				return nil, fmt.Errorf("lesson %q question %d: %w", ld.Slug, j, domainlearning.ErrInvalidQuestion)
			}
			l.Questions = append(l.Questions, q)
		}
		out = append(out, l)
	}
	return out, nil
}

func Default() ([]*types.Lesson, error) { return Parse(defaultCatalog) }

// EnsureCatalog inserts the starter catalog when the lesson table is empty. It returns how many
// lessons it created.
func EnsureCatalog(ctx context.Context, lessons repos.LessonRepo, log *logger.Logger) (int, error) {
	n, err := lessons.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	if n > 0 {
		log.Debug("catalog already present; skipping seed", "lessons", n)
		return 0, nil
	}
	rows, err := Default()
	if err != nil {
		return 0, err
	}
	if _, err := lessons.Create(ctx, nil, rows); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("seeded lesson catalog", "lessons", len(rows))
	return len(rows), nil
}
