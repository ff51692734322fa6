package game

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
)

func TestKindFor(t *testing.T) {
	cases := []struct {
		name   string
		lesson *learning.Lesson
		want   Kind
	}{
		{"nil", nil, KindQuickQuiz},
		{"category", &learning.Lesson{Category: "Signs"}, KindSignMatch},
		{"tag fallback", &learning.Lesson{Category: "basics", Tags: []string{"crosswalk"}}, KindStreetCrossing},
		{"category beats tags", &learning.Lesson{Category: "bicycle", Tags: []string{"signal"}}, KindBikeRoute},
		{"lights", &learning.Lesson{Category: "traffic_light"}, KindTrafficLight},
		{"unknown", &learning.Lesson{Category: "history", Tags: []string{"intro"}}, KindQuickQuiz},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindFor(tc.lesson); got != tc.want {
				t.Fatalf("KindFor: want=%s got=%s", tc.want, got)
			}
		})
	}
}

func TestRelayReportsOnce(t *testing.T) {
	r := NewRelay()
	if err := r.Report(50); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Report before Start: want ErrNotStarted got=%v", err)
	}

	var got []float64
	p := Params{LessonID: uuid.New(), Kind: KindSignMatch}
	if err := r.Start(context.Background(), p, func(s float64) { got = append(got, s) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if params, ok := r.Params(); !ok || params.LessonID != p.LessonID {
		t.Fatalf("Params: %+v ok=%v", params, ok)
	}
	if err := r.Report(92.7); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := r.Report(10); !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("second Report: want ErrAlreadyReported got=%v", err)
	}
	if len(got) != 1 || got[0] != 92.7 {
		t.Fatalf("callback calls: %v", got)
	}
}
