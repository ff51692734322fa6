// Package game defines the mini-game contract the lesson flow hosts.
package game

import (
	"strings"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
)

type Kind string

const (
	KindSignMatch      Kind = "sign_match"
	KindTrafficLight   Kind = "traffic_light"
	KindStreetCrossing Kind = "street_crossing"
	KindBikeRoute      Kind = "bike_route"
	KindQuickQuiz      Kind = "quick_quiz"
)

// keywords are checked in order; the first category or tag hit wins.
var keywords = []struct {
	kind  Kind
	words []string
}{
	{KindTrafficLight, []string{"traffic_light", "traffic-light", "signal", "lights"}},
	{KindSignMatch, []string{"sign", "signs", "road_sign", "road-sign"}},
	{KindStreetCrossing, []string{"crossing", "pedestrian", "crosswalk", "zebra"}},
	{KindBikeRoute, []string{"bike", "bicycle", "cycling", "scooter"}},
}

// KindFor picks the mini-game for a lesson from its category first, then its tags.
func KindFor(l *learning.Lesson) Kind {
	if l == nil {
		return KindQuickQuiz
	}
	candidates := make([]string, 0, 1+len(l.Tags))
	candidates = append(candidates, l.Category)
	candidates = append(candidates, l.Tags...)
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		for _, kw := range keywords {
			for _, w := range kw.words {
				if c == w {
					return kw.kind
				}
			}
		}
	}
	return KindQuickQuiz
}
