package scoring

import "strings"

// Goal is the persuasive approach a request asks the copy to take.
type Goal string

const (
	GoalNone            Goal = ""
	GoalLowInvolvement  Goal = "low_involvement"
	GoalHighInvolvement Goal = "high_involvement"
	GoalCuriosity       Goal = "curiosity"
)

// Goals lists the selectable goals in display order.
func Goals() []Goal {
	return []Goal{GoalLowInvolvement, GoalHighInvolvement, GoalCuriosity}
}

// ParseGoal maps user input to a Goal. Unknown values resolve to GoalNone with ok=false.
func ParseGoal(value string) (Goal, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	switch key {
	case "", "none":
		return GoalNone, true
	case "low_involvement", "low", "push", "low_involvement_push", "저관여":
		return GoalLowInvolvement, true
	case "high_involvement", "high", "compare", "high_involvement_compare", "고관여":
		return GoalHighInvolvement, true
	case "curiosity", "question", "호기심":
		return GoalCuriosity, true
	default:
		return GoalNone, false
	}
}

var (
	actionVerbs = []string{
		"지금", "바로", "구매", "주문", "신청", "확인", "만나보세요", "시작", "담아",
		"try", "buy", "order", "shop", "get", "grab", "start", "join", "discover",
	}
	comparisonTerms = []string{
		"비교", "대비", "보다", "차이", "스펙", "성능", "검증", "후기", "리뷰",
		"compare", "versus", "vs", "than", "review", "spec",
	}
)

const (
	shortHeadlineRatio  = 0.8
	shortHeadlineBonus  = 3.0
	actionVerbBonus     = 2.0
	comparisonHitBonus  = 1.5
	comparisonBonusCap  = 4.5
	curiosityBonus      = 3.0
	curiosityMarks      = "?？"
)
