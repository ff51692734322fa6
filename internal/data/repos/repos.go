package repos

import (
	"github.com/yungbote/learn2go-backend/internal/data/repos/learning"
)

type LessonRepo = learning.LessonRepo
type LessonProgressRepo = learning.LessonProgressRepo
type UserEventRepo = learning.UserEventRepo

type CatalogFilter = learning.CatalogFilter

var (
	NewLessonRepo         = learning.NewLessonRepo
	NewLessonProgressRepo = learning.NewLessonProgressRepo
	NewUserEventRepo      = learning.NewUserEventRepo
)
