package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

type Repos struct {
	Lesson         repos.LessonRepo
	LessonProgress repos.LessonProgressRepo
	UserEvent      repos.UserEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Lesson:         repos.NewLessonRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),
		UserEvent:      repos.NewUserEventRepo(db, log),
	}
}
