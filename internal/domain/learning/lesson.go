package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson is one unit of the catalog. A lesson row is specific to a locale; Region is empty for
// lessons shown in every region.
type Lesson struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Slug     string `gorm:"column:slug;not null;uniqueIndex:idx_lesson_slug_locale_region,priority:1" json:"slug"`
	Locale   string `gorm:"column:locale;not null;index:idx_lesson_catalog,priority:1;uniqueIndex:idx_lesson_slug_locale_region,priority:2" json:"locale"`
	Region   string `gorm:"column:region;not null;default:'';index:idx_lesson_catalog,priority:2;uniqueIndex:idx_lesson_slug_locale_region,priority:3" json:"region"`
	Position int    `gorm:"column:position;not null;default:0;index:idx_lesson_catalog,priority:3" json:"position"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Body        string `gorm:"column:body;type:text" json:"body"`

	Category   string                      `gorm:"column:category;not null;default:''" json:"category"`
	Tags       datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	Difficulty int                         `gorm:"column:difficulty;not null;default:1" json:"difficulty"`
	Published  bool                        `gorm:"column:published;not null;default:true" json:"published"`

	Questions []QuizQuestion `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"questions"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// QuizQuestion is a multiple choice question. CorrectIndex is zero-based into Options.
type QuizQuestion struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;index:idx_quiz_question_lesson_index,priority:1" json:"lesson_id"`
	Index    int       `gorm:"column:question_index;not null;index:idx_quiz_question_lesson_index,priority:2" json:"index"`

	Prompt       string                      `gorm:"column:prompt;type:text;not null" json:"prompt"`
	Options      datatypes.JSONSlice[string] `gorm:"column:options" json:"options"`
	CorrectIndex int                         `gorm:"column:correct_index;not null" json:"correct_index"`
	Explanation  string                      `gorm:"column:explanation;type:text" json:"explanation"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// Valid reports whether the question satisfies 0 <= CorrectIndex < len(Options) with at least two options.
func (q QuizQuestion) Valid() bool {
	return len(q.Options) >= 2 && q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}
