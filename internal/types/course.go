package types

import (
	"time"

	"github.com/google/uuid"
)

// Course publication states. Only PUBLISHED courses are listed or enrollable.
const (
	CourseStatusDraft     = "DRAFT"
	CourseStatusPublished = "PUBLISHED"
	CourseStatusArchived  = "ARCHIVED"
)

// Course difficulty levels.
const (
	DifficultyBeginner     = "BEGINNER"
	DifficultyIntermediate = "INTERMEDIATE"
	DifficultyAdvanced     = "ADVANCED"
)

// Course is a catalog entry.
type Course struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	LongDescription *string   `json:"longDescription,omitempty"`
	Difficulty      string    `json:"difficulty"`
	EstimatedHours  float64   `json:"estimatedHours"`
	Language        string    `json:"language"`
	SkillsTargeted  []string  `json:"skillsTargeted"`
	Status          string    `json:"status"`
	EnrollmentCount int       `json:"enrollmentCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CourseList is a single page of the catalog.
type CourseList struct {
	Courses    []Course   `json:"courses"`
	Pagination Pagination `json:"pagination"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	CourseID   uuid.UUID `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}
