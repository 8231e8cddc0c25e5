package model

import "errors"

// UserType discriminates the NotificationSettings union.
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeTeacher UserType = "teacher"
)

// NotificationSettings is a tagged union: exactly one of Student or
// Teacher is set, selected by UserType. The two user kinds have
// different switches, so a single flat struct with optional fields
// would allow nonsense combinations.
type NotificationSettings struct {
	UserType UserType                    `json:"user_type"`
	Student  *StudentNotificationOptions `json:"student,omitempty"`
	Teacher  *TeacherNotificationOptions `json:"teacher,omitempty"`
}

// StudentNotificationOptions are the switches available to students.
type StudentNotificationOptions struct {
	DueReminders    bool `json:"due_reminders"`
	GradePosted     bool `json:"grade_posted"`
	ExamTimeWarning bool `json:"exam_time_warning"`
}

// TeacherNotificationOptions are the switches available to instructors.
type TeacherNotificationOptions struct {
	NewSubmissions   bool `json:"new_submissions"`
	StudentQuestions bool `json:"student_questions"`
}

var ErrSettingsVariantMismatch = errors.New("notification settings variant does not match user type")

// CheckVariant verifies the populated branch matches the discriminator.
func (s *NotificationSettings) CheckVariant() error {
	switch s.UserType {
	case UserTypeStudent:
		if s.Student == nil || s.Teacher != nil {
			return ErrSettingsVariantMismatch
		}
	case UserTypeTeacher:
		if s.Teacher == nil || s.Student != nil {
			return ErrSettingsVariantMismatch
		}
	default:
		return ErrSettingsVariantMismatch
	}
	return nil
}

// DefaultStudentSettings returns the opt-in defaults new students get.
func DefaultStudentSettings() *NotificationSettings {
	return &NotificationSettings{
		UserType: UserTypeStudent,
		Student: &StudentNotificationOptions{
			DueReminders:    true,
			GradePosted:     true,
			ExamTimeWarning: true,
		},
	}
}

// DefaultTeacherSettings returns the opt-in defaults new instructors get.
func DefaultTeacherSettings() *NotificationSettings {
	return &NotificationSettings{
		UserType: UserTypeTeacher,
		Teacher: &TeacherNotificationOptions{
			NewSubmissions:   true,
			StudentQuestions: true,
		},
	}
}
