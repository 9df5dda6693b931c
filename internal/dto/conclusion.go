package dto

// CreateConclusionRequest opens a conclusion record for a student.
type CreateConclusionRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	CourseID  *string `json:"courseId"`
	ClassID   *string `json:"classId"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

// ConcludeRequest finalises a VALIDATED conclusion record.
type ConcludeRequest struct {
	OfficialActNumber *string `json:"officialActNumber" validate:"omitempty,max=64"`
}

// RequirementsRequest asks whether a student could conclude the given scope.
type RequirementsRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	CourseID  *string `json:"courseId"`
	ClassID   *string `json:"classId"`
}
