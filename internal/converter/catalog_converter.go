package converter

import (
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/domain/entity"
)

func TrainingCoursesToResponses(courses []entity.TrainingCourse) []dto.TrainingCourseResponse {
	responses := make([]dto.TrainingCourseResponse, len(courses))
	for i, c := range courses {
		responses[i] = dto.TrainingCourseResponse{ID: c.ID, Name: c.Name, Price: c.Price}
	}
	return responses
}
