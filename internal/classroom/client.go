package classroom

import (
	"context"
	"fmt"

	classroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/instrumentation"
)

// CourseList is the flat record returned by ListCourseNames.
type CourseList struct {
	Courses []string `json:"courses"`
}

// Client wraps the Classroom courses service.
type Client struct {
	courses *classroom.CoursesService
	metrics *instrumentation.Metrics
}

// NewClient creates a Classroom client; m may be nil.
func NewClient(ctx context.Context, m *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := classroom.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Classroom service: %w", err)
	}
	return &Client{courses: svc.Courses, metrics: m}, nil
}

// ListCourseNames returns the names of every course visible to the user,
// across all pages, in provider order. No courses yields an empty, non-nil list.
func (c *Client) ListCourseNames(ctx context.Context) (*CourseList, error) {
	result := &CourseList{Courses: []string{}}

	err := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceClassroom, instrumentation.OperationList, func(ctx context.Context) error {
		return c.courses.List().Pages(ctx, func(page *classroom.ListCoursesResponse) error {
			for _, course := range page.Courses {
				result.Courses = append(result.Courses, course.Name)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return result, nil
}
