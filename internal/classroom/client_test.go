package classroom

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servar-dev/servar/internal/classroom/classroomtest"
)

func TestListCourseNames_AllPages(t *testing.T) {
	srv := classroomtest.NewServer(t, "Algebra", "Biology", "Chemistry", "Drama", "English")
	client, err := NewClient(context.Background(), nil, srv.ClientOptions()...)
	require.NoError(t, err)

	got, err := client.ListCourseNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Algebra", "Biology", "Chemistry", "Drama", "English"}, got.Courses)
	assert.Equal(t, 3, srv.Calls())
}

func TestListCourseNames_Empty(t *testing.T) {
	srv := classroomtest.NewServer(t)
	client, err := NewClient(context.Background(), nil, srv.ClientOptions()...)
	require.NoError(t, err)

	got, err := client.ListCourseNames(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"courses": []}`, string(data))
}
