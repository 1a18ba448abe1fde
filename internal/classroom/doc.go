// Package classroom lists Google Classroom courses.
package classroom
