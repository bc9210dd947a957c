package utils

import (
	"reflect"
	"time"
)

// get type name of struct
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

func UniqueSlice[T comparable](input []T) []T {
	seen := make(map[T]bool)
	result := make([]T, 0, len(input))
	for _, v := range input {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// MyDateString formats a time the way invoice dates are stored and compared.
func MyDateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a yyyy-mm-dd query parameter. Zero time on empty input.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
