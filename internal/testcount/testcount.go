// Package testcount counts JUnit test methods in Java sources so the stats
// report can put disabled tests next to the module's total.
package testcount

import "strings"

// testAnnotations mark a method as a test.
var testAnnotations = map[string]bool{
	"Test":              true,
	"ParameterizedTest": true,
	"RepeatedTest":      true,
	"TestFactory":       true,
	"TestTemplate":      true,
}

// isTestAnnotation accepts simple and qualified names
// (Test, org.junit.jupiter.api.Test).
func isTestAnnotation(name string) bool {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return testAnnotations[name]
}
