package testcount

import (
	"context"
	"testing"
)

const sampleIT = `package io.quarkus.ts.http;

import org.junit.jupiter.api.Test;
import org.junit.jupiter.params.ParameterizedTest;

@QuarkusScenario
public class GreetingIT {

    @Test
    public void hello() {
        String s = "not a test";
    }

    @Disabled("flaky")
    @Test
    void disabledHello() {
    }

    // @Test
    // void commentedOut() {}

    /*
    @Test
    void blockCommented() {}
    */

    @ParameterizedTest
    @ValueSource(strings = {"a", "b"})
    void parameterized(String value) {
    }

    @org.junit.jupiter.api.RepeatedTest(3)
    void repeated() {
    }

    @BeforeEach
    void setUp() {
    }

    @Nested
    class Inner {
        @Test
        void innerTest() {
        }
    }
}
`

func TestCount(t *testing.T) {
	c := NewCounter()
	got, err := c.Count(context.Background(), []byte(sampleIT))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if got != 5 {
		t.Errorf("Count() = %d, want 5 (available=%v)", got, Available())
	}
}

func TestCountEmpty(t *testing.T) {
	got, err := NewCounter().Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestIsTestAnnotation(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Test", true},
		{"org.junit.jupiter.api.Test", true},
		{"TestFactory", true},
		{"TestTemplate", true},
		{"Tested", false},
		{"BeforeEach", false},
		{"Disabled", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isTestAnnotation(tt.name); got != tt.want {
			t.Errorf("isTestAnnotation(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
