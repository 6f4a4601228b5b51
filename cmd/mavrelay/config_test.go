package main

import "testing"

func TestConfigValidate_OK(t *testing.T) {
	c := &appConfig{
		endpoints:   []string{"udpin:0.0.0.0:14550"},
		systemID:    250,
		componentID: 1,
		logFormat:   "text",
		logLevel:    "info",
	}
	if err := c.validate(); err != nil {
		t.Fatalf("expected ok got %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*appConfig)
	}{
		{"badFormat", func(c *appConfig) { c.logFormat = "xx" }},
		{"badLevel", func(c *appConfig) { c.logLevel = "nope" }},
		{"badSystemID", func(c *appConfig) { c.systemID = 256 }},
		{"negativeSystemID", func(c *appConfig) { c.systemID = -1 }},
		{"zeroSystemID", func(c *appConfig) { c.systemID = 0 }},
		{"badComponentID", func(c *appConfig) { c.componentID = 999 }},
		{"zeroComponentID", func(c *appConfig) { c.componentID = 0 }},
		{"noEndpoints", func(c *appConfig) { c.endpoints = nil }},
		{"badEndpoint", func(c *appConfig) { c.endpoints = []string{"bogus:nope"} }},
	}
	for _, tc := range tests {
		base := &appConfig{
			endpoints:   []string{"udpin:0.0.0.0:14550"},
			systemID:    250,
			componentID: 1,
			logFormat:   "text",
			logLevel:    "info",
		}
		tc.mod(base)
		if err := base.validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
