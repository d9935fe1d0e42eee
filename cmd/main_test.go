package main

import (
	"testing"

	"github.com/google/logger"
)

func TestQuietFlag(t *testing.T) {
	tests := []struct {
		args        []string
		wantVerbose bool
	}{
		{nil, true},
		{[]string{"-q"}, false},
		{[]string{"--quiet"}, false},
	}
	for _, tt := range tests {
		root := newRootCmd()
		if err := root.ParseFlags(tt.args); err != nil {
			t.Fatalf("parse %v: %v", tt.args, err)
		}
		root.PersistentPreRun(root, nil)
		logger.Close()
		if verbose != tt.wantVerbose {
			t.Errorf("args %v: verbose = %v, want %v", tt.args, verbose, tt.wantVerbose)
		}
	}
}
