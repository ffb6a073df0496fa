package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/geo"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/maprix/maprix/internal/pipeline"
	"github.com/spf13/cobra"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no session", operator.ErrNoSession, output.ErrCodeNoSession},
		{"gate blocked", fmt.Errorf("capture: %w", gate.ErrBlocked), output.ErrCodeBlocked},
		{"no answers", errNoAnswers, output.ErrCodeBlocked},
		{"sync running", pipeline.ErrSyncInProgress, output.ErrCodeSyncInProgress},
		{"not found", fmt.Errorf("delete: %w", apiclient.ErrNotFound), output.ErrCodeNotFound},
		{"validation", &checklist.ValidationError{}, output.ErrCodeInvalidInput},
		{"missing identity", operator.ErrMissingIdentity, output.ErrCodeInvalidInput},
		{"client error", &apiclient.APIError{StatusCode: 400, Message: "bad"}, output.ErrCodeInvalidInput},
		{"server error", &apiclient.APIError{StatusCode: 503, Message: "down"}, output.ErrCodeServerError},
		{"bad position", fmt.Errorf("%w: latitude 95", geo.ErrOutOfRange), output.ErrCodeInvalidInput},
		{"gps timeout", fmt.Errorf("locate: %w", geo.ErrTimeout), output.ErrCodeLocation},
		{"other", errors.New("disk full"), output.ErrCodeStorageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestFlagErrorHints(t *testing.T) {
	cmd := &cobra.Command{Use: "capture"}
	cmd.Flags().StringP("observation", "o", "", "")
	cmd.Flags().Float64("lat", 0, "")

	err := flagError(cmd, errors.New("unknown flag: --obs"))
	if !strings.Contains(err.Error(), "try --observation, -o") {
		t.Errorf("alias hint missing: %v", err)
	}

	err = flagError(cmd, errors.New("unknown flag: --observaton"))
	if !strings.Contains(err.Error(), "did you mean --observation") {
		t.Errorf("suggestion missing: %v", err)
	}

	orig := errors.New("invalid argument \"x\" for \"--lat\"")
	if got := flagError(cmd, orig); got != orig {
		t.Errorf("non-unknown-flag errors should pass through, got %v", got)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "-1", "0"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) should fail", bad)
		}
	}
}
