package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/woundlens-ai/internal/analysis"
	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
	"github.com/wolfman30/woundlens-ai/internal/provider"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

type scriptedClient struct {
	report     string
	lastReason provider.RevisionReason
}

func (c *scriptedClient) Model() string { return "gpt-4o" }

func (c *scriptedClient) Analyze(context.Context, string, provider.Image) (string, error) {
	return c.report, nil
}

func (c *scriptedClient) ExpandPlan(context.Context, string, assessment.FormattedAssessment, string) (json.RawMessage, error) {
	return json.RawMessage(`{"plan":"expanded"}`), nil
}

func (c *scriptedClient) ReviseProducts(_ context.Context, _ string, reason provider.RevisionReason) (json.RawMessage, error) {
	c.lastReason = reason
	return json.RawMessage(`{"products":"revised"}`), nil
}

func (c *scriptedClient) HealingProgress(context.Context, *history.Document) (provider.HealingProgress, error) {
	return provider.HealingProgress{}, nil
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-image", "wound.jpg", "-flags", "diabetes, odor_present", "-reason", "Other"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "wound.jpg", opts.image)
	assert.Equal(t, []string{"diabetes", "odor_present"}, opts.flags)
	assert.Equal(t, provider.ReasonOther, opts.reason)
	assert.Equal(t, "Lower Left Leg/Shin", opts.location)
}

func TestParseFlagsErrors(t *testing.T) {
	tests := map[string][]string{
		"missing image": {},
		"unknown flag":  {"-image", "w.jpg", "-flags", "sparkly"},
		"bad reason":    {"-image", "w.jpg", "-reason", "Because"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseFlags(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestRunPrintsAllSteps(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "wound.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o600))

	client := &scriptedClient{report: "**Treatment Plan:**\nRest.\n**Recommended Products:**\n- Gauze"}
	coord := analysis.NewCoordinator(client,
		analysis.WithLogger(logging.Discard()),
		analysis.WithHistoryBuilder(history.NewBuilder(dir, logging.Discard())),
	)

	var out bytes.Buffer
	err := run(context.Background(), coord, options{image: img, location: "Heel", reason: provider.ReasonTooCostly}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "STEP 1: INITIAL ANALYSIS")
	assert.Contains(t, text, "STEP 2: EXPAND TREATMENT PLAN")
	assert.Contains(t, text, "STEP 3: REVISE PRODUCTS (Too Costly)")
	assert.Contains(t, text, `"expanded"`)
	assert.Contains(t, text, `"revised"`)
	assert.Equal(t, provider.ReasonTooCostly, client.lastReason)
}

func TestRunStopsWhenAnalysisFails(t *testing.T) {
	coord := analysis.NewCoordinator(&scriptedClient{},
		analysis.WithLogger(logging.Discard()),
		analysis.WithHistoryBuilder(history.NewBuilder(t.TempDir(), logging.Discard())),
	)

	var out bytes.Buffer
	err := run(context.Background(), coord, options{image: filepath.Join(t.TempDir(), "missing.jpg"), reason: provider.ReasonOther}, &out)
	require.Error(t, err)
	assert.False(t, strings.Contains(out.String(), "STEP 2"))
}
