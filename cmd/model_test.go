package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cropadvisor/ml"
)

func TestPrintModel(t *testing.T) {
	m, err := ml.LoadForest("../ml/testdata/crop_model.json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printModel(&buf, "crop_model.json", m))

	out := buf.String()
	assert.Contains(t, out, "Version:  test-forest-1")
	assert.Contains(t, out, "Trees:    2")
	assert.Contains(t, out, "chickpea")
	assert.Regexp(t, `Rainfall\s+0\.300`, out)
	assert.Regexp(t, `Soil pH\s+0\.050`, out)
}

func TestModelInspectCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"model", "inspect", "../ml/testdata/crop_model.json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())
	assert.Contains(t, buf.String(), "coffee")
}
