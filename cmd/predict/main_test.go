package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/internal/app"
	"orderreturns/internal/config"
	"orderreturns/internal/operations"
)

func testApplication() *app.Application {
	return &app.Application{Paths: &config.Paths{
		TrainFile:      "/data/train.csv",
		TestFile:       "/data/test.csv",
		SubmissionFile: "/output/submission.csv",
	}}
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-config", "c.yaml", "-test", "t.csv", "-out", "s.csv"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "c.yaml", opts.configPath)
	assert.Equal(t, "", opts.trainPath)
	assert.Equal(t, "t.csv", opts.testPath)
	assert.Equal(t, "s.csv", opts.outputPath)

	_, err = parseFlags([]string{"-unknown"}, io.Discard)
	assert.Error(t, err)
}

func TestParameters(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want map[string]interface{}
	}{
		{
			name: "defaults from paths",
			want: map[string]interface{}{
				operations.ContextKeyTrainPath:  "/data/train.csv",
				operations.ContextKeyTestPath:   "/data/test.csv",
				operations.ContextKeyOutputPath: "/output/submission.csv",
			},
		},
		{
			name: "flags win",
			opts: options{trainPath: "a.csv", testPath: "b.csv", outputPath: "c.csv"},
			want: map[string]interface{}{
				operations.ContextKeyTrainPath:  "a.csv",
				operations.ContextKeyTestPath:   "b.csv",
				operations.ContextKeyOutputPath: "c.csv",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parameters(&tt.opts, testApplication()))
		})
	}
}
