package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderreturns/internal/infrastructure"
	"orderreturns/internal/operations"
)

var trainOrders = strings.Join([]string{
	"id,orderDate,deliveryDate,itemID,size,color,price,customerID,salutation,dateOfBirth,state,creationDate,manufacturerID,return",
	"1,2020-01-15,2020-01-17,3,4232,blue,50,7,Mrs,1990-01-01,Berlin,2019-01-01,9,1",
	"2,2020-02-01,1990-12-31,3,M,,20,7,Mrs,1990-01-01,Berlin,2019-01-01,9,0",
	"3,2020-03-10,2020-03-12,4,xxl+,red,100,8,Mr,1985-06-30,Hamburg,2018-05-05,9,1",
	"4,2020-03-11,2020-03-14,5,38,red,30,8,Mr,1985-06-30,Hamburg,2018-05-05,11,0",
}, "\n")

var testOrders = strings.Join([]string{
	"id,orderDate,deliveryDate,itemID,size,color,price,customerID,salutation,dateOfBirth,state,creationDate,manufacturerID",
	"50,2020-04-01,2020-04-03,3,42,blue,45,7,Mrs,1990-01-01,Berlin,2019-01-01,9",
}, "\n")

func newTestApplication(t *testing.T, backend string) *Application {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`logging:
  level: warn
  output: console
lookup:
  backend: %s
  dir: lookups
  sqlite_path: %s
telemetry:
  enabled: true
  metrics_file: %s
`, backend, filepath.Join(dir, "lookups.db"), filepath.Join(dir, "metrics", "returns.prom"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	application, err := NewApplication(context.Background(), Options{ConfigPath: cfgPath, BaseDir: dir})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(application.Paths.TrainFile, []byte(trainOrders), 0644))
	require.NoError(t, os.WriteFile(application.Paths.TestFile, []byte(testOrders), 0644))
	return application
}

func TestNewApplication_ResolvesPaths(t *testing.T) {
	application := newTestApplication(t, "memory")
	defer application.Stop(context.Background())

	assert.DirExists(t, application.Paths.DataDir)
	assert.DirExists(t, application.Paths.OutputDir)
	assert.True(t, filepath.IsAbs(application.Paths.LookupDir))
	assert.NotNil(t, application.Tracer.Metrics())
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("lookup:\n  backend: redis\n"), 0644))

	_, err := NewApplication(context.Background(), Options{ConfigPath: cfgPath, BaseDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}

func TestApplication_BuildFlow(t *testing.T) {
	application := newTestApplication(t, "memory")
	defer application.Stop(context.Background())

	tests := []struct {
		operationType string
		wantSteps     int
	}{
		{operations.OperationTypeAggregate, 4},
		{operations.OperationTypePrepare, 4},
		{operations.OperationTypePredict, 6},
	}
	for _, tt := range tests {
		t.Run(tt.operationType, func(t *testing.T) {
			registry, err := application.BuildFlow(tt.operationType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSteps, registry.Count())
		})
	}

	_, err := application.BuildFlow("train")
	assert.Error(t, err)
}

func TestApplication_AggregateThenPredict(t *testing.T) {
	for _, backend := range []string{"memory", "csv", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			application := newTestApplication(t, backend)
			ctx := context.Background()

			_, err := application.Execute(ctx, operations.OperationTypeAggregate, map[string]interface{}{
				operations.ContextKeyTrainPath: application.Paths.TrainFile,
			})
			require.NoError(t, err)

			resp, err := application.Execute(ctx, operations.OperationTypePredict, map[string]interface{}{
				operations.ContextKeyTrainPath:  application.Paths.TrainFile,
				operations.ContextKeyTestPath:   application.Paths.TestFile,
				operations.ContextKeyOutputPath: application.Paths.SubmissionFile,
			})
			require.NoError(t, err)
			assert.Equal(t, operations.OperationStatusCompleted, resp.Status)

			data, err := os.ReadFile(application.Paths.SubmissionFile)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			require.Len(t, lines, 2)
			assert.Equal(t, "id,return", lines[0])
			assert.True(t, strings.HasPrefix(lines[1], "50,"))

			require.NoError(t, application.Stop(ctx))
			metrics, err := os.ReadFile(application.Config.Telemetry.MetricsFile)
			require.NoError(t, err)
			assert.Contains(t, string(metrics), "rows_processed")
		})
	}
}
