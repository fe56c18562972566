package db

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/predcompare/internal/compare"
	"github.com/banshee-data/predcompare/internal/testutil"
)

func sampleReport(t *testing.T) *compare.Report {
	t.Helper()
	testutil.MuteLogs(t)
	test := testutil.Envelope(
		testutil.NewRecord("a.jpg").Detection("1", 0.5, 0.1, 0.1, 0.2, 0.2).Prediction("cat", 0.80, "classifier").Build(),
	)
	ref := testutil.Envelope(
		testutil.NewRecord("a.jpg").Detection("1", 0.9, 0.1, 0.1, 0.2, 0.2).Prediction("cat", 0.91, "classifier").Build(),
		testutil.NewRecord("b.jpg").Prediction("dog", 0.5, "classifier").Build(),
	)
	report, err := compare.Compare(test, ref, compare.DefaultToleranceConfig())
	require.NoError(t, err)
	return report
}

func TestSaveReport_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	report := sampleReport(t)

	runID, err := db.SaveReport(RunMeta{
		TestFile:    "test.json",
		RefFile:     "ref.json",
		ToolVersion: "dev",
		ConfigJSON:  `{"mode":"tolerance"}`,
	}, report)
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err, "run IDs are UUIDs")

	run, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "test.json", run.TestFile)
	assert.Equal(t, "ref.json", run.RefFile)
	assert.Equal(t, "tolerance", run.Mode)
	assert.Equal(t, 1, run.TestCount)
	assert.Equal(t, 2, run.RefCount)
	assert.Equal(t, 1, run.MissingCount)
	assert.Equal(t, 1, run.MismatchedCount)
	assert.Equal(t, `{"mode":"tolerance"}`, run.ConfigJSON)
	assert.False(t, run.CreatedAt.IsZero())
	assert.InDelta(t, 0.11, run.RMSE["prediction_score"], 1e-9)
	assert.InDelta(t, 0.4, run.RMSE["detection_conf"], 1e-9)
	assert.Contains(t, run.RMSE, "detection_bbox")

	missing, err := db.RunMissing(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.jpg"}, missing)

	mismatches, err := db.RunMismatches(runID)
	require.NoError(t, err)
	want := []StoredMismatch{
		{FilePath: "a.jpg", Field: "detection_0_conf", Ref: "0.9", Test: "0.5"},
		{FilePath: "a.jpg", Field: "prediction_score", Ref: "0.91", Test: "0.8"},
	}
	if diff := cmp.Diff(want, mismatches); diff != "" {
		t.Errorf("RunMismatches mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReport_RoundingModeHasNoRMSE(t *testing.T) {
	db := newTestDB(t)
	testutil.MuteLogs(t)
	env := testutil.Envelope(testutil.NewRecord("a.jpg").Prediction("cat", 0.5, "classifier").Build())
	report, err := compare.Compare(env, env, compare.DefaultRoundingConfig())
	require.NoError(t, err)

	runID, err := db.SaveReport(RunMeta{TestFile: "t.json", RefFile: "r.json"}, report)
	require.NoError(t, err)

	run, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "rounding", run.Mode)
	assert.Empty(t, run.RMSE)
	assert.Equal(t, "{}", run.ConfigJSON)

	mismatches, err := db.RunMismatches(runID)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestListRuns(t *testing.T) {
	db := newTestDB(t)
	report := sampleReport(t)

	var ids []string
	for _, name := range []string{"one.json", "two.json", "three.json"} {
		id, err := db.SaveReport(RunMeta{TestFile: name, RefFile: "ref.json"}, report)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].RunID, "newest first")
	assert.Equal(t, "three.json", runs[0].TestFile)
	assert.Equal(t, ids[0], runs[2].RunID)
	for _, r := range runs {
		assert.Contains(t, r.RMSE, "prediction_score")
	}

	limited, err := db.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetRun_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetRun(uuid.NewString())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteRun_Cascades(t *testing.T) {
	db := newTestDB(t)
	runID, err := db.SaveReport(RunMeta{TestFile: "t.json", RefFile: "r.json"}, sampleReport(t))
	require.NoError(t, err)

	require.NoError(t, db.DeleteRun(runID))

	mismatches, err := db.RunMismatches(runID)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
	missing, err := db.RunMissing(runID)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.ErrorIs(t, db.DeleteRun(runID), sql.ErrNoRows)
}
