package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks checks the worker pool and collector goroutines are gone. The
// file logger's lumberjack rotation goroutine is long lived and ignored.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

func TestDirectoryAnalysis(t *testing.T) {
	defer verifyNoLeaks(t)

	settings := testSettings(t)
	inDir := t.TempDir()
	writeRecordingCSV(t, inDir, "m01.csv", 200)
	writeRecordingCSV(t, inDir, "m02.csv", 200)
	writeRecordingCSV(t, inDir, "m03.csv", 200)
	settings.Input.Path = inDir
	settings.Input.Group = "control"

	require.NoError(t, DirectoryAnalysis(settings))

	outDir := filepath.Join(settings.Output.File.Path, "control")

	for _, animal := range []string{"m01", "m02", "m03"} {
		_, err := os.Stat(filepath.Join(outDir, animal+"-phmtry.csv"))
		assert.NoError(t, err, "artifact for %s", animal)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "control_summary.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "time,mean,sem,n", lines[0])
	// Plot window 0..199 at 1 s bins, plus header.
	assert.Len(t, lines, 201)
	assert.True(t, strings.HasSuffix(lines[1], ",3"), "all three animals present per bin")

	svg, err := os.ReadFile(filepath.Join(outDir, "control.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "control (n=3)")
}

func TestDirectoryAnalysisGroupDefaultsToDirName(t *testing.T) {
	settings := testSettings(t)
	base := t.TempDir()
	inDir := filepath.Join(base, "cohort-a")
	require.NoError(t, os.Mkdir(inDir, 0o755))
	writeRecordingCSV(t, inDir, "m01.csv", 200)
	settings.Input.Path = inDir

	require.NoError(t, DirectoryAnalysis(settings))

	_, err := os.Stat(filepath.Join(settings.Output.File.Path, "cohort-a", "cohort-a_summary.csv"))
	assert.NoError(t, err)
}

func TestDirectoryAnalysisFailingAnimalExcluded(t *testing.T) {
	defer verifyNoLeaks(t)

	settings := testSettings(t)
	inDir := t.TempDir()
	writeRecordingCSV(t, inDir, "good1.csv", 200)
	writeRecordingCSV(t, inDir, "good2.csv", 200)
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "broken.csv"),
		[]byte("not,a,recording\n1,2,3\n"), 0o644))
	settings.Input.Path = inDir
	settings.Input.Group = "mixed"

	require.NoError(t, DirectoryAnalysis(settings), "one bad file must not abort the group")

	data, err := os.ReadFile(filepath.Join(settings.Output.File.Path, "mixed", "mixed_summary.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.Split(strings.TrimSpace(string(data)), "\n")[1], ",2"),
		"summary counts only the successful animals")
}

func TestDirectoryAnalysisEmptyDirectory(t *testing.T) {
	settings := testSettings(t)
	settings.Input.Path = t.TempDir()
	settings.Input.Group = "empty"

	require.NoError(t, DirectoryAnalysis(settings))

	_, err := os.Stat(filepath.Join(settings.Output.File.Path, "empty"))
	assert.True(t, os.IsNotExist(err), "no outputs for an empty group")
}

func TestCollectInputFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch := func(parts ...string) {
		path := filepath.Join(append([]string{dir}, parts...)...)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	touch("m01.csv")
	touch("m02.CSV")
	touch("notes.txt")
	touch("m01-phmtry.csv") // artifact from an earlier run
	touch("nested", "m03.csv")

	files, err := collectInputFiles(dir, false)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files, filepath.Join(dir, "m01.csv"))
	assert.Contains(t, files, filepath.Join(dir, "m02.CSV"))

	files, err = collectInputFiles(dir, true)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Contains(t, files, filepath.Join(dir, "nested", "m03.csv"))
}

func TestCollectInputFilesMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := collectInputFiles(filepath.Join(t.TempDir(), "nope"), false)
	require.Error(t, err)
}

func TestCompareAnalysis(t *testing.T) {
	defer verifyNoLeaks(t)

	settings := testSettings(t)
	base := t.TempDir()
	controlDir := filepath.Join(base, "control")
	testDir := filepath.Join(base, "test")
	require.NoError(t, os.Mkdir(controlDir, 0o755))
	require.NoError(t, os.Mkdir(testDir, 0o755))
	writeRecordingCSV(t, controlDir, "c01.csv", 200)
	writeRecordingCSV(t, controlDir, "c02.csv", 200)
	writeRecordingCSV(t, testDir, "t01.csv", 200)
	settings.Input.Control = controlDir
	settings.Input.Test = testDir

	require.NoError(t, CompareAnalysis(settings))

	out := settings.Output.File.Path
	_, err := os.Stat(filepath.Join(out, "Control", "Control_summary.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "Test", "Test_summary.csv"))
	assert.NoError(t, err)

	svg, err := os.ReadFile(filepath.Join(out, "Control_vs_Test", "Control_vs_Test.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Control (n=2)")
	assert.Contains(t, string(svg), "Test (n=1)")
}

func TestCompareAnalysisEmptyGroups(t *testing.T) {
	settings := testSettings(t)
	settings.Input.Control = t.TempDir()
	settings.Input.Test = t.TempDir()

	require.NoError(t, CompareAnalysis(settings))

	_, err := os.Stat(filepath.Join(settings.Output.File.Path, "Control_vs_Test"))
	assert.True(t, os.IsNotExist(err), "no figure when both groups are empty")
}
