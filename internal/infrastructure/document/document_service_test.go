package document

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"logalty-esign/internal/config"
)

func testPort(t *testing.T) (ContentPort, string) {
	t.Helper()

	base := t.TempDir()
	cfg := &config.Config{}
	cfg.Document.BasePath = base
	cfg.Document.ReadyFolder = "ready"
	cfg.Document.ProgressFolder = "progress"
	cfg.Document.FinishFolder = "finish"
	cfg.Document.FileExtension = ".pdf"

	port, err := NewContentPort(cfg, zap.NewNop())
	require.NoError(t, err)
	return port, base
}

func writeReady(t *testing.T, port ContentPort, filename string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(port.ReadyPath(), filename), content, 0644))
}

func TestContentPort_CreatesFolders(t *testing.T) {
	port, base := testPort(t)

	for _, dir := range []string{port.ReadyPath(), port.ProgressPath(), port.FinishPath()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	assert.Equal(t, filepath.Join(base, "ready"), port.ReadyPath())
}

func TestContentPort_FetchContent(t *testing.T) {
	port, _ := testPort(t)

	content := []byte("%PDF-1.4 contract body")
	writeReady(t, port, "contract-a_v2.pdf", content)

	encoded, filename, err := port.FetchContent("contract-a")
	require.NoError(t, err)
	assert.Equal(t, "contract-a_v2.pdf", filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), encoded)
}

func TestContentPort_FetchContentIgnoresOtherExtensions(t *testing.T) {
	port, _ := testPort(t)

	writeReady(t, port, "contract.txt", []byte("not a pdf"))

	_, _, err := port.FetchContent("contract")
	assert.Error(t, err)
}

func TestContentPort_FindReadyFilenameMissing(t *testing.T) {
	port, _ := testPort(t)

	_, err := port.FindReadyFilename("absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
}

func TestContentPort_MoveLifecycle(t *testing.T) {
	port, _ := testPort(t)

	writeReady(t, port, "contract.pdf", []byte("%PDF-1.4"))

	require.NoError(t, port.MoveToProgress("contract.pdf"))
	assert.NoFileExists(t, filepath.Join(port.ReadyPath(), "contract.pdf"))
	assert.FileExists(t, filepath.Join(port.ProgressPath(), "contract.pdf"))

	filename, err := port.FindProgressFilename("contract")
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", filename)

	require.NoError(t, port.MoveToFinish("contract.pdf"))
	assert.NoFileExists(t, filepath.Join(port.ProgressPath(), "contract.pdf"))
	assert.FileExists(t, filepath.Join(port.FinishPath(), "contract.pdf"))
}

func TestContentPort_MoveMissingFileFails(t *testing.T) {
	port, _ := testPort(t)

	assert.Error(t, port.MoveToProgress("absent.pdf"))
	assert.Error(t, port.MoveToFinish("absent.pdf"))
}
