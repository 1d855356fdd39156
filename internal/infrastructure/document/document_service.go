package document

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"logalty-esign/internal/config"
)

// ContentPort is the document content access used when building signature
// requests. Documents live in filesystem folders tracking their lifecycle:
// ready (awaiting signature), progress (out for signature), finish (signed).
type ContentPort interface {
	// FetchContent finds a document in the ready folder by name and returns
	// its base64-encoded content and resolved filename
	FetchContent(name string) (base64Content string, filename string, err error)

	// FindReadyFilename resolves a document name to its filename in the ready folder
	FindReadyFilename(name string) (string, error)

	// FindProgressFilename resolves a document name to its filename in the progress folder
	FindProgressFilename(name string) (string, error)

	// MoveToProgress moves a document from ready to progress folder
	MoveToProgress(filename string) error

	// MoveToFinish moves a document from progress to finish folder
	MoveToFinish(filename string) error

	// ReadyPath returns the full path to the ready folder
	ReadyPath() string

	// ProgressPath returns the full path to the progress folder
	ProgressPath() string

	// FinishPath returns the full path to the finish folder
	FinishPath() string
}

type contentPort struct {
	config *config.DocumentConfig
	logger *zap.Logger
}

func NewContentPort(cfg *config.Config, logger *zap.Logger) (ContentPort, error) {
	svc := &contentPort{
		config: &cfg.Document,
		logger: logger,
	}

	if err := svc.ensureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create document directories: %w", err)
	}

	logger.Info("Document content port initialized",
		zap.String("ready_folder", svc.ReadyPath()),
		zap.String("progress_folder", svc.ProgressPath()),
		zap.String("finish_folder", svc.FinishPath()),
	)

	return svc, nil
}

func (s *contentPort) ensureDirectories() error {
	dirs := []string{
		s.ReadyPath(),
		s.ProgressPath(),
		s.FinishPath(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (s *contentPort) ReadyPath() string {
	return filepath.Join(s.config.BasePath, s.config.ReadyFolder)
}

func (s *contentPort) ProgressPath() string {
	return filepath.Join(s.config.BasePath, s.config.ProgressFolder)
}

func (s *contentPort) FinishPath() string {
	return filepath.Join(s.config.BasePath, s.config.FinishFolder)
}

// findIn matches the first file in dir carrying the requested name, e.g.
// contract-a.pdf or contract-a_v2.pdf for name "contract-a"
func (s *contentPort) findIn(dir, name string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read folder %s: %w", dir, err)
	}

	extension := strings.ToLower(s.config.FileExtension)

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		filename := file.Name()
		if !strings.HasSuffix(strings.ToLower(filename), extension) {
			continue
		}
		if strings.Contains(filename, name) {
			return filename, nil
		}
	}

	return "", fmt.Errorf("document not found: %s", name)
}

func (s *contentPort) FindReadyFilename(name string) (string, error) {
	return s.findIn(s.ReadyPath(), name)
}

func (s *contentPort) FindProgressFilename(name string) (string, error) {
	return s.findIn(s.ProgressPath(), name)
}

func (s *contentPort) FetchContent(name string) (string, string, error) {
	readyPath := s.ReadyPath()

	matchedFile, err := s.findIn(readyPath, name)
	if err != nil {
		return "", "", err
	}

	content, err := os.ReadFile(filepath.Join(readyPath, matchedFile))
	if err != nil {
		return "", "", fmt.Errorf("failed to read document file: %w", err)
	}

	base64Content := base64.StdEncoding.EncodeToString(content)

	s.logger.Info("Document loaded",
		zap.String("name", name),
		zap.String("filename", matchedFile),
		zap.Int("size_bytes", len(content)),
	)

	return base64Content, matchedFile, nil
}

func (s *contentPort) MoveToProgress(filename string) error {
	srcPath := filepath.Join(s.ReadyPath(), filename)
	dstPath := filepath.Join(s.ProgressPath(), filename)

	if err := os.Rename(srcPath, dstPath); err != nil {
		return fmt.Errorf("failed to move document to progress: %w", err)
	}

	s.logger.Info("Document moved to progress", zap.String("filename", filename))
	return nil
}

func (s *contentPort) MoveToFinish(filename string) error {
	srcPath := filepath.Join(s.ProgressPath(), filename)
	dstPath := filepath.Join(s.FinishPath(), filename)

	if err := os.Rename(srcPath, dstPath); err != nil {
		return fmt.Errorf("failed to move document to finish: %w", err)
	}

	s.logger.Info("Document moved to finish", zap.String("filename", filename))
	return nil
}
