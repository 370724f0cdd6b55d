package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

const exportPageSize = 500

// ExportService produces settlement register workbooks
type ExportService interface {
	// WriteRegister renders every request of module (optionally filtered by status) to w
	WriteRegister(ctx context.Context, w io.Writer, module entity.Module, status workflow.State) error

	// ArchiveRegister stores the register under the archive directory and returns its relative path
	ArchiveRegister(ctx context.Context, module entity.Module, status workflow.State) (string, error)
}

type exportServiceImpl struct {
	requests port.RequestRepository
	writer   port.RegisterWriter
	storage  port.FileStorage
	logger   Logger
	now      func() time.Time
}

// NewExportService creates a new ExportService. storage may be nil when archiving is disabled.
func NewExportService(requests port.RequestRepository, writer port.RegisterWriter, storage port.FileStorage, logger Logger) ExportService {
	return &exportServiceImpl{
		requests: requests,
		writer:   writer,
		storage:  storage,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *exportServiceImpl) WriteRegister(ctx context.Context, w io.Writer, module entity.Module, status workflow.State) error {
	if !module.IsValid() {
		return fmt.Errorf("%w: unknown module %q", ErrInvalidRequest, module)
	}
	if status != "" && !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}

	reqs, err := s.collect(ctx, module, status)
	if err != nil {
		return err
	}

	if err := s.writer.Write(w, module, reqs); err != nil {
		s.logger.Error("Failed to write register", "error", err, "module", module)
		return fmt.Errorf("write register: %w", err)
	}

	s.logger.Info("Register exported", "module", module, "status", status, "rows", len(reqs))
	return nil
}

func (s *exportServiceImpl) ArchiveRegister(ctx context.Context, module entity.Module, status workflow.State) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("register archive is not configured")
	}

	var buf bytes.Buffer
	if err := s.WriteRegister(ctx, &buf, module, status); err != nil {
		return "", err
	}

	label := "all"
	if status != "" {
		label = strings.ToLower(status.String())
	}
	rel := path.Join("registers", module.Slug(),
		fmt.Sprintf("%s-%s-%s.xlsx", module.Slug(), label, s.now().Format("20060102-150405")))

	if err := s.storage.Save(ctx, rel, buf.Bytes()); err != nil {
		s.logger.Error("Failed to archive register", "error", err, "path", rel)
		return "", fmt.Errorf("save register: %w", err)
	}

	s.logger.Info("Register archived", "path", s.storage.GetFullPath(rel), "bytes", buf.Len())
	return rel, nil
}

func (s *exportServiceImpl) collect(ctx context.Context, module entity.Module, status workflow.State) ([]*entity.Request, error) {
	var all []*entity.Request
	for offset := 0; ; offset += exportPageSize {
		page, err := s.requests.List(ctx, port.RequestFilter{
			Module: module,
			Status: status,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			s.logger.Error("Failed to list requests for export", "error", err, "module", module, "offset", offset)
			return nil, fmt.Errorf("list requests: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}
