// Package storage keeps uploaded resumes and hands out the stable URI that
// applications refer to.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/resume"
)

// FileURIPrefix is the route that serves stored files.
const FileURIPrefix = "/api/v1/file/"

const resumeObjectPrefix = "resumes"

// ErrFileNotFound is returned when a URI or id does not match a stored file.
var ErrFileNotFound = errors.New("file not found")

// ResumeStorage persists resume bytes.
type ResumeStorage interface {
	Save(ctx context.Context, f resume.File) (string, error)
	Delete(ctx context.Context, uri string) error
}

// DBResumeStorage records every resume as a model.File row. The bytes are
// kept inline unless an ObjectStore is configured.
type DBResumeStorage struct {
	DB      *gorm.DB
	Objects ObjectStore
}

// NewDBResumeStorage creates a resume storage. objects may be nil.
func NewDBResumeStorage(db *gorm.DB, objects ObjectStore) *DBResumeStorage {
	return &DBResumeStorage{DB: db, Objects: objects}
}

// Save stores f and returns its URI.
func (s *DBResumeStorage) Save(ctx context.Context, f resume.File) (string, error) {
	if len(f.Data) == 0 {
		return "", errors.New("resume is empty")
	}

	ct, err := resume.ResolveContentType(f)
	if err != nil {
		return "", err
	}
	file := model.File{
		Extension:   resume.ExtensionFor(ct),
		ContentType: ct,
	}

	if err := s.persistFileData(ctx, &file, f.Data); err != nil {
		return "", err
	}

	if err := s.DB.WithContext(ctx).Create(&file).Error; err != nil {
		if file.StorageObjectName != nil {
			if derr := s.Objects.DeleteFile(context.WithoutCancel(ctx), *file.StorageObjectName); derr != nil {
				log.Printf("storage: failed to delete orphaned object %s: %v", *file.StorageObjectName, derr)
			}
		}
		return "", fmt.Errorf("failed to record file: %w", err)
	}
	return URIFor(file.ID), nil
}

func (s *DBResumeStorage) persistFileData(ctx context.Context, file *model.File, data []byte) error {
	if s.Objects == nil {
		file.Content = data
		file.StorageObjectName = nil
		return nil
	}

	objectName := fmt.Sprintf("%s/%s%s", resumeObjectPrefix, uuid.NewString(), file.Extension)
	if err := s.Objects.UploadFile(ctx, objectName, bytes.NewReader(data)); err != nil {
		return err
	}
	file.StorageObjectName = &objectName
	file.Content = nil
	return nil
}

// Delete removes the file behind uri. Unknown URIs are ignored.
func (s *DBResumeStorage) Delete(ctx context.Context, uri string) error {
	id, err := IDFromURI(uri)
	if err != nil {
		return nil
	}

	var file model.File
	if err := s.DB.WithContext(ctx).First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if file.StorageObjectName != nil && s.Objects != nil {
		if err := s.Objects.DeleteFile(ctx, *file.StorageObjectName); err != nil {
			return err
		}
	}
	return s.DB.WithContext(ctx).Delete(&model.File{}, id).Error
}

// Open returns the file record for id and a reader over its content.
func (s *DBResumeStorage) Open(ctx context.Context, id int) (*model.File, io.ReadCloser, int64, error) {
	var file model.File
	if err := s.DB.WithContext(ctx).First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, 0, ErrFileNotFound
		}
		return nil, nil, 0, err
	}

	if file.StorageObjectName == nil {
		return &file, io.NopCloser(bytes.NewReader(file.Content)), int64(len(file.Content)), nil
	}
	if s.Objects == nil {
		return nil, nil, 0, errors.New("cloud storage is disabled while the requested file is stored remotely")
	}
	rc, size, err := s.Objects.DownloadFile(ctx, *file.StorageObjectName)
	if err != nil {
		return nil, nil, 0, err
	}
	return &file, rc, size, nil
}

// ReadAll loads the whole content of the file behind uri.
func (s *DBResumeStorage) ReadAll(ctx context.Context, uri string) (*model.File, []byte, error) {
	id, err := IDFromURI(uri)
	if err != nil {
		return nil, nil, err
	}
	file, rc, _, err := s.Open(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %d: %w", id, err)
	}
	return file, data, nil
}

// URIFor returns the URI of the file with the given id.
func URIFor(id int) string {
	return FileURIPrefix + strconv.Itoa(id)
}

// IDFromURI extracts the file id from a URI made by URIFor.
func IDFromURI(uri string) (int, error) {
	raw, ok := strings.CutPrefix(uri, FileURIPrefix)
	if !ok {
		return 0, ErrFileNotFound
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, ErrFileNotFound
	}
	return id, nil
}
