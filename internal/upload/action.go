// Package upload обрабатывает загрузку картинок для новых шагов конвейера.
package upload

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/backend"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository"
	"github.com/RoGogDBD/gtryk-dashboard/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	zlog "github.com/rs/zerolog/log"
)

const (
	msgNoImage     = "No valid image file provided"
	msgSaveFailed  = "Failed to save the file to the server."
	msgAPIFailed   = "Failed to communicate with the API."
	msgUnknownAPI  = "Unknown error"
	msgListFailed  = "Failed to fetch uploaded files."
	fieldImage     = "image"
	fieldName      = "name"
	fieldDescribe  = "description"
	fileMode       = 0o644
	uploadsDirMode = 0o755
)

// Result результат действия формы.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Image   string `json:"image,omitempty"`
}

// ListResult ответ со списком загруженных файлов.
type ListResult struct {
	Success bool     `json:"success"`
	Files   []string `json:"files"`
	Error   string   `json:"error,omitempty"`
}

// StepCreator создает определения шагов в бэкенде.
type StepCreator interface {
	CreateStatusDefinition(ctx context.Context, req backend.StatusDefinitionRequest) error
	CreateStatusDefinitionLegacy(ctx context.Context, req backend.StatusDefinitionRequest) error
}

// EventPublisher публикует событие о созданном шаге.
type EventPublisher interface {
	PublishStepCreated(ctx context.Context, ev models.StepDefinitionCreated) error
}

type uploadInput struct {
	FileName    string `validate:"required,safe_filename,max=255"`
	Name        string `validate:"notblank,max=200"`
	Description string `validate:"notblank,max=2000"`
}

// Service действия загрузки.
type Service struct {
	creator      StepCreator
	dir          string
	publicPrefix string

	ledger    repository.UploadStore
	publisher EventPublisher

	validate *validator.Validate
	policy   *bluemonday.Policy
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithLedger включает запись загрузок в журнал.
func WithLedger(store repository.UploadStore) Option {
	return func(s *Service) { s.ledger = store }
}

// WithPublisher включает публикацию событий.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock подменяет источник времени для префикса имени файла.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(creator StepCreator, dir, publicPrefix string, opts ...Option) *Service {
	s := &Service{
		creator:      creator,
		dir:          dir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		validate:     validation.New(),
		policy:       bluemonday.StrictPolicy(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload сохраняет картинку под именем с префиксом-временем и создает шаг
// через /api/create-status-definition.
func (s *Service) Upload(ctx context.Context, form *multipart.Form) Result {
	header := imageHeader(form)
	if header == nil {
		return Result{Error: msgNoImage}
	}

	in := uploadInput{
		FileName:    filepath.Base(header.Filename),
		Name:        s.clean(formValue(form, fieldName)),
		Description: s.clean(formValue(form, fieldDescribe)),
	}
	if err := s.validate.Struct(in); err != nil {
		return Result{Error: validation.Message(err)}
	}

	storedName := fmt.Sprintf("%d_%s", s.now().UnixMilli(), in.FileName)
	size, err := s.writeFile(header, storedName)
	if err != nil {
		zlog.Error().Err(err).Str("file", storedName).Msg("File save error")
		return Result{Error: msgSaveFailed}
	}

	imagePath := s.publicPrefix + "/" + storedName
	req := backend.StatusDefinitionRequest{Name: in.Name, Description: in.Description, Image: imagePath}
	if err := s.creator.CreateStatusDefinition(ctx, req); err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) {
			msg := se.Message
			if msg == "" {
				msg = msgUnknownAPI
			}
			return Result{Error: "API error: " + msg}
		}
		zlog.Error().Err(err).Msg("API request error")
		return Result{Error: msgAPIFailed}
	}

	s.afterUpload(ctx, models.Upload{
		FileName:    storedName,
		ImagePath:   imagePath,
		StepName:    in.Name,
		Description: in.Description,
		SizeBytes:   size,
	})
	return Result{Success: true, Image: imagePath}
}

// LegacyUpload старое действие страницы about: файл сохраняется под исходным
// именем, шаг создается через /api/status-definitions, ответ бэкенда не проверяется.
func (s *Service) LegacyUpload(ctx context.Context, form *multipart.Form) Result {
	header := imageHeader(form)
	if header == nil {
		return Result{}
	}
	name := filepath.Base(header.Filename)
	if err := s.validate.Var(name, "required,safe_filename"); err != nil {
		return Result{}
	}

	if _, err := s.writeFile(header, name); err != nil {
		zlog.Error().Err(err).Str("file", name).Msg("File save error")
		return Result{Error: msgSaveFailed}
	}

	imagePath := s.publicPrefix + "/" + name
	req := backend.StatusDefinitionRequest{
		Name:        s.clean(formValue(form, fieldName)),
		Description: s.clean(formValue(form, fieldDescribe)),
		Image:       imagePath,
	}
	if err := s.creator.CreateStatusDefinitionLegacy(ctx, req); err != nil {
		var se *backend.StatusError
		if !errors.As(err, &se) {
			zlog.Error().Err(err).Msg("API request error")
			return Result{Error: msgAPIFailed}
		}
		zlog.Warn().Err(err).Msg("legacy status definition rejected by backend")
	}
	return Result{Success: true, Image: imagePath}
}

// ListUploads возвращает имена файлов в каталоге загрузок.
func (s *Service) ListUploads(_ context.Context) ListResult {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		zlog.Error().Err(err).Str("dir", s.dir).Msg("Error fetching uploads")
		return ListResult{Error: msgListFailed}
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	return ListResult{Success: true, Files: files}
}

// Dir каталог, в который пишутся файлы.
func (s *Service) Dir() string {
	return s.dir
}

func (s *Service) writeFile(header *multipart.FileHeader, name string) (int64, error) {
	src, err := header.Open()
	if err != nil {
		return 0, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.dir, uploadsDirMode); err != nil {
		return 0, fmt.Errorf("create uploads dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write file: %w", err)
	}
	return n, nil
}

// afterUpload пишет журнал и событие. Ошибки не влияют на результат загрузки.
func (s *Service) afterUpload(ctx context.Context, u models.Upload) {
	u.ID = uuid.NewString()
	u.CreatedAt = s.now().UTC()

	if s.ledger != nil {
		if err := s.ledger.InsertUpload(ctx, &u); err != nil {
			zlog.Warn().Err(err).Str("file", u.FileName).Msg("failed to record upload")
		}
	}
	if s.publisher != nil {
		ev := models.StepDefinitionCreated{
			EventID:     u.ID,
			Name:        u.StepName,
			Description: u.Description,
			Image:       u.ImagePath,
			FileName:    u.FileName,
			SizeBytes:   u.SizeBytes,
			CreatedAt:   u.CreatedAt,
		}
		if err := s.publisher.PublishStepCreated(ctx, ev); err != nil {
			zlog.Warn().Err(err).Str("event_id", ev.EventID).Msg("failed to publish step event")
		}
	}
}

// clean убирает HTML-разметку, оставляя обычный текст.
func (s *Service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func imageHeader(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[fieldImage]
	if len(files) == 0 || files[0] == nil {
		return nil
	}
	h := files[0]
	if h.Filename == "" || h.Size == 0 {
		return nil
	}
	return h
}

func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
