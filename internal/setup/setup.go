package setup

import (
	"fmt"

	"github.com/commentable-dev/commentable/internal/captcha"
	"github.com/commentable-dev/commentable/internal/config"
	"github.com/commentable-dev/commentable/internal/handler"
	"github.com/commentable-dev/commentable/internal/markdown"
	"github.com/commentable-dev/commentable/internal/notifier"
	"github.com/commentable-dev/commentable/internal/service"
	"github.com/commentable-dev/commentable/internal/storage"
	"github.com/commentable-dev/commentable/internal/storage/jsonl"
	"github.com/commentable-dev/commentable/internal/storage/pg"
)

// Dependencies holds all initialized collaborators.
type Dependencies struct {
	Storage storage.Backend
	Handler *handler.Handler

	cleanup func() error
}

// Cleanup releases backend resources; safe to call once at shutdown.
func (d *Dependencies) Cleanup() error {
	if d.cleanup != nil {
		return d.cleanup()
	}
	return nil
}

// SetupDependencies initializes everything the server needs. The storage
// engine is a closed set decided here, once, from configuration.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	engine, err := storage.ParseEngine(cfg.Public.StorageEngine)
	if err != nil {
		return nil, err
	}

	var backend storage.Backend
	cleanup := func() error { return nil }
	switch engine {
	case storage.EngineRelational:
		pgStorage, err := pg.New(cfg.Public.Pg)
		if err != nil {
			return nil, err
		}
		backend = pgStorage
		cleanup = pgStorage.Cleanup
	case storage.EngineAppendLog:
		backend, err = jsonl.New(cfg.Public.CommentsDir)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unhandled storage engine %q", cfg.Public.StorageEngine)
	}

	renderer := markdown.New()
	smtpUser, smtpPass := cfg.SMTPCredentials()
	mail := notifier.New(cfg.Public.Mail, smtpUser, smtpPass, renderer)
	verifier := captcha.New(cfg.RecaptchaSecret())

	comments := service.NewComments(backend, renderer, mail, verifier, cfg.HashSecret(), cfg.Public.ValidAPIKeys)
	h := handler.New(comments)

	return &Dependencies{
		Storage: backend,
		Handler: h,
		cleanup: cleanup,
	}, nil
}
