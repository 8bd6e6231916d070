package app

import (
	"fmt"
	"io"

	"github.com/samvad-hq/staffdesk-client/internal/config"
	"github.com/samvad-hq/staffdesk-client/internal/credentials"
	"github.com/samvad-hq/staffdesk-client/internal/employees"
	"github.com/samvad-hq/staffdesk-client/internal/logger"
	"github.com/samvad-hq/staffdesk-client/pkg/httpclient"
)

// App wires the credential store, the authenticated client and the employee
// service. It is built once per process and closed on exit.
type App struct {
	cfg       *config.Config
	store     credentials.Store
	client    *httpclient.Client
	employees *employees.Service
	log       logger.Logger
	out       io.Writer
}

// New builds the application runtime from config.
func New(cfg *config.Config, log logger.Logger, out io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	store, err := credentials.NewStore(cfg.CredentialStore, cfg.CredentialPath)
	if err != nil {
		return nil, fmt.Errorf("init credential store: %w", err)
	}

	a, err := newWithStore(cfg, log, out, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func newWithStore(cfg *config.Config, log logger.Logger, out io.Writer, store credentials.Store) (*App, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	if out == nil {
		out = io.Discard
	}

	client, err := httpclient.New(httpclient.ClientConfig{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.APITimeout,
		Headers:       httpclient.DefaultHeaders(),
		CredentialKey: cfg.CredentialKey,
		AuthScheme:    cfg.AuthScheme,
	}, store, log)
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}

	clientCfg := client.Config()
	log.DebugObj("http client initialized", "client_config", map[string]any{
		"base_url":         clientCfg.BaseURL,
		"timeout_ms":       clientCfg.Timeout.Milliseconds(),
		"credential_store": cfg.CredentialStore,
		"credential_key":   clientCfg.CredentialKey,
	})

	return &App{
		cfg:       cfg,
		store:     store,
		client:    client,
		employees: employees.NewService(client, log),
		log:       log,
		out:       out,
	}, nil
}

// Close releases the credential store, logging any errors encountered.
func (a *App) Close() {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.ErrorObj("credential store close failed", "error", err)
	}
}
