package backend

import (
	"fmt"

	"breakeven/internal/config"
	"breakeven/internal/core"
	"breakeven/internal/report"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	format, err := appConfig.CurrencyFormat()
	if err != nil {
		return Config{}, fmt.Errorf("currency format: %w", err)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Mailer:      MailerType(appConfig.Mailer),
		MailerDelay: appConfig.MailerDelay,

		Renderer:        report.NewRenderer(core.NewFormatter(format)),
		ReportCacheSize: appConfig.ReportCacheSize,
		ReportCacheTTL:  appConfig.ReportCacheTTL,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.Mailer != "" && !c.Mailer.IsValid() {
		return fmt.Errorf("invalid mailer type: %s", c.Mailer)
	}
	if c.Mailer == QueueMailer && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required for queue mailer")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
