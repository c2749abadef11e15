// Package scrape defines the boundary to the external scraping layer. The
// browser automation, logins and MFA flows live outside this repository; the
// engine only consumes the batches a Source hands over.
package scrape

import (
	"context"

	"github.com/orhss/finagg/internal/models"
)

// Source is one configured provider connection.
type Source interface {
	// Institution names the provider, e.g. "max", "isracard", "migdal".
	Institution() string
	// SyncType labels the run in the audit log, e.g. "credit_card".
	SyncType() string
	// Fetch scrapes the provider and returns one batch per account. It may
	// block and retry internally; a returned error aborts the sync before
	// any database work starts.
	Fetch(ctx context.Context) ([]models.AccountBatch, error)
}
