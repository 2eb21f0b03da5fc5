// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stalker

import (
	"context"
	"fmt"

	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/ManuGH/stalker2m3u/internal/metrics"
)

// FetchCatalog walks get_ordered_list from page 1 until the portal returns an
// empty page or a page shorter than its advertised size. A full final page
// therefore costs one extra request.
//
// On a page error the channels gathered so far are returned together with a
// *PartialCatalogError.
func (c *Client) FetchCatalog(ctx context.Context, token string) (Catalog, error) {
	if c.State() == StateFailed {
		return Catalog{}, &PartialCatalogError{Page: 1, Cause: ErrSessionFailed}
	}
	c.transition(StateCatalogFetching)

	catalog := Catalog{}
	for page := 1; ; page++ {
		if page > c.maxPages {
			cause := &ProtocolError{
				Action: ActionOrderedList,
				Err:    fmt.Errorf("%w (%d)", ErrTooManyPages, c.maxPages),
			}
			return catalog, c.failCatalog(page, len(catalog), cause)
		}

		p, err := c.FetchCatalogPage(ctx, token, page)
		if err != nil {
			return catalog, c.failCatalog(page, len(catalog), err)
		}
		metrics.IncCatalogPage()

		if len(p.Items) == 0 {
			break
		}
		catalog = append(catalog, p.Items...)
		c.logger.Debug().
			Str(xglog.FieldEvent, "catalog.page").
			Int(xglog.FieldPage, page).
			Int(xglog.FieldItems, len(p.Items)).
			Int(xglog.FieldPageSize, p.MaxPageItems).
			Int(xglog.FieldTotal, len(catalog)).
			Msg("catalog page received")

		if len(p.Items) < p.MaxPageItems {
			break
		}
	}

	c.transition(StateReady)
	c.logger.Info().
		Str(xglog.FieldEvent, "catalog.complete").
		Int(xglog.FieldTotal, len(catalog)).
		Msg("catalog retrieved")
	return catalog, nil
}

func (c *Client) failCatalog(page, retrieved int, cause error) error {
	c.transition(StateFailed)
	metrics.IncCatalogPartial()
	c.logger.Warn().Err(cause).
		Str(xglog.FieldEvent, "catalog.partial").
		Int(xglog.FieldPage, page).
		Int(xglog.FieldItems, retrieved).
		Msg("catalog retrieval interrupted")
	return &PartialCatalogError{ItemsRetrieved: retrieved, Page: page, Cause: cause}
}
