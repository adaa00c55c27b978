package gameday

import (
	"context"
	"fmt"

	"github.com/okian/breakingball/internal/domain/feed"
	"github.com/okian/breakingball/pkg/logger"
)

// Documents are the parsed feeds of one game. A nil element means the
// document was unavailable.
type Documents struct {
	GameID string
	URL    string

	// Linescore is the <game> element of linescore.xml.
	Linescore *feed.Node
	// Boxscore is the <boxscore> element of boxscore.xml.
	Boxscore *feed.Node
	// Innings holds every inning_N.xml document grafted under one
	// <innings> element, in inning order.
	Innings *feed.Node
	// InningFiles is the number of inning documents that parsed.
	InningFiles int
	// Missing lists the document kinds that were unavailable.
	Missing []string
}

// Complete reports whether both summary documents are present.
func (d *Documents) Complete() bool {
	return d != nil && d.Linescore != nil && d.Boxscore != nil
}

// FetchGame retrieves the linescore, the boxscore and every inning document
// of a game. Each document is fetched independently; an unavailable one is
// logged and left nil. The error is non-nil only for a malformed id or a
// cancelled context.
func (c *Client) FetchGame(ctx context.Context, id string) (*Documents, error) {
	gameURL, err := c.codec.EncodeURL(id)
	if err != nil {
		return nil, err
	}
	log := c.log.With(logger.GameID(id))
	docs := &Documents{GameID: id, URL: gameURL}

	ls, err := c.document(ctx, log, gameURL+"linescore.xml", DocLinescore, "game")
	if err != nil {
		return nil, err
	}
	docs.Linescore = ls

	box, err := c.document(ctx, log, gameURL+"boxscore.xml", DocBoxscore, "boxscore")
	if err != nil {
		return nil, err
	}
	docs.Boxscore = box

	urls, err := c.inningURLs(ctx, gameURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn(ctx, "could not list innings", logger.String(logger.KeyURL, gameURL+"inning/"), logger.Error(err))
	}
	var parts []*feed.Node
	for _, u := range urls {
		doc, err := c.document(ctx, log, u, DocInning, "")
		if err != nil {
			return nil, err
		}
		if doc != nil {
			parts = append(parts, doc)
		}
	}
	if len(parts) > 0 {
		docs.Innings = feed.Graft("innings", parts...)
		docs.InningFiles = len(parts)
	}

	if docs.Linescore == nil {
		docs.Missing = append(docs.Missing, DocLinescore)
	}
	if docs.Boxscore == nil {
		docs.Missing = append(docs.Missing, DocBoxscore)
	}
	if docs.Innings == nil {
		docs.Missing = append(docs.Missing, DocInning)
	}
	return docs, nil
}

// document fetches and parses one feed. With root set the element of that
// name is returned, otherwise the document itself. Unavailable documents
// yield nil and no error.
func (c *Client) document(ctx context.Context, log logger.Logger, url, kind, root string) (*feed.Node, error) {
	body, err := c.fetch(ctx, url, kind)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn(ctx, "document unavailable", logger.String("document", kind), logger.String(logger.KeyURL, url), logger.Error(err))
		return nil, nil
	}

	doc, err := feed.Parse(body)
	if err != nil {
		log.Warn(ctx, "document unavailable",
			logger.String("document", kind), logger.String(logger.KeyURL, url),
			logger.Error(fmt.Errorf("%w: %w", ErrDocumentUnavailable, err)))
		return nil, nil
	}
	if root == "" {
		return doc, nil
	}
	n := doc.Find(root)
	if n == nil {
		log.Warn(ctx, "document unavailable",
			logger.String("document", kind), logger.String(logger.KeyURL, url),
			logger.String("reason", "no <"+root+"> element"))
	}
	return n, nil
}
