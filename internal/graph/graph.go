// Package graph describes the host block graph the gallery reads from.
//
// Two hosts exist: a remote graph behind the datalog query API (package roam)
// and a local sqlite graph imported from markdown notes (package local).
package graph

import (
	"context"
	"errors"
)

// ImageMarker is the substring a block's text must contain to be considered
// by the identifier scan.
const ImageMarker = "!["

var (
	ErrNotFound     = errors.New("block not found")
	ErrUnauthorized = errors.New("graph access unauthorized")
	ErrQuery        = errors.New("graph query failed")
	ErrRateLimited  = errors.New("graph rate limited")
)

// BlockStamp is one row of the identifier scan. CreatedAt is unix millis,
// 0 when the host has no creation time for the block.
type BlockStamp struct {
	UID       string
	CreatedAt int64
}

// Block is a hydrated block: its own text and the title of its page.
type Block struct {
	UID       string
	Text      string
	PageTitle string
	CreatedAt *int64
}

// Neighborhood is the text surrounding a block.
type Neighborhood struct {
	ParentText   string
	ChildrenText []string
	SiblingsText []string
}

// Querier is the read side of the host.
type Querier interface {
	ScanImageBlocks(ctx context.Context) ([]BlockStamp, error)
	Block(ctx context.Context, uid string) (Block, error)
	Neighborhood(ctx context.Context, uid string) (Neighborhood, error)
}

// Navigator brings a block into focus. SourceURL returns where the caller
// should send the user to see the block.
type Navigator interface {
	SourceURL(ctx context.Context, uid string) (string, error)
}

// Host is a graph that can be both queried and navigated.
type Host interface {
	Querier
	Navigator
}

// Created converts a scan timestamp into a block creation time.
func Created(millis int64) *int64 {
	if millis <= 0 {
		return nil
	}
	v := millis
	return &v
}
