package handlers

import (
	"time"

	"medialib/internal/database"
	"medialib/internal/mediainfo"
	"medialib/internal/thumbnail"
)

type Handlers struct {
	db        *database.Database
	metaCache *mediainfo.Cache
	thumbGen  *thumbnail.Generator
	startTime time.Time
}

func New(db *database.Database, metaCache *mediainfo.Cache, thumbGen *thumbnail.Generator) *Handlers {
	return &Handlers{
		db:        db,
		metaCache: metaCache,
		thumbGen:  thumbGen,
		startTime: time.Now(),
	}
}
