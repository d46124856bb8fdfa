package services

import (
	"math"
	"strconv"
)

// PageConfig controls how list endpoints slice their results.
type PageConfig struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPageConfig is used by list endpoints unless configured otherwise.
var DefaultPageConfig = PageConfig{DefaultSize: 25, MaxSize: 500}

// Page is a pagination envelope around one slice of results.
type Page[T any] struct {
	Data        []T  `json:"data"`
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginate slices items according to query parameters. Both page/size and
// offset/limit styles are accepted; offset/limit wins when offset is given.
func Paginate[T any](items []T, cfg PageConfig, qp map[string]string) Page[T] {
	totalItems := len(items)
	offset, limit := resolveSliceBounds(cfg, qp)

	// Clamp offset and end.
	offset = max(0, min(offset, totalItems))
	end := offset + min(limit, totalItems-offset)

	sliced := items[offset:end]
	if sliced == nil {
		sliced = []T{}
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))
	if totalPages == 0 {
		totalPages = 1
	}

	return Page[T]{
		Data:        sliced,
		Page:        (offset / limit) + 1,
		Size:        limit,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     end < totalItems,
		HasPrevious: offset > 0,
	}
}

// resolveSliceBounds extracts offset and limit from query parameters.
func resolveSliceBounds(cfg PageConfig, qp map[string]string) (offset, limit int) {
	limit = cfg.DefaultSize

	if v, ok := qp["offset"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
		if v, ok := qp["limit"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
	} else {
		page := 1
		if v, ok := qp["page"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 1 {
				page = n
			}
		}
		if v, ok := qp["size"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		limit = clampLimit(cfg, limit)
		offset = pageOffset(page, limit)
	}

	return offset, clampLimit(cfg, limit)
}

// pageOffset returns (page-1)*limit, saturating at math.MaxInt.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func clampLimit(cfg PageConfig, limit int) int {
	if limit > cfg.MaxSize && cfg.MaxSize > 0 {
		limit = cfg.MaxSize
	}
	if limit <= 0 {
		limit = 10
	}
	return limit
}
