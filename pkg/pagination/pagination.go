// Package pagination parses the page/limit query parameters used by the
// movement ledger and catalog listings. The ledger is append-only, so a
// page/limit pair stays a stable cursor into the history.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds a validated page/limit pair and the derived row offset
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the query string, falling back to the
// defaults and clamping limit into [MinLimit, MaxLimit]
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
