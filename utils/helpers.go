package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt reads a positive integer query parameter, falling back to def
// when it is missing or invalid
func QueryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// TotalPages returns the number of pages needed for total items
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
