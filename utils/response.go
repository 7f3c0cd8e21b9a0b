package utils

import (
	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, key string, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		key:    data,
		"meta": PageMeta{Page: page, PerPage: perPage, Total: total},
	})
}
