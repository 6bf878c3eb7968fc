package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pkresolve/service"
)

type filterQuery struct {
	Filter string `form:"filter"`
}

type resolveQuery struct {
	Filter string   `form:"filter"`
	Names  []string `form:"name"`
}

type searchQuery struct {
	Filter string `form:"filter"`
	Query  string `form:"q"`
}

type groupQuery struct {
	Filter string `form:"filter"`
	Group  string `form:"group" binding:"required"`
}

type walkQuery struct {
	Filter    string   `form:"filter"`
	IDs       []string `form:"id" binding:"required"`
	Recursive bool     `form:"recursive"`
}

type idsQuery struct {
	IDs []string `form:"id" binding:"required"`
}

type repoQuery struct {
	Enabled *bool `form:"enabled" binding:"required"`
}

// runQuery binds the query string into q, runs fn with a fresh result and
// answers with it.
func runQuery[Q any](gc *gin.Context, q *Q, fn func(res *service.Result) error) {
	if err := gc.ShouldBindQuery(q); err != nil {
		_ = gc.Error(&InvalidInputError{Err: err})
		return
	}
	res := service.NewResult()
	if err := fn(res); err != nil {
		_ = gc.Error(err)
		return
	}
	gc.JSON(http.StatusOK, res)
}

func (a *Api) getPackagesH(gc *gin.Context) {
	var q filterQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetPackages(gc.Request.Context(), q.Filter, res)
	})
}

func (a *Api) resolveH(gc *gin.Context) {
	var q resolveQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.Resolve(gc.Request.Context(), q.Filter, q.Names, res)
	})
}

func (a *Api) searchNameH(gc *gin.Context) {
	var q searchQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.SearchName(gc.Request.Context(), q.Filter, q.Query, res)
	})
}

func (a *Api) searchDetailsH(gc *gin.Context) {
	var q searchQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.SearchDetails(gc.Request.Context(), q.Filter, q.Query, res)
	})
}

func (a *Api) searchGroupH(gc *gin.Context) {
	var q groupQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.SearchGroup(gc.Request.Context(), q.Filter, q.Group, res)
	})
}

func (a *Api) searchFileH(gc *gin.Context) {
	var q searchQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.SearchFile(gc.Request.Context(), q.Filter, q.Query, res)
	})
}

func (a *Api) getDependsH(gc *gin.Context) {
	var q walkQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetDepends(gc.Request.Context(), q.Filter, q.IDs, q.Recursive, res)
	})
}

func (a *Api) getRequiresH(gc *gin.Context) {
	var q walkQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetRequires(gc.Request.Context(), q.Filter, q.IDs, q.Recursive, res)
	})
}

func (a *Api) getUpdatesH(gc *gin.Context) {
	var q filterQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetUpdates(gc.Request.Context(), q.Filter, res)
	})
}

func (a *Api) getDetailsH(gc *gin.Context) {
	var q idsQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetDetails(gc.Request.Context(), q.IDs, res)
	})
}

func (a *Api) getFilesH(gc *gin.Context) {
	var q idsQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetFiles(gc.Request.Context(), q.IDs, res)
	})
}

func (a *Api) getUpdateDetailH(gc *gin.Context) {
	var q idsQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetUpdateDetail(gc.Request.Context(), q.IDs, res)
	})
}

func (a *Api) getReposH(gc *gin.Context) {
	var q filterQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.GetRepoList(gc.Request.Context(), q.Filter, res)
	})
}

func (a *Api) patchRepoH(gc *gin.Context) {
	var q repoQuery
	runQuery(gc, &q, func(res *service.Result) error {
		return a.svc.RepoEnable(gc.Request.Context(), gc.Param(repoParam), *q.Enabled, res)
	})
}

func (a *Api) getStatusH(gc *gin.Context) {
	status, err := a.svc.GetStatus()
	if err != nil {
		_ = gc.Error(err)
		return
	}
	gc.JSON(http.StatusOK, status)
}

func (a *Api) getHealthH(gc *gin.Context) {
	if _, err := a.svc.Database().SchemaVersion(); err != nil {
		_ = gc.Error(err)
		return
	}
	gc.Status(http.StatusOK)
}
