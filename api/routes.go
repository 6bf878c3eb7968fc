package api

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// Route paths.
const (
	PackagesPath      = "/packages"
	ResolvePath       = "/resolve"
	SearchNamePath    = "/search/name"
	SearchDetailsPath = "/search/details"
	SearchGroupPath   = "/search/group"
	SearchFilePath    = "/search/file"
	DependsPath       = "/depends"
	RequiresPath      = "/requires"
	UpdatesPath       = "/updates"
	DetailsPath       = "/details"
	FilesPath         = "/files"
	UpdateDetailPath  = "/update-detail"
	ReposPath         = "/repos"
	StatusPath        = "/status"
	HealthCheckPath   = "/health"
	MetricsPath       = "/metrics"
)

const repoParam = "repo"

func (a *Api) setRoutes() {
	e := a.ginEngine
	e.GET(PackagesPath, a.getPackagesH)
	e.GET(ResolvePath, a.resolveH)
	e.GET(SearchNamePath, a.searchNameH)
	e.GET(SearchDetailsPath, a.searchDetailsH)
	e.GET(SearchGroupPath, a.searchGroupH)
	e.GET(SearchFilePath, a.searchFileH)
	e.GET(DependsPath, a.getDependsH)
	e.GET(RequiresPath, a.getRequiresH)
	e.GET(UpdatesPath, a.getUpdatesH)
	e.GET(DetailsPath, a.getDetailsH)
	e.GET(FilesPath, a.getFilesH)
	e.GET(UpdateDetailPath, a.getUpdateDetailH)
	e.GET(ReposPath, a.getReposH)
	e.PATCH(ReposPath+"/:"+repoParam, a.patchRepoH)
	e.GET(StatusPath, a.getStatusH)
	e.GET(HealthCheckPath, a.getHealthH)
	e.GET(MetricsPath, a.metricsHandler())
}

// Routes lists the registered routes as method/path pairs sorted by path.
func Routes(e *gin.Engine) [][2]string {
	routes := e.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var rInfo [][2]string
	for _, info := range routes {
		rInfo = append(rInfo, [2]string{info.Method, info.Path})
	}
	return rInfo
}
