package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMetricsRoutes(router gin.IRoutes) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
