// Package api serves stored calls, utterances and QA pairs over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/store"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

// Reader is the read side of the record store.
type Reader interface {
	Calls(ctx context.Context) ([]store.Call, error)
	Utterances(ctx context.Context, callID string, section transcript.Section) ([]features.ScoredUtterance, error)
	Pairs(ctx context.Context, f store.PairFilter) ([]features.QAPair, error)
	Stats(ctx context.Context) (*store.Stats, error)
}

func NewRouter(r Reader, log logrus.FieldLogger) *gin.Engine {
	h := &handler{r: r, log: log}

	e := gin.New()
	e.Use(gin.Recovery(), requestLogger(log))

	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g := e.Group("/api")
	{
		g.GET("/calls", h.listCalls)
		g.GET("/calls/:call_id/utterances", h.listUtterances)
		g.GET("/pairs", h.listPairs)
		g.GET("/stats", h.stats)
	}
	return e
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}
