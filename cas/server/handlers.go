package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/rulekit/cas"
	"github.com/kbukum/rulekit/digest"
	apperrors "github.com/kbukum/rulekit/errors"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/provider"
	"github.com/kbukum/rulekit/version"
)

// MapSummary describes a stored provider map without its payloads.
type MapSummary struct {
	Digest    cas.Digest     `json:"digest"`
	Count     int            `json:"count"`
	Size      int            `json:"size"`
	Providers []ProviderInfo `json:"providers"`
}

// ProviderInfo is one record of a MapSummary.
type ProviderInfo struct {
	TypeID provider.TypeID `json:"type_id"`
	Size   int             `json:"size"`
}

// Summarize builds the summary of pm stored under d.
func Summarize(d cas.Digest, pm *provider.Map) MapSummary {
	records := pm.Records()
	s := MapSummary{Digest: d, Count: len(records), Size: pm.Size(), Providers: make([]ProviderInfo, 0, len(records))}
	for _, r := range records {
		s.Providers = append(s.Providers, ProviderInfo{TypeID: r.ID(), Size: r.Size()})
	}
	return s
}

func (s *Server) routes() {
	blobs := s.engine.Group(cas.BlobPath)
	blobs.PUT("", s.putBlob)
	blobs.GET("/:digest", s.getBlob)
	blobs.HEAD("/:digest", s.headBlob)
	blobs.DELETE("/:digest", s.deleteBlob)

	actions := s.engine.Group(cas.ActionPath)
	actions.GET("/:digest", s.getAction)
	actions.PUT("/:digest", s.putAction)

	s.engine.GET("/v1/maps/:digest", s.getMap)
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/version", s.version)
}

// digestParam parses the :digest path parameter, responding 400 on failure.
func digestParam(c *gin.Context) (cas.Digest, bool) {
	d, err := digest.Parse(c.Param("digest"))
	if err != nil {
		appErr := apperrors.InvalidFormat("digest", "64 hex characters")
		if c.Request.Method == http.MethodHead {
			c.AbortWithStatus(appErr.HTTPStatus)
		} else {
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
		}
		return cas.Digest{}, false
	}
	return d, true
}

func (s *Server) putBlob(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBlobBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		respondError(c, err, "blob", cas.Digest{})
		return
	}
	d, err := s.backend.Put(c.Request.Context(), data)
	if err != nil {
		respondError(c, err, "blob", d)
		return
	}
	c.JSON(http.StatusCreated, cas.PutResponse{Digest: d, Size: len(data)})
}

func (s *Server) getBlob(c *gin.Context) {
	d, ok := digestParam(c)
	if !ok {
		return
	}
	data, err := s.backend.Get(c.Request.Context(), d)
	if err != nil {
		respondError(c, err, "blob", d)
		return
	}
	c.Header("X-Content-Digest", d.String())
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) headBlob(c *gin.Context) {
	d, ok := digestParam(c)
	if !ok {
		return
	}
	found, err := s.backend.Contains(c.Request.Context(), d)
	if err != nil {
		respondError(c, err, "blob", d)
		return
	}
	if !found {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) deleteBlob(c *gin.Context) {
	d, ok := digestParam(c)
	if !ok {
		return
	}
	if err := s.backend.Delete(c.Request.Context(), d); err != nil {
		respondError(c, err, "blob", d)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getAction(c *gin.Context) {
	key, ok := digestParam(c)
	if !ok {
		return
	}
	result, err := s.backend.GetAction(c.Request.Context(), key)
	if err != nil {
		respondError(c, err, "action", key)
		return
	}
	c.JSON(http.StatusOK, cas.ActionResponse{Result: result})
}

func (s *Server) putAction(c *gin.Context) {
	key, ok := digestParam(c)
	if !ok {
		return
	}
	var req cas.ActionResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.InvalidInput("result", err.Error())
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	if err := s.backend.PutAction(c.Request.Context(), key, req.Result); err != nil {
		respondError(c, err, "action", key)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getMap(c *gin.Context) {
	d, ok := digestParam(c)
	if !ok {
		return
	}
	pm, err := cas.NewMapStore(s.backend).GetMap(c.Request.Context(), d)
	if err != nil {
		respondError(c, err, "map", d)
		return
	}
	c.JSON(http.StatusOK, Summarize(d, pm))
}

func (s *Server) health(c *gin.Context) {
	h := observability.NewServiceHealth(ServiceName, version.GetShortVersion())
	if hc, ok := s.backend.(observability.HealthChecker); ok {
		h.Check(c.Request.Context(), hc)
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(h.HTTPStatus(), h)
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetVersionInfo())
}
