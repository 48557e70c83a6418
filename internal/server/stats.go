package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ClaimStats(c *gin.Context) {
	oc, ok := requestOrgContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	stats, err := s.claimSvc.Stats(c.Request.Context(), oc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
