package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) messageStatus(c *gin.Context) {
	record, err := s.tracker.Query(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) messageStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"statuses": s.tracker.QueryAll()})
}
