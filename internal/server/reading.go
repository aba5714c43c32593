package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	readingdomain "github.com/smallbiznis/meterbill/internal/reading/domain"
)

// UploadReadings ingests a `;`-delimited readings file for a customer. The
// file arrives as multipart form field `file`; `meter_id` optionally names
// the target meter.
func (s *Server) UploadReadings(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	opened, err := file.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer opened.Close()

	data, err := io.ReadAll(opened)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.readingSvc.Ingest(c.Request.Context(), readingdomain.IngestRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
		MeterID:    strings.TrimSpace(c.PostForm("meter_id")),
		Filename:   file.Filename,
		Data:       data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
