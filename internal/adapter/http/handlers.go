package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/pipeline"
	"github.com/couchcryptid/airquality-ingest-service/internal/query"
)

var errBadRequest = errors.New("bad request")

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.services.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	opts, err := uploadOptions(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		s.writeError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	id, err := s.services.Ingester.Start(data, opts)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ingestionId": id})
}

func (s *Server) handleProgress(c *gin.Context) {
	sub, err := s.services.Ingester.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	states := sub.C()
	c.Stream(func(io.Writer) bool {
		state, ok := <-states
		if !ok {
			if err := sub.Err(); err != nil && c.Request.Context().Err() == nil {
				c.SSEvent("error", gin.H{"error": err.Error()})
			}
			return false
		}
		c.SSEvent("message", state)
		return true
	})
}

func (s *Server) handleSeries(c *gin.Context) {
	start, err := optionalDate(c, "start")
	if err != nil {
		s.writeError(c, err)
		return
	}
	end, err := optionalDate(c, "end")
	if err != nil {
		s.writeError(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	points, err := s.services.Querier.SeriesForParameter(c.Request.Context(), query.SeriesRequest{
		Parameter: c.Query("parameter"),
		Start:     start,
		End:       end,
		Page:      page,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) handleDateRange(c *gin.Context) {
	start, err := optionalDate(c, "start")
	if err != nil {
		s.writeError(c, err)
		return
	}
	end, err := optionalDate(c, "end")
	if err != nil {
		s.writeError(c, err)
		return
	}
	if start == nil || end == nil {
		s.writeError(c, fmt.Errorf("%w: start and end are required", domain.ErrInvalidRange))
		return
	}
	page, err := pageParams(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	rows, err := s.services.Querier.AllParametersForRange(c.Request.Context(), query.RangeRequest{
		Start: *start,
		End:   *end,
		Page:  page,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrInvalidSeparator),
		errors.Is(err, domain.ErrInvalidChunkSize):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func uploadOptions(c *gin.Context) (pipeline.Options, error) {
	var opts pipeline.Options
	if raw := c.PostForm("separator"); raw != "" {
		sep, err := pipeline.ParseSeparator(raw)
		if err != nil {
			return opts, err
		}
		opts.Separator = sep
	}
	if raw := c.PostForm("chunkSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("%w: %q", domain.ErrInvalidChunkSize, raw)
		}
		opts.ChunkSize = n
	}
	return opts, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// optionalDate reads a date query parameter. Bare dates are midnight UTC.
func optionalDate(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s=%q is not a date", errBadRequest, key, raw)
}

func pageParams(c *gin.Context) (query.Page, error) {
	var page query.Page
	var err error
	if page.Number, err = intParam(c, "page"); err != nil {
		return page, err
	}
	if page.Size, err = intParam(c, "limit"); err != nil {
		return page, err
	}
	return page, nil
}

func intParam(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", errBadRequest, key, raw)
	}
	return n, nil
}
