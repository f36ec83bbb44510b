package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const maxDocumentSize = 8 << 20 // 8MB

type putDocumentRequest struct {
	ProjectRoot string          `json:"projectRoot"`
	Content     json.RawMessage `json:"content"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	root, ok := projectRoot(c, c.Query("projectRoot"))
	if !ok {
		return
	}

	data, err := s.store.Load(c.Request.Context(), root)
	if err != nil {
		s.logger.Printf("web: load %s: %v", root, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	var content any
	if data != nil {
		content = json.RawMessage(data)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"content": content},
	})
}

func (s *Server) handlePutDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentSize)

	var req putDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	root, ok := projectRoot(c, req.ProjectRoot)
	if !ok {
		return
	}

	content, ok := documentContent(req.Content)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "content must be a JSON object",
		})
		return
	}

	if err := s.store.Save(c.Request.Context(), root, content); err != nil {
		s.logger.Printf("web: save %s: %v", root, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// projectRoot validates the projectRoot parameter, writing a 400 when it is
// missing or relative.
func projectRoot(c *gin.Context, raw string) (string, bool) {
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "projectRoot is required",
		})
		return "", false
	}
	if !filepath.IsAbs(raw) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "projectRoot must be an absolute path",
		})
		return "", false
	}
	return filepath.Clean(raw), true
}

// documentContent accepts the document either inline as a JSON object or as
// a string holding the JSON text, and returns it indented.
func documentContent(raw json.RawMessage) ([]byte, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, false
		}
		trimmed = bytes.TrimSpace([]byte(text))
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return nil, false
	}
	return out.Bytes(), true
}
