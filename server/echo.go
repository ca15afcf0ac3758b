package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// EchoResponse describes the request the server received.
type EchoResponse struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Proto   string            `json:"proto"`
	Args    map[string]string `json:"args"`
	Headers map[string]string `json:"headers"`
	Data    string            `json:"data"`
	JSON    any               `json:"json"`
}

const defaultChunkSize = 10 * 1024

type echoHandler struct {
	maxN int
}

// RegisterEchoRoutes registers the echo routes on the Gin engine.
func (s *Server) RegisterEchoRoutes() {
	h := &echoHandler{maxN: s.config.MaxStreamN}
	e := s.engine

	e.GET("/get", h.Echo)
	e.HEAD("/get", h.Echo)
	e.POST("/post", h.Echo)
	e.PUT("/put", h.Echo)
	e.PATCH("/patch", h.Echo)
	e.DELETE("/delete", h.Echo)
	e.Any("/anything", h.Echo)
	e.Any("/anything/*path", h.Echo)
	e.GET("/status/:code", h.Status)
	e.GET("/bytes/:n", h.Bytes)
	e.GET("/stream-bytes/:n", h.StreamBytes)
}

// Echo returns an EchoResponse for the request.
func (h *echoHandler) Echo(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondWithError(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	c.JSON(http.StatusOK, newEchoResponse(c.Request, body))
}

func newEchoResponse(r *http.Request, body []byte) EchoResponse {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	args := make(map[string]string)
	for key, values := range r.URL.Query() {
		args[key] = strings.Join(values, ",")
	}
	headers := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}
	headers["Host"] = r.Host

	var parsed any
	if len(body) > 0 && json.Valid(body) {
		_ = json.Unmarshal(body, &parsed)
	}

	return EchoResponse{
		Method:  r.Method,
		URL:     scheme + "://" + r.Host + r.URL.RequestURI(),
		Proto:   r.Proto,
		Args:    args,
		Headers: headers,
		Data:    string(body),
		JSON:    parsed,
	}
}

// Status responds with the requested status code and an empty body.
// Redirect codes point at /get.
func (h *echoHandler) Status(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 100 || code > 599 {
		RespondWithError(c, http.StatusBadRequest, "invalid status code")
		return
	}
	if code >= 300 && code < 400 {
		c.Header("Location", "/get")
	}
	c.Status(code)
}

// Bytes responds with n bytes of a repeating a-z pattern.
func (h *echoHandler) Bytes(c *gin.Context) {
	n, ok := h.parseN(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", Pattern(0, n))
}

// StreamBytes writes n bytes of the same pattern as Bytes in chunks of
// chunk_size, flushing after each one.
func (h *echoHandler) StreamBytes(c *gin.Context) {
	n, ok := h.parseN(c)
	if !ok {
		return
	}
	chunk := defaultChunkSize
	if raw := c.Query("chunk_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			RespondWithError(c, http.StatusBadRequest, "invalid chunk_size")
			return
		}
		chunk = v
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	for off := 0; off < n; off += chunk {
		end := min(off+chunk, n)
		if _, err := c.Writer.Write(Pattern(off, end-off)); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

func (h *echoHandler) parseN(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		RespondWithError(c, http.StatusBadRequest, "invalid byte count")
		return 0, false
	}
	if h.maxN > 0 && n > h.maxN {
		RespondWithError(c, http.StatusBadRequest, "byte count too large")
		return 0, false
	}
	return n, true
}

// Pattern returns n bytes of the repeating a-z pattern starting at offset.
func Pattern(offset, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('a' + (offset+i)%26)
	}
	return out
}
