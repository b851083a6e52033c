package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/store"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

const defaultPairLimit = 100

type handler struct {
	r   Reader
	log logrus.FieldLogger
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

func (h *handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	respondError(c, http.StatusInternalServerError, "internal", err)
}

func (h *handler) listCalls(c *gin.Context) {
	calls, err := h.r.Calls(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, calls)
}

func (h *handler) listUtterances(c *gin.Context) {
	section := transcript.Section(c.Query("section"))
	switch section {
	case "", transcript.SectionPrepared, transcript.SectionQA:
	default:
		respondError(c, http.StatusBadRequest, "bad_section", fmt.Errorf("unknown section %q", section))
		return
	}
	utts, err := h.r.Utterances(c.Request.Context(), c.Param("call_id"), section)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, utts)
}

func (h *handler) listPairs(c *gin.Context) {
	limit := defaultPairLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "bad_limit", fmt.Errorf("invalid limit %q", s))
			return
		}
		limit = n
	}
	f := store.PairFilter{CallID: c.Query("call_id"), Limit: limit}
	if s := c.Query("role"); s != "" {
		role, ok := transcript.LookupRole(s)
		if !ok {
			respondError(c, http.StatusBadRequest, "bad_role", fmt.Errorf("unknown role %q", s))
			return
		}
		f.Role = role
	}
	pairs, err := h.r.Pairs(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pairs)
}

func (h *handler) stats(c *gin.Context) {
	st, err := h.r.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
