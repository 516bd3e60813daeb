package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muurk/klipmi/internal/hmi"
)

// PageInfo describes one page
type PageInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func pageInfo(p hmi.PageIdentity) *PageInfo {
	return &PageInfo{ID: int(p.ID), Name: p.Name}
}

// StateResponse is the body of GET /api/state
type StateResponse struct {
	Page            *PageInfo `json:"page"`
	ReturnPage      *PageInfo `json:"return_page,omitempty"`
	ReturnDepth     int       `json:"return_depth"`
	PrinterState    string    `json:"printer_state"`
	HeaterEdit      string    `json:"heater_edit,omitempty"`
	MoveDistance    float64   `json:"move_distance"`
	ExtrudeDistance float64   `json:"extrude_distance"`
}

// TouchRequest is the body of POST /api/touch. Page defaults to the
// current page.
type TouchRequest struct {
	Page      *int `json:"page"`
	Component int  `json:"component"`
}

// NumericRequest is the body of POST /api/numeric
type NumericRequest struct {
	Component int `json:"component"`
	Value     int `json:"value"`
}

func errorBody(err error) gin.H {
	return gin.H{"error": err.Error()}
}

func (s *Server) handleState(c *gin.Context) {
	var resp StateResponse
	err := s.loop.Do(c.Request.Context(), "api state", func(_ context.Context, e *hmi.Engine) error {
		st := e.State()
		if cur, ok := st.Current(); ok {
			resp.Page = pageInfo(cur)
		}
		if ret, ok := st.ReturnPage(); ok {
			resp.ReturnPage = pageInfo(ret)
		}
		resp.ReturnDepth = st.ReturnDepth()
		resp.PrinterState = st.PrinterState()
		if edit := st.HeaterEdit(); edit != nil {
			resp.HeaterEdit = edit.HeaterKey
		}
		resp.MoveDistance = st.MoveDistance
		resp.ExtrudeDistance = st.ExtrudeDistance
		return nil
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorBody(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePages(c *gin.Context) {
	pages := s.registry.Pages()
	out := make([]PageInfo, 0, len(pages))
	for _, p := range pages {
		out = append(out, *pageInfo(p.Identity()))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTouch(c *gin.Context) {
	var req TouchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}

	err := s.loop.Do(c.Request.Context(), "api touch", func(ctx context.Context, e *hmi.Engine) error {
		page := hmi.PageID(-1)
		if req.Page != nil {
			page = hmi.PageID(*req.Page)
		} else if cur, ok := e.Current(); ok {
			page = cur.ID
		}
		return e.DispatchTouch(ctx, page, req.Component)
	})
	s.respond(c, err)
}

func (s *Server) handleNumeric(c *gin.Context) {
	var req NumericRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}

	err := s.loop.Do(c.Request.Context(), "api numeric", func(ctx context.Context, e *hmi.Engine) error {
		return e.DispatchNumericInput(ctx, req.Component, req.Value)
	})
	s.respond(c, err)
}

func (s *Server) handleChangePage(c *gin.Context) {
	page, err := s.registry.Resolve(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody(err))
		return
	}

	target := page.Identity().ID
	err = s.loop.Do(c.Request.Context(), "api page", func(ctx context.Context, e *hmi.Engine) error {
		return e.ChangePage(ctx, target)
	})
	s.respond(c, err)
}

// respond answers a mutation with the page that is current afterwards
func (s *Server) respond(c *gin.Context, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case hmi.IsUnknownPage(err):
			status = http.StatusNotFound
		case hmi.IsNoCurrentPage(err):
			status = http.StatusConflict
		}
		c.JSON(status, errorBody(err))
		return
	}
	s.handleState(c)
}
