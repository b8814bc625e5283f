package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

type DashboardController struct {
	base
	stats *services.DashboardService
}

func NewDashboardController(v *view.Renderer, stats *services.DashboardService) *DashboardController {
	return &DashboardController{base: base{view: v}, stats: stats}
}

// Show renders the landing page with row counts.
func (c *DashboardController) Show(w http.ResponseWriter, r *http.Request) {
	st, err := c.stats.Stats(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	c.view.Negotiate(w, r, "dashboard.html", view.Data{
		"Title":      "Dashboard",
		"Stats":      st,
		"Attributes": repositories.Attributes(),
	}, st)
}
