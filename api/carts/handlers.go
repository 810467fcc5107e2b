package carts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/factorysim/core/cartstatus"
	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCommandError maps a rejected command onto an HTTP status.
func writeCommandError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dispatch.ErrMissingSelection), errors.Is(err, dispatch.ErrInvalidCoordinate):
		status = http.StatusBadRequest
	case errors.Is(err, dispatch.ErrUnknownCart):
		status = http.StatusNotFound
	case errors.Is(err, dispatch.ErrCartBusy), errors.Is(err, dispatch.ErrNoAvailableCart):
		status = http.StatusConflict
	case errors.Is(err, dispatch.ErrEmptyCatalog):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "reason": dispatch.Reason(err)})
}

// viewport reads ?width=&height=. ok is false when either is missing.
func (s *Server) viewport(r *http.Request) (model.Viewport, bool, error) {
	ws, hs := r.URL.Query().Get("width"), r.URL.Query().Get("height")
	if ws == "" || hs == "" {
		return model.Viewport{}, false, nil
	}
	width, err := strconv.ParseFloat(ws, 64)
	if err != nil || width <= 0 {
		return model.Viewport{}, false, errors.New("width must be a positive number")
	}
	height, err := strconv.ParseFloat(hs, 64)
	if err != nil || height <= 0 {
		return model.Viewport{}, false, errors.New("height must be a positive number")
	}
	return model.Viewport{Width: width, Height: height, GridSize: s.opts.GridSize}, true, nil
}

// cartView decorates a cart with derived fields for dashboards.
type cartView struct {
	model.Cart
	Info              string              `json:"info"`
	RemainingDistance float64             `json:"remaining_distance"`
	View              *model.GridPosition `json:"view,omitempty"`
}

func newCartView(c model.Cart, vp model.Viewport, withView bool) cartView {
	v := cartView{Cart: c, Info: c.String(), RemainingDistance: c.RemainingDistance()}
	if withView {
		p := vp.ToView(c.Position)
		v.View = &p
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctl.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": snap.Tick})
}

func (s *Server) handleCarts(w http.ResponseWriter, r *http.Request) {
	vp, withView, err := s.viewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.ctl.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	out := make([]cartView, 0, len(snap.Carts))
	for _, c := range snap.Carts {
		out = append(out, newCartView(c, vp, withView))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	vp, withView, err := s.viewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.ctl.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	c, ok := snap.Cart(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown cart")
		return
	}
	writeJSON(w, http.StatusOK, newCartView(c, vp, withView))
}

func (s *Server) handleCartStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Status == nil {
		writeError(w, http.StatusNotFound, "status store disabled")
		return
	}
	list, err := s.opts.Status.List(r.Context(), cartstatus.Filter{Status: r.URL.Query().Get("status")})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	del, err := s.ctl.DeployCart(r.Context())
	if err != nil {
		if del.ID != 0 {
			writeJSON(w, http.StatusAccepted, map[string]any{"delivery": del, "error": err.Error(), "reason": dispatch.Reason(err)})
			return
		}
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, del)
}

func (s *Server) handleDeployAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.ctl.DeployAllCarts(r.Context())
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deployed": n})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	n, err := s.ctl.RecallAllCarts(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recalled": n})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.ResetCarts(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commandRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// handleCommand moves a cart to {x, y}. With ?width=&height= the
// coordinates are read in view space and converted to the grid.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	vp, withView, err := s.viewport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if withView && req.X != nil && req.Y != nil {
		p := vp.ToGrid(model.Pos(*req.X, *req.Y))
		req.X, req.Y = &p.X, &p.Y
	}
	cmd := dispatch.GridCommand{CartID: chi.URLParam(r, "id"), X: req.X, Y: req.Y}
	if err := s.ctl.SendGridCommand(r.Context(), cmd); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, cmd)
}

func (s *Server) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	var pending, history []model.Delivery
	err := s.ctl.Exec(r.Context(), func(e *engine.Engine) error {
		pending = e.Dispatcher().Pending()
		history = e.Dispatcher().History()
		return nil
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Delivery{"pending": pending, "history": history})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctl.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Active)
}

type equipmentView struct {
	model.Equipment
	Efficiency float64 `json:"efficiency"`
}

func (s *Server) handleEquipment(w http.ResponseWriter, r *http.Request) {
	items := s.equip.Equipment()
	out := make([]equipmentView, 0, len(items))
	for _, e := range items {
		out = append(out, equipmentView{Equipment: e, Efficiency: s.equip.Efficiency(e.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

type workshopView struct {
	model.WorkshopTotal
	Efficiency float64 `json:"efficiency"`
}

func (s *Server) handleWorkshops(w http.ResponseWriter, r *http.Request) {
	totals := s.equip.WorkshopTotals()
	out := make([]workshopView, 0, len(totals))
	for _, t := range totals {
		out = append(out, workshopView{WorkshopTotal: t, Efficiency: s.equip.WorkshopEfficiency(t.Name)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProduction(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctl.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Production)
}

func (s *Server) handleProductionAction(w http.ResponseWriter, r *http.Request) {
	var (
		changed bool
		err     error
	)
	switch chi.URLParam(r, "action") {
	case "start":
		changed, err = s.ctl.SetProduction(r.Context(), true)
	case "stop":
		changed, err = s.ctl.SetProduction(r.Context(), false)
	case "reset":
		changed, err = true, s.ctl.ResetProduction(r.Context())
	default:
		writeError(w, http.StatusNotFound, "unknown production action")
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}
