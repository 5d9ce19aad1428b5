package scichart

import (
	"sync"
	"time"
)

// Tooltip defaults.
const (
	// DefaultHitRadius is the pixel radius for nearest-mode hits.
	DefaultHitRadius = 20.0

	// DefaultHysteresisRatio gates hit replacement: a new candidate
	// must satisfy newDistSq*ratio < currentDistSq to displace the
	// active hit. Ratio 2 means "at least sqrt(2) times closer".
	DefaultHysteresisRatio = 2.0

	// DefaultXOnlyThreshold switches automatic mode to x-only search
	// once the total visible point count exceeds it.
	DefaultXOnlyThreshold = 50_000

	// DefaultShowDelay debounces tooltip appearance; zero delay is
	// used when another tooltip is already visible.
	DefaultShowDelay = 120 * time.Millisecond

	// DefaultHideDelay debounces disappearance so momentary gaps
	// between points don't flash the tooltip away.
	DefaultHideDelay = 300 * time.Millisecond
)

// SearchMode selects the hit-testing strategy.
type SearchMode uint8

const (
	// ModeAuto picks nearest or x-only from the visible point count.
	ModeAuto SearchMode = iota

	// ModeNearest scores candidates by 2D pixel distance.
	ModeNearest

	// ModeXOnly scores by x-distance alone, ignoring y. Any series
	// with data produces a hit; there is no radius rejection.
	ModeXOnly
)

// TooltipState is the engine's lifecycle state.
type TooltipState uint8

const (
	// StateIdle means the cursor is outside the plot area.
	StateIdle TooltipState = iota

	// StateTracking means the cursor is inside but nothing is hit.
	StateTracking

	// StateShowing means a hit is active and visible.
	StateShowing

	// StateHiding means a hide is scheduled but not yet fired.
	StateHiding
)

func (s TooltipState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StateShowing:
		return "showing"
	case StateHiding:
		return "hiding"
	default:
		return "unknown"
	}
}

// Hit is one resolved data-point hit. It is recomputed per cursor
// event and never persisted beyond the active tooltip.
type Hit struct {
	SeriesID string
	Index    int
	DataX    float64
	DataY    float64
	PixelX   float64
	PixelY   float64
	YError   float64
	HasError bool
	DistSq   float64
}

// HeatmapCell is a heatmap fallback hit.
type HeatmapCell struct {
	SeriesID string
	Col, Row int
	CenterX  float64
	CenterY  float64
	Value    float64
}

// CrosshairValue is one series' interpolated y at the cursor's x.
type CrosshairValue struct {
	SeriesID string
	DataY    float64
	PixelY   float64
}

// TooltipResult carries whichever hit variety resolved. Exactly one
// field is non-nil.
type TooltipResult struct {
	Point     *Hit
	Cell      *HeatmapCell
	Crosshair []CrosshairValue

	// CursorX and CursorY are the pixel coordinates of the triggering
	// event.
	CursorX, CursorY float64
}

// TooltipConfig tunes the engine. Zero values select defaults.
type TooltipConfig struct {
	HitRadius       float64
	HysteresisRatio float64
	XOnlyThreshold  int
	ShowDelay       time.Duration
	HideDelay       time.Duration

	// Mode overrides automatic strategy selection.
	Mode SearchMode

	// Crosshair enables the interpolated-value fallback when no point
	// hit resolves.
	Crosshair bool

	// NoInterpolation makes crosshair mode snap to the nearest sample
	// instead of interpolating between brackets.
	NoInterpolation bool

	// OnShow fires when a tooltip becomes (or stays) visible.
	// OnHide fires when it disappears. Both may be nil.
	OnShow func(TooltipResult)
	OnHide func()
}

func (c *TooltipConfig) applyDefaults() {
	if c.HitRadius <= 0 {
		c.HitRadius = DefaultHitRadius
	}
	if c.HysteresisRatio <= 0 {
		c.HysteresisRatio = DefaultHysteresisRatio
	}
	if c.XOnlyThreshold <= 0 {
		c.XOnlyThreshold = DefaultXOnlyThreshold
	}
	if c.ShowDelay <= 0 {
		c.ShowDelay = DefaultShowDelay
	}
	if c.HideDelay <= 0 {
		c.HideDelay = DefaultHideDelay
	}
}

// TooltipEngine answers "what is under the cursor" over the same
// series arrays the renderer draws. All state lives on the instance;
// timers are cancelled and replaced on every cursor event.
type TooltipEngine struct {
	mu  sync.Mutex
	cfg TooltipConfig

	series   []HitSeries
	xScale   Scale
	yScale   Scale
	yScales  map[string]Scale
	plotArea Rect

	state   TooltipState
	active  *Hit
	visible bool

	showTimer *time.Timer
	hideTimer *time.Timer
}

// NewTooltipEngine builds an engine with the given configuration.
func NewTooltipEngine(cfg TooltipConfig) *TooltipEngine {
	cfg.applyDefaults()
	return &TooltipEngine{
		cfg:     cfg,
		yScales: make(map[string]Scale),
	}
}

// SetSeries replaces the queried series set.
func (e *TooltipEngine) SetSeries(series []HitSeries) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.series = series
}

// SetScales sets the x scale and the default y scale.
func (e *TooltipEngine) SetScales(x, y Scale) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.xScale, e.yScale = x, y
}

// SetYScale registers a per-axis y scale for series with a matching
// YAxisID.
func (e *TooltipEngine) SetYScale(axisID string, s Scale) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.yScales[axisID] = s
}

// SetPlotArea sets the pixel rectangle cursor events are tested
// against.
func (e *TooltipEngine) SetPlotArea(r Rect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plotArea = r
}

// State returns the current lifecycle state.
func (e *TooltipEngine) State() TooltipState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ActiveHit returns a copy of the currently shown hit, if any.
func (e *TooltipEngine) ActiveHit() *Hit {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	h := *e.active
	return &h
}

// Destroy cancels outstanding timers. The engine is unusable after.
func (e *TooltipEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimersLocked()
	e.series = nil
	e.active = nil
	e.state = StateIdle
}

// HandleCursorLeave clears state as if the cursor left the plot area.
func (e *TooltipEngine) HandleCursorLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
	e.scheduleHideLocked()
	e.state = StateIdle
}

// HandleCursorMove is the engine's entry point; call it on every
// cursor event with pixel coordinates. A show callback triggered by
// the event runs after the engine releases its lock, so callbacks may
// call back into the engine.
func (e *TooltipEngine) HandleCursorMove(px, py float64) {
	e.mu.Lock()
	fire := e.cursorMoveLocked(px, py)
	e.mu.Unlock()
	if fire != nil {
		fire()
	}
}

func (e *TooltipEngine) cursorMoveLocked(px, py float64) func() {
	if !e.plotArea.Contains(px, py) {
		e.active = nil
		e.scheduleHideLocked()
		if e.state != StateHiding {
			e.state = StateIdle
		}
		return nil
	}
	if e.state == StateIdle {
		e.state = StateTracking
	}
	if e.xScale == nil || e.yScale == nil {
		return nil
	}

	dataX := e.xScale.Invert(px)

	mode := e.cfg.Mode
	if mode == ModeAuto {
		if e.visiblePointsLocked() > e.cfg.XOnlyThreshold {
			mode = ModeXOnly
		} else {
			mode = ModeNearest
		}
	}

	var candidate *Hit
	switch mode {
	case ModeXOnly:
		candidate = e.searchXOnlyLocked(dataX)
	default:
		candidate = e.searchNearestLocked(px, py, dataX)
	}

	if candidate != nil {
		return e.resolvePointLocked(candidate, px, py)
	}

	if cell := e.searchHeatmapLocked(px, py, dataX); cell != nil {
		e.active = nil
		return e.scheduleShowLocked(TooltipResult{Cell: cell, CursorX: px, CursorY: py})
	}
	if e.cfg.Crosshair {
		if values := e.crosshairLocked(dataX); len(values) > 0 {
			e.active = nil
			return e.scheduleShowLocked(TooltipResult{Crosshair: values, CursorX: px, CursorY: py})
		}
	}

	e.active = nil
	e.scheduleHideLocked()
	return nil
}

// resolvePointLocked applies hysteresis against the active hit and
// schedules the show. The result carries a copy of the hit; the
// engine keeps mutating its own record as the cursor moves.
func (e *TooltipEngine) resolvePointLocked(candidate *Hit, px, py float64) func() {
	if e.active != nil && e.state == StateShowing {
		same := e.active.SeriesID == candidate.SeriesID && e.active.Index == candidate.Index
		if !same && candidate.DistSq*e.cfg.HysteresisRatio >= e.active.DistSq {
			// Candidate is not decisively closer; keep the active hit
			// and refresh its pixel position.
			e.refreshActiveLocked()
			h := *e.active
			return e.scheduleShowLocked(TooltipResult{Point: &h, CursorX: px, CursorY: py})
		}
	}
	e.active = candidate
	h := *candidate
	return e.scheduleShowLocked(TooltipResult{Point: &h, CursorX: px, CursorY: py})
}

// refreshActiveLocked recomputes the active hit's pixel coordinates
// from the current scales (the view may have panned since the hit).
func (e *TooltipEngine) refreshActiveLocked() {
	h := e.active
	h.PixelX = e.xScale.Transform(h.DataX)
	h.PixelY = e.yScaleForLocked(h.SeriesID).Transform(h.DataY)
}

// yScaleForLocked resolves the y scale for a series id.
func (e *TooltipEngine) yScaleForLocked(seriesID string) Scale {
	for _, s := range e.series {
		if s.ID() == seriesID {
			if sc, ok := e.yScales[s.YAxisID()]; ok {
				return sc
			}
			break
		}
	}
	return e.yScale
}

func (e *TooltipEngine) visiblePointsLocked() int {
	total := 0
	for _, s := range e.series {
		if !s.Visible() || s.Kind() == KindHeatmap {
			continue
		}
		xs, _ := s.Data()
		total += len(xs)
	}
	return total
}

// searchNearestLocked scans a small adaptive window around the
// binary-search index of each series, keeping the globally closest
// point within the hit radius.
func (e *TooltipEngine) searchNearestLocked(px, py, dataX float64) *Hit {
	radiusSq := e.cfg.HitRadius * e.cfg.HitRadius
	var best *Hit
	for _, s := range e.series {
		if !s.Visible() || s.Kind() == KindHeatmap {
			continue
		}
		xs, ys := s.Data()
		n := len(xs)
		if n == 0 || len(ys) < n {
			continue
		}
		ysc := e.yScale
		if sc, ok := e.yScales[s.YAxisID()]; ok {
			ysc = sc
		}
		center := SearchClosestIndex(xs, dataX)
		w := searchWindow(n)
		lo := clamp(center-w, 0, n-1)
		hi := clamp(center+w, 0, n-1)
		for i := lo; i <= hi; i++ {
			hx := e.xScale.Transform(xs[i])
			hy := ysc.Transform(ys[i])
			dx, dy := hx-px, hy-py
			distSq := dx*dx + dy*dy
			if distSq > radiusSq {
				continue
			}
			if best == nil || distSq < best.DistSq {
				h := Hit{
					SeriesID: s.ID(), Index: i,
					DataX: xs[i], DataY: ys[i],
					PixelX: hx, PixelY: hy,
					DistSq: distSq,
				}
				if yerr, ok := s.YError(i); ok {
					h.YError, h.HasError = yerr, true
				}
				best = &h
			}
		}
	}
	return best
}

// searchXOnlyLocked binary-searches each series independently and
// keeps whichever lands closest on the x axis. Any series with data
// produces a hit; distance is measured in x pixels only.
func (e *TooltipEngine) searchXOnlyLocked(dataX float64) *Hit {
	px := e.xScale.Transform(dataX)
	var best *Hit
	for _, s := range e.series {
		if !s.Visible() || s.Kind() == KindHeatmap {
			continue
		}
		xs, ys := s.Data()
		n := len(xs)
		if n == 0 || len(ys) < n {
			continue
		}
		i := SearchClosestIndex(xs, dataX)
		hx := e.xScale.Transform(xs[i])
		dx := hx - px
		distSq := dx * dx
		if best == nil || distSq < best.DistSq {
			ysc := e.yScale
			if sc, ok := e.yScales[s.YAxisID()]; ok {
				ysc = sc
			}
			h := Hit{
				SeriesID: s.ID(), Index: i,
				DataX: xs[i], DataY: ys[i],
				PixelX: hx, PixelY: ysc.Transform(ys[i]),
				DistSq: distSq,
			}
			if yerr, ok := s.YError(i); ok {
				h.YError, h.HasError = yerr, true
			}
			best = &h
		}
	}
	return best
}

// searchHeatmapLocked resolves the heatmap cell under the cursor by
// binary-searching both grid axes.
func (e *TooltipEngine) searchHeatmapLocked(px, py, dataX float64) *HeatmapCell {
	for _, s := range e.series {
		if !s.Visible() || s.Kind() != KindHeatmap {
			continue
		}
		grid, ok := s.(HeatmapGrid)
		if !ok {
			continue
		}
		gxs, gys := grid.GridCenters()
		if len(gxs) == 0 || len(gys) == 0 {
			continue
		}
		ysc := e.yScale
		if sc, ok := e.yScales[s.YAxisID()]; ok {
			ysc = sc
		}
		dataY := ysc.Invert(py)
		col := SearchClosestIndex(gxs, dataX)
		row := SearchClosestIndex(gys, dataY)
		return &HeatmapCell{
			SeriesID: s.ID(),
			Col:      col, Row: row,
			CenterX: gxs[col], CenterY: gys[row],
			Value: grid.CellValue(col, row),
		}
	}
	return nil
}

// crosshairLocked interpolates each visible series' y at the
// cursor's data x.
func (e *TooltipEngine) crosshairLocked(dataX float64) []CrosshairValue {
	var out []CrosshairValue
	for _, s := range e.series {
		if !s.Visible() || s.Kind() == KindHeatmap {
			continue
		}
		xs, ys := s.Data()
		y, ok := interpolateY(xs, ys, dataX, !e.cfg.NoInterpolation)
		if !ok {
			continue
		}
		ysc := e.yScale
		if sc, ok := e.yScales[s.YAxisID()]; ok {
			ysc = sc
		}
		out = append(out, CrosshairValue{
			SeriesID: s.ID(),
			DataY:    y,
			PixelY:   ysc.Transform(y),
		})
	}
	return out
}

// scheduleShowLocked debounces the show callback. A tooltip already
// on screen updates with zero delay so hopping between series feels
// immediate. The returned func delivers OnShow and must be invoked
// with the lock released; it is nil when the show was deferred to a
// timer.
func (e *TooltipEngine) scheduleShowLocked(result TooltipResult) func() {
	e.cancelTimersLocked()
	if e.visible {
		return e.fireShowLocked(result)
	}
	e.showTimer = time.AfterFunc(e.cfg.ShowDelay, func() {
		e.mu.Lock()
		fire := e.fireShowLocked(result)
		e.mu.Unlock()
		if fire != nil {
			fire()
		}
	})
	return nil
}

func (e *TooltipEngine) fireShowLocked(result TooltipResult) func() {
	e.visible = true
	e.state = StateShowing
	if e.cfg.OnShow == nil {
		return nil
	}
	onShow := e.cfg.OnShow
	return func() { onShow(result) }
}

// scheduleHideLocked debounces disappearance.
func (e *TooltipEngine) scheduleHideLocked() {
	e.cancelTimersLocked()
	if !e.visible {
		if e.state == StateShowing || e.state == StateHiding {
			e.state = StateTracking
		}
		return
	}
	e.state = StateHiding
	e.hideTimer = time.AfterFunc(e.cfg.HideDelay, func() {
		e.mu.Lock()
		e.visible = false
		if e.state == StateHiding {
			e.state = StateIdle
		}
		onHide := e.cfg.OnHide
		e.mu.Unlock()
		if onHide != nil {
			onHide()
		}
	})
}

func (e *TooltipEngine) cancelTimersLocked() {
	if e.showTimer != nil {
		e.showTimer.Stop()
		e.showTimer = nil
	}
	if e.hideTimer != nil {
		e.hideTimer.Stop()
		e.hideTimer = nil
	}
}
